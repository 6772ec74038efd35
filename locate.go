package regrid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxHalvings bounds the step-halving line search inside one Newton
// iteration.
const maxHalvings = 5

// Locate finds the fractional index in g's index space at which the
// multilinear interpolation of g's coordinate fields reproduces target,
// using a damped Newton iteration started from guess. Periodic axes
// wrap: the estimate is taken modulo the dimension size and residuals
// modulo the inferred coordinate period.
//
// Non-convergence is not an error: callers decide from the returned
// iteration count and residual norm (converged means residual <= tol)
// whether to treat the point as unlocatable. An error is returned only
// when target, guess, or periodic disagree with g's dimensionality.
func (g *Grid) Locate(target, guess []float64, maxIter int, tol float64, periodic []bool) ([]float64, int, float64, error) {
	n := g.NumDims()
	if len(target) != n {
		return nil, 0, 0, fmt.Errorf("%w: target has %d components, grid has %d dimensions",
			ErrDimensionMismatch, len(target), n)
	}
	if len(guess) != n {
		return nil, 0, 0, fmt.Errorf("%w: guess has %d components, grid has %d dimensions",
			ErrDimensionMismatch, len(guess), n)
	}
	per, err := normPeriodic(periodic, n)
	if err != nil {
		return nil, 0, 0, err
	}
	frac := make([]float64, n)
	copy(frac, guess)
	loc := newLocator(g, per)
	iters, resid := loc.locate(target, frac, maxIter, tol)
	return frac, iters, resid, nil
}

// normPeriodic pads a periodic-axes slice with false up to ndims.
func normPeriodic(periodic []bool, ndims int) ([]bool, error) {
	if len(periodic) > ndims {
		return nil, fmt.Errorf("%w: %d periodic flags for %d dimensions",
			ErrDimensionMismatch, len(periodic), ndims)
	}
	per := make([]bool, ndims)
	copy(per, periodic)
	return per, nil
}

// locator inverts a grid's coordinate mapping. It holds per-axis
// periodicity, inferred coordinate periods, and iteration scratch, so
// one instance serves many locate calls without allocating.
type locator struct {
	g        *Grid
	periodic []bool
	periods  []float64

	lo    []int
	t     []float64
	f     []float64
	sign  []float64
	wrap  []bool
	pos   []float64
	r     []float64
	rr    []float64
	trial []float64
	res   *mat.VecDense
	dx    *mat.VecDense
	jac   *mat.Dense
	lu    mat.LU
}

func newLocator(g *Grid, periodic []bool) *locator {
	n := g.NumDims()
	l := &locator{
		g:        g,
		periodic: periodic,
		periods:  make([]float64, n),
		lo:       make([]int, n),
		t:        make([]float64, n),
		f:        make([]float64, n),
		sign:     make([]float64, n),
		wrap:     make([]bool, n),
		pos:      make([]float64, n),
		r:        make([]float64, n),
		rr:       make([]float64, n),
		trial:    make([]float64, n),
		res:      mat.NewVecDense(n, nil),
		dx:       mat.NewVecDense(n, nil),
		jac:      mat.NewDense(n, n, nil),
	}
	for j := range periodic {
		if periodic[j] {
			l.periods[j] = g.coordPeriod(j)
		}
	}
	return l
}

// locate runs the damped Newton iteration, updating x in place.
// Returns the number of Newton updates taken and the achieved residual
// norm.
func (l *locator) locate(target, x []float64, maxIter int, tol float64) (int, float64) {
	n := len(x)
	l.clampWrap(x)
	rnorm := l.resNorm(target, x)
	for it := 0; it < maxIter; it++ {
		if rnorm <= tol {
			return it, rnorm
		}
		l.eval(x, l.pos, l.jac)
		l.residual(target, l.pos, l.r)
		for i := 0; i < n; i++ {
			l.res.SetVec(i, l.r[i])
		}
		l.lu.Factorize(l.jac)
		if err := l.lu.SolveVecTo(l.dx, false, l.res); err != nil {
			if _, nearSingular := err.(mat.Condition); !nearSingular {
				// Singular local Jacobian: the point cannot be located
				// from here (degenerate cell or size-1 dimension).
				return it, rnorm
			}
		}
		for i := 0; i < n; i++ {
			if v := l.dx.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
				return it, rnorm
			}
		}
		// Halve the Newton step until the residual stops growing; the
		// final halving is accepted regardless so the iteration cannot
		// stall on a bad step.
		step := 1.0
		for k := 0; k < maxHalvings; k++ {
			for i := 0; i < n; i++ {
				l.trial[i] = x[i] + step*l.dx.AtVec(i)
			}
			l.clampWrap(l.trial)
			rn := l.resNorm(target, l.trial)
			if rn < rnorm || k == maxHalvings-1 {
				copy(x, l.trial)
				rnorm = rn
				break
			}
			step /= 2
		}
	}
	return maxIter, rnorm
}

// clampWrap brings each component of x into the grid's index range:
// periodic axes wrap modulo the dimension size, others clamp to
// [0, size-1].
func (l *locator) clampWrap(x []float64) {
	for j, nj := range l.g.dims {
		if l.periodic[j] {
			x[j] = math.Mod(x[j], float64(nj))
			if x[j] < 0 {
				x[j] += float64(nj)
			}
			continue
		}
		if x[j] < 0 {
			x[j] = 0
		}
		if top := float64(nj - 1); x[j] > top {
			x[j] = top
		}
	}
}

// resNorm evaluates the position residual norm at fractional index x.
func (l *locator) resNorm(target, x []float64) float64 {
	l.eval(x, l.pos, nil)
	l.residual(target, l.pos, l.rr)
	return floats.Norm(l.rr, 2)
}

// residual computes target minus position, wrapping periodic coordinate
// components into (-period/2, period/2].
func (l *locator) residual(target, pos, out []float64) {
	for i := range out {
		r := target[i] - pos[i]
		if l.periodic[i] && l.periods[i] != 0 {
			r -= math.Round(r/l.periods[i]) * l.periods[i]
		}
		out[i] = r
	}
}

// eval interpolates the grid's coordinate fields at fractional index x,
// writing the physical position into pos and, when jac is non-nil, the
// Jacobian d(coordinate)/d(index) into jac. A corner that wraps a
// periodic seam has the axis period added to its own coordinate
// component, keeping the interpolant continuous across the seam.
func (l *locator) eval(x, pos []float64, jac *mat.Dense) {
	g := l.g
	n := len(g.dims)
	for j, nj := range g.dims {
		lo := int(math.Floor(x[j]))
		hi := nj - 1
		if !l.periodic[j] {
			hi = nj - 2 // lower corner of the last cell
		}
		if lo > hi {
			lo = hi
		}
		if lo < 0 {
			lo = 0
		}
		l.lo[j] = lo
		l.t[j] = x[j] - float64(lo)
	}
	for i := range pos {
		pos[i] = 0
	}
	if jac != nil {
		jac.Zero()
	}
	for mask := 0; mask < 1<<uint(n); mask++ {
		flat := 0
		for j, nj := range g.dims {
			cj := l.lo[j]
			l.f[j], l.sign[j] = 1-l.t[j], -1
			if mask>>uint(j)&1 == 1 {
				cj++
				l.f[j], l.sign[j] = l.t[j], 1
			}
			l.wrap[j] = false
			if cj >= nj {
				if l.periodic[j] {
					cj -= nj
					l.wrap[j] = true
				} else {
					cj = nj - 1 // size-1 dimension; this corner has zero weight
				}
			}
			flat += cj * g.strides[j]
		}
		w := 1.0
		for j := 0; j < n; j++ {
			w *= l.f[j]
		}
		for i := 0; i < n; i++ {
			c := g.coords[i][flat]
			if l.wrap[i] {
				c += l.periods[i]
			}
			pos[i] += w * c
			if jac == nil {
				continue
			}
			for j := 0; j < n; j++ {
				p := l.sign[j]
				for k := 0; k < n; k++ {
					if k != j {
						p *= l.f[k]
					}
				}
				jac.Set(i, j, jac.At(i, j)+p*c)
			}
		}
	}
}
