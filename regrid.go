// Package regrid transfers scalar field data between structured grids
// (rectilinear or curvilinear) that share a dimensionality but may
// differ in resolution, extent, and curvature. For every destination
// grid point it inverts the source grid's coordinate mapping with a
// damped Newton iteration, derives a 2^N-point multilinear stencil
// from the fractional index, and applies the stencil weights to
// transfer field values. Destination points that cannot be located on
// the source grid are left untouched by Apply, so a caller-supplied
// fill value survives.
package regrid

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// Defaults for ComputeWeights, matching the historical regridding
// conventions for climate model output.
const (
	DefaultMaxIter = 100
	DefaultTolPos  = 1e-2
)

// stencil holds one destination point's interpolation recipe: 2^N
// source corner flat indices and matching multilinear weights.
type stencil struct {
	inds []int
	wts  []float64
}

// box is an inclusive axis-aligned index-space box on the source grid.
type box struct {
	lo, hi []int
}

func (b box) contains(sub []int) bool {
	for j, s := range sub {
		if s < b.lo[j] || s > b.hi[j] {
			return false
		}
	}
	return true
}

// Operator regrids fields from a source grid onto a destination grid.
// It owns both grids, an optional set of forbidden source index boxes,
// and, after ComputeWeights, a stencil table keyed by destination flat
// index. ComputeWeights must not run concurrently with another
// ComputeWeights or Apply call on the same Operator.
type Operator struct {
	src, dst *Grid
	boxes    []box
	stencils []*stencil // nil entry: unlocatable destination point
	nValid   int
}

// New builds an Operator from source and destination coordinate
// descriptors. Both grids must have the same nonzero number of
// dimensions; axes are promoted to full curvilinear form.
func New(srcCoords, dstCoords []Coord) (*Operator, error) {
	if len(srcCoords) == 0 || len(srcCoords) != len(dstCoords) {
		return nil, fmt.Errorf("%w: %d source vs %d destination coordinates",
			ErrDimensionMismatch, len(srcCoords), len(dstCoords))
	}
	src, err := NewGrid(srcCoords)
	if err != nil {
		return nil, fmt.Errorf("source grid: %w", err)
	}
	dst, err := NewGrid(dstCoords)
	if err != nil {
		return nil, fmt.Errorf("destination grid: %w", err)
	}
	return &Operator{src: src, dst: dst}, nil
}

// SrcGrid returns the source grid.
func (op *Operator) SrcGrid() *Grid { return op.src }

// DstGrid returns the destination grid.
func (op *Operator) DstGrid() *Grid { return op.dst }

// AddForbiddenBox excludes an inclusive index-space box on the source
// grid from contributing to any stencil. Boxes are unioned; they take
// effect at the next ComputeWeights call.
func (op *Operator) AddForbiddenBox(lo, hi []int) error {
	n := op.src.NumDims()
	if len(lo) != n || len(hi) != n {
		return fmt.Errorf("%w: box bounds have %d/%d components, grid has %d dimensions",
			ErrDimensionMismatch, len(lo), len(hi), n)
	}
	b := box{lo: make([]int, n), hi: make([]int, n)}
	copy(b.lo, lo)
	copy(b.hi, hi)
	op.boxes = append(op.boxes, b)
	return nil
}

func (op *Operator) inForbidden(sub []int) bool {
	for _, b := range op.boxes {
		if b.contains(sub) {
			return true
		}
	}
	return false
}

// ComputeWeights locates every destination grid point on the source
// grid and builds its interpolation stencil, replacing any previous
// stencil table. Destination points whose locate iteration fails to
// converge within maxIter, or whose stencil would leave a non-periodic
// axis or touch a forbidden box, are recorded as invalid and later
// skipped by Apply.
//
// The destination index space is partitioned across workers; within a
// worker each point's converged fractional index seeds the next
// point's iteration, starting from the source grid center.
func (op *Operator) ComputeWeights(maxIter int, tolPos float64, periodic []bool) error {
	per, err := normPeriodic(periodic, op.src.NumDims())
	if err != nil {
		return err
	}
	n := op.src.NumDims()
	total := op.dst.Size()
	st := make([]*stencil, total)
	var nValid atomic.Int64

	workers := runtime.GOMAXPROCS(0)
	if workers > total {
		workers = total
	}
	chunk := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for beg := 0; beg < total; beg += chunk {
		end := min(beg+chunk, total)
		wg.Add(1)
		go func(beg, end int) {
			defer wg.Done()
			loc := newLocator(op.src, per)
			guess := op.src.center()
			target := make([]float64, n)
			frac := make([]float64, n)
			for d := beg; d < end; d++ {
				for i := 0; i < n; i++ {
					target[i] = op.dst.coords[i][d]
				}
				copy(frac, guess)
				_, resid := loc.locate(target, frac, maxIter, tolPos)
				if !(resid <= tolPos) { // also rejects NaN
					continue
				}
				copy(guess, frac)
				if s := op.buildStencil(frac, per); s != nil {
					st[d] = s
					nValid.Add(1)
				}
			}
		}(beg, end)
	}
	wg.Wait()
	op.stencils = st
	op.nValid = int(nValid.Load())
	return nil
}

// buildStencil converts a converged fractional index into a 2^N corner
// stencil. It returns nil when a corner would leave a non-periodic
// axis or fall inside a forbidden box.
func (op *Operator) buildStencil(frac []float64, periodic []bool) *stencil {
	g := op.src
	n := len(g.dims)
	lo := make([]int, n)
	t := make([]float64, n)
	for j, nj := range g.dims {
		c := int(math.Floor(frac[j]))
		if periodic[j] {
			if c < 0 {
				c += nj
			}
			if c > nj-1 {
				c = nj - 1
			}
		} else {
			if nj < 2 {
				return nil
			}
			if c > nj-2 {
				c = nj - 2
			}
			if c < 0 {
				c = 0
			}
		}
		lo[j] = c
		t[j] = frac[j] - float64(c)
	}
	nc := 1 << uint(n)
	s := &stencil{inds: make([]int, nc), wts: make([]float64, nc)}
	sub := make([]int, n)
	for mask := 0; mask < nc; mask++ {
		w := 1.0
		flat := 0
		for j, nj := range g.dims {
			cj := lo[j]
			f := 1 - t[j]
			if mask>>uint(j)&1 == 1 {
				cj++
				f = t[j]
			}
			if cj >= nj {
				if !periodic[j] {
					return nil
				}
				cj -= nj
			}
			sub[j] = cj
			flat += cj * g.strides[j]
			w *= f
		}
		if op.inForbidden(sub) {
			return nil
		}
		s.inds[mask] = flat
		s.wts[mask] = w
	}
	return s
}

// NumValid returns the number of destination points with a valid
// stencil after the last ComputeWeights call. Destination points
// falling outside the source domain, or which otherwise could not be
// located, reduce this count.
func (op *Operator) NumValid() int { return op.nValid }

// NumDstPoints returns the total number of destination grid points.
func (op *Operator) NumDstPoints() int { return op.dst.Size() }

// IndicesAndWeights returns the source corner multi-indices and
// multilinear weights for one destination point. It returns nil slices
// without error when the point has no valid stencil (or ComputeWeights
// has not run).
func (op *Operator) IndicesAndWeights(dstIndex []int) ([][]int, []float64, error) {
	n := op.dst.NumDims()
	if len(dstIndex) != n {
		return nil, nil, fmt.Errorf("%w: destination index has %d components, grid has %d dimensions",
			ErrDimensionMismatch, len(dstIndex), n)
	}
	for j, s := range dstIndex {
		if s < 0 || s >= op.dst.dims[j] {
			return nil, nil, fmt.Errorf("%w: destination index %v out of range for dims %v",
				ErrShapeMismatch, dstIndex, op.dst.dims)
		}
	}
	if op.stencils == nil {
		return nil, nil, nil
	}
	s := op.stencils[op.dst.FlatIndex(dstIndex)]
	if s == nil {
		return nil, nil, nil
	}
	corners := make([][]int, len(s.inds))
	for k, flat := range s.inds {
		corners[k] = op.src.MultiIndex(flat, nil)
	}
	wts := make([]float64, len(s.wts))
	copy(wts, s.wts)
	return corners, wts, nil
}
