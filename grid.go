package regrid

import "fmt"

// Coord describes one coordinate of a structured grid: a flat row-major
// array of values plus its shape. A 1-D Coord is an axis, meaning the
// grid is separable along that dimension; an N-D Coord is a fully
// curvilinear coordinate field.
type Coord struct {
	Dims []int
	Vals []float64
}

// Axis wraps a 1-D coordinate array in a Coord descriptor.
func Axis(vals []float64) Coord {
	return Coord{Dims: []int{len(vals)}, Vals: vals}
}

// Grid is an immutable structured grid: per-dimension sizes plus one
// full curvilinear coordinate field per dimension. Coordinate fields
// are stored flat in row-major order, last dimension fastest.
type Grid struct {
	dims    []int
	strides []int
	coords  [][]float64 // ndims fields, each of length Size()
}

// NewGrid builds a Grid from N coordinate descriptors, promoting any
// axes to full curvilinear form by tensor product. Mixed axis and
// curvilinear descriptors are resolved positionally; combinations
// outside the recognized patterns return ErrShapeMismatch.
func NewGrid(coords []Coord) (*Grid, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: need at least one coordinate", ErrDimensionMismatch)
	}
	for i, c := range coords {
		if len(c.Vals) != size(c.Dims) {
			return nil, fmt.Errorf("%w: coordinate %d has %d values for shape %v",
				ErrShapeMismatch, i, len(c.Vals), c.Dims)
		}
	}
	full, dims, err := makeCurvilinear(coords)
	if err != nil {
		return nil, err
	}
	strides := make([]int, len(dims))
	s := 1
	for j := len(dims) - 1; j >= 0; j-- {
		strides[j] = s
		s *= dims[j]
	}
	return &Grid{dims: dims, strides: strides, coords: full}, nil
}

// makeCurvilinear turns a mixture of axes and curvilinear coordinates
// into full curvilinear coordinate fields, resolving the grid shape.
// The size of dimension i is taken from whichever descriptor directly
// specifies it; a 2-D descriptor in a 3-D grid is broadcast along the
// leading axis, a narrow special case inherited from climate grids
// where a vertical axis leads two horizontal curvilinear coordinates.
func makeCurvilinear(coords []Coord) ([][]float64, []int, error) {
	ndims := len(coords)

	// First pass: resolve the per-dimension sizes.
	dims := make([]int, ndims)
	count1D := 0
	for i, c := range coords {
		switch nd := len(c.Dims); {
		case nd == 1:
			dims[i] = c.Dims[0]
			count1D++
		case nd == ndims:
			dims[i] = c.Dims[i]
		case i-count1D >= 0 && i-count1D < nd:
			// All axes precede the curvilinear coordinates.
			dims[i] = c.Dims[i-count1D]
		default:
			return nil, nil, shapeErr(coords)
		}
	}
	for i, d := range dims {
		if d <= 0 {
			return nil, nil, fmt.Errorf("%w: dimension %d has size %d", ErrShapeMismatch, i, d)
		}
	}

	// Second pass: expand each descriptor to the full shape.
	full := make([][]float64, ndims)
	for i, c := range coords {
		switch nd := len(c.Dims); {
		case nd == ndims:
			for j := 0; j < ndims; j++ {
				if c.Dims[j] != dims[j] {
					return nil, nil, shapeErr(coords)
				}
			}
			full[i] = c.Vals
		case nd == 1:
			full[i] = tensorProduct(c.Vals, i, dims)
		case ndims == 3 && nd == 2 && i > 0:
			// Leading coordinate is an axis: replicate along it.
			if c.Dims[0] != dims[1] || c.Dims[1] != dims[2] {
				return nil, nil, shapeErr(coords)
			}
			out := make([]float64, size(dims))
			for k := 0; k < dims[0]; k++ {
				copy(out[k*len(c.Vals):], c.Vals)
			}
			full[i] = out
		default:
			return nil, nil, shapeErr(coords)
		}
	}
	return full, dims, nil
}

func shapeErr(coords []Coord) error {
	shapes := make([][]int, len(coords))
	for i, c := range coords {
		shapes[i] = c.Dims
	}
	return fmt.Errorf("%w: unrecognized mixture of axes and curvilinear coordinates %v",
		ErrShapeMismatch, shapes)
}

// tensorProduct expands a 1-D axis into the full grid shape: the axis
// varies along dimension dim and is replicated identically along every
// other dimension.
func tensorProduct(axis []float64, dim int, dims []int) []float64 {
	inner := 1
	for _, d := range dims[dim+1:] {
		inner *= d
	}
	out := make([]float64, size(dims))
	outer := len(out) / (inner * len(axis))
	k := 0
	for o := 0; o < outer; o++ {
		for _, v := range axis {
			for r := 0; r < inner; r++ {
				out[k] = v
				k++
			}
		}
	}
	return out
}

func size(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// NumDims returns the number of spatial dimensions.
func (g *Grid) NumDims() int { return len(g.dims) }

// Dims returns a copy of the per-dimension sizes.
func (g *Grid) Dims() []int {
	d := make([]int, len(g.dims))
	copy(d, g.dims)
	return d
}

// Size returns the total number of grid points.
func (g *Grid) Size() int { return len(g.coords[0]) }

// Coords returns the full curvilinear coordinate field for dimension i,
// flat in row-major order. The slice is shared with the Grid and must
// not be modified.
func (g *Grid) Coords(i int) []float64 { return g.coords[i] }

// FlatIndex converts a multi-index to a flat row-major index.
func (g *Grid) FlatIndex(sub []int) int {
	flat := 0
	for j, s := range sub {
		flat += s * g.strides[j]
	}
	return flat
}

// MultiIndex converts a flat row-major index to a multi-index. If sub
// is non-nil the result is stored in place; otherwise a new slice is
// allocated. The result is returned either way.
func (g *Grid) MultiIndex(flat int, sub []int) []int {
	if sub == nil {
		sub = make([]int, len(g.dims))
	}
	for j := len(g.dims) - 1; j >= 0; j-- {
		sub[j] = flat % g.dims[j]
		flat /= g.dims[j]
	}
	return sub
}

// center returns the fractional index of the grid's center, the default
// initial guess for the locator.
func (g *Grid) center() []float64 {
	c := make([]float64, len(g.dims))
	for j, n := range g.dims {
		c[j] = float64(n-1) / 2
	}
	return c
}

// coordPeriod infers the physical period of coordinate axis along its
// own dimension, for grids whose first and last planes are adjacent
// (one grid spacing apart) under wrap-around. The span between the
// first and last planes is averaged over transverse positions and
// scaled up by the missing seam cell.
func (g *Grid) coordPeriod(axis int) float64 {
	n := g.dims[axis]
	if n < 2 {
		return 0
	}
	s := g.strides[axis]
	c := g.coords[axis]
	var span float64
	cnt := 0
	for flat := 0; flat < len(c); flat++ {
		if (flat/s)%n != 0 {
			continue // not on the first plane
		}
		span += c[flat+(n-1)*s] - c[flat]
		cnt++
	}
	return span / float64(cnt) * float64(n) / float64(n-1)
}
