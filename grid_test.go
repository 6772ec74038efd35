package regrid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaust-vislab/regrid"
)

func TestNewGridTensorProduct(t *testing.T) {
	t.Parallel()

	g, err := regrid.NewGrid([]regrid.Coord{
		regrid.Axis([]float64{1, 2, 3, 4}),
		regrid.Axis([]float64{10, 20, 30}),
	})
	require.NoError(t, err)

	assert.Equal(t, []int{4, 3}, g.Dims())
	assert.Equal(t, 12, g.Size())
	assert.Equal(t,
		[]float64{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4},
		g.Coords(0))
	assert.Equal(t,
		[]float64{10, 20, 30, 10, 20, 30, 10, 20, 30, 10, 20, 30},
		g.Coords(1))
}

func TestNewGridTensorProduct3D(t *testing.T) {
	t.Parallel()

	g, err := regrid.NewGrid([]regrid.Coord{
		regrid.Axis([]float64{1, 2, 3, 4}),
		regrid.Axis([]float64{10, 20, 30}),
		regrid.Axis([]float64{100, 200}),
	})
	require.NoError(t, err)
	require.Equal(t, []int{4, 3, 2}, g.Dims())

	// Spot-check: every coordinate field holds its own axis value,
	// replicated along the other dimensions.
	for xi, x := range []float64{1, 2, 3, 4} {
		for yi, y := range []float64{10, 20, 30} {
			for zi, z := range []float64{100, 200} {
				flat := g.FlatIndex([]int{xi, yi, zi})
				assert.Equal(t, x, g.Coords(0)[flat])
				assert.Equal(t, y, g.Coords(1)[flat])
				assert.Equal(t, z, g.Coords(2)[flat])
			}
		}
	}
}

func TestNewGridMixedDescriptors(t *testing.T) {
	t.Parallel()

	// One axis, one full 2-D curvilinear coordinate.
	curv := regrid.Coord{
		Dims: []int{2, 3},
		Vals: []float64{10, 21, 32, 13, 24, 35},
	}
	g, err := regrid.NewGrid([]regrid.Coord{regrid.Axis([]float64{1, 2}), curv})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, g.Dims())
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, g.Coords(0))
	assert.Equal(t, curv.Vals, g.Coords(1))
}

func TestNewGridLeadingAxisBroadcast(t *testing.T) {
	t.Parallel()

	// A 2-D descriptor in a 3-D grid is broadcast along the leading
	// axis, the climate-grid case of a vertical axis over horizontal
	// curvilinear coordinates.
	lat := regrid.Coord{
		Dims: []int{2, 3},
		Vals: []float64{10, 11, 12, 20, 21, 22},
	}
	lon := regrid.Coord{
		Dims: []int{2, 3},
		Vals: []float64{-5, 0, 5, -4, 1, 6},
	}
	g, err := regrid.NewGrid([]regrid.Coord{
		regrid.Axis([]float64{1000, 850, 500}),
		lat,
		lon,
	})
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 3}, g.Dims())

	for k := 0; k < 3; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 3; i++ {
				flat := g.FlatIndex([]int{k, j, i})
				assert.Equal(t, lat.Vals[j*3+i], g.Coords(1)[flat], "lat at level %d", k)
				assert.Equal(t, lon.Vals[j*3+i], g.Coords(2)[flat], "lon at level %d", k)
			}
		}
	}
}

func TestNewGridMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		coords []regrid.Coord
		want   error
	}{
		{
			name:   "no coordinates",
			coords: nil,
			want:   regrid.ErrDimensionMismatch,
		},
		{
			name: "value count disagrees with shape",
			coords: []regrid.Coord{
				{Dims: []int{2, 2}, Vals: []float64{1, 2, 3}},
				regrid.Axis([]float64{1, 2}),
			},
			want: regrid.ErrShapeMismatch,
		},
		{
			name: "2-D descriptor leads a 3-D grid",
			coords: []regrid.Coord{
				{Dims: []int{2, 3}, Vals: make([]float64, 6)},
				regrid.Axis([]float64{1, 2}),
				regrid.Axis([]float64{1, 2, 3}),
			},
			want: regrid.ErrShapeMismatch,
		},
		{
			name: "curvilinear shape disagrees with axes",
			coords: []regrid.Coord{
				regrid.Axis([]float64{1, 2}),
				{Dims: []int{3, 3}, Vals: make([]float64, 9)},
			},
			want: regrid.ErrShapeMismatch,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := regrid.NewGrid(tc.coords)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFlatMultiIndexRoundtrip(t *testing.T) {
	t.Parallel()

	g, err := regrid.NewGrid([]regrid.Coord{
		regrid.Axis([]float64{1, 2, 3, 4}),
		regrid.Axis([]float64{10, 20, 30}),
		regrid.Axis([]float64{100, 200}),
	})
	require.NoError(t, err)

	sub := make([]int, 3)
	for flat := 0; flat < g.Size(); flat++ {
		g.MultiIndex(flat, sub)
		assert.Equal(t, flat, g.FlatIndex(sub))
	}
	// Last dimension varies fastest.
	assert.Equal(t, []int{0, 0, 1}, g.MultiIndex(1, nil))
	assert.Equal(t, []int{0, 1, 0}, g.MultiIndex(2, nil))
	assert.Equal(t, []int{1, 0, 0}, g.MultiIndex(6, nil))
}
