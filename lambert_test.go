package regrid_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaust-vislab/regrid"
)

func testLambertGrid() regrid.LambertGrid {
	return regrid.LambertGrid{
		Ni: 12, Nj: 10,
		La1: 25, Lo1: -110, LoV: -97.5,
		Latin1: 38.5, Latin2: 38.5,
		Dx: 200e3, Dy: 200e3,
	}
}

func TestNormLon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lon  float64
		want float64
	}{
		{0, 0},
		{90, 90},
		{180, 180},
		{181, -179},
		{270, -90},
		{360, 0},
		{-10, -10},
		{-180, -180},
	}
	for _, tc := range tests {
		got := regrid.NormLon(tc.lon)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("NormLon(%.1f) = %.6f, want %.6f", tc.lon, got, tc.want)
		}
	}
}

func TestLambertOrigin(t *testing.T) {
	t.Parallel()

	g := testLambertGrid()
	lat, lon := g.IjToLatLon(0, 0)
	assert.InDelta(t, g.La1, lat, 1e-9)
	assert.InDelta(t, regrid.NormLon(g.Lo1), lon, 1e-9)
}

func TestLambertCoords(t *testing.T) {
	t.Parallel()

	g := testLambertGrid()
	lat, lon := g.Coords()
	require.Equal(t, []int{g.Nj, g.Ni}, lat.Dims)
	require.Equal(t, []int{g.Nj, g.Ni}, lon.Dims)
	require.Len(t, lat.Vals, g.Nj*g.Ni)
	require.Len(t, lon.Vals, g.Nj*g.Ni)

	// Along a row, longitude increases eastward; along a column,
	// latitude increases northward.
	midJ, midI := g.Nj/2, g.Ni/2
	for i := 1; i < g.Ni; i++ {
		assert.Greater(t, lon.Vals[midJ*g.Ni+i], lon.Vals[midJ*g.Ni+i-1], "column %d", i)
	}
	for j := 1; j < g.Nj; j++ {
		assert.Greater(t, lat.Vals[j*g.Ni+midI], lat.Vals[(j-1)*g.Ni+midI], "row %d", j)
	}

	// The fields agree with the point projection.
	wantLat, wantLon := g.IjToLatLon(3, 2)
	assert.InDelta(t, wantLat, lat.Vals[2*g.Ni+3], 1e-12)
	assert.InDelta(t, wantLon, lon.Vals[2*g.Ni+3], 1e-12)
}
