package regrid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaust-vislab/regrid"
)

func srcGrid3D(t *testing.T) *regrid.Grid {
	t.Helper()
	g, err := regrid.NewGrid([]regrid.Coord{
		regrid.Axis([]float64{1, 2, 3, 4}),
		regrid.Axis([]float64{10, 20, 30}),
		regrid.Axis([]float64{100, 200}),
	})
	require.NoError(t, err)
	return g
}

func TestLocateRectilinear(t *testing.T) {
	t.Parallel()
	g := srcGrid3D(t)

	frac, iters, resid, err := g.Locate(
		[]float64{1.5, 18, 140},
		[]float64{1.5, 1, 0.5}, // grid center
		100, 1e-10, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, resid, 1e-10)
	assert.Less(t, iters, 100)
	assert.InDelta(t, 0.5, frac[0], 1e-6)
	assert.InDelta(t, 0.8, frac[1], 1e-6)
	assert.InDelta(t, 0.4, frac[2], 1e-6)
}

func TestLocateCurvilinear(t *testing.T) {
	t.Parallel()

	lg := regrid.LambertGrid{
		Ni: 12, Nj: 10,
		La1: 25, Lo1: -110, LoV: -97.5,
		Latin1: 38.5, Latin2: 38.5,
		Dx: 200e3, Dy: 200e3,
	}
	lat, lon := lg.Coords()
	g, err := regrid.NewGrid([]regrid.Coord{lat, lon})
	require.NoError(t, err)

	// The physical position of grid point (i=3, j=2) must locate at
	// fractional index (j=2, i=3).
	tLat, tLon := lg.IjToLatLon(3, 2)
	frac, _, resid, err := g.Locate(
		[]float64{tLat, tLon},
		[]float64{4.5, 5.5},
		100, 1e-10, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, resid, 1e-10)
	assert.InDelta(t, 2.0, frac[0], 1e-6)
	assert.InDelta(t, 3.0, frac[1], 1e-6)
}

func TestLocateOutOfDomain(t *testing.T) {
	t.Parallel()
	g := srcGrid3D(t)

	// x=100 is far outside [1,4]: the iteration must report
	// non-convergence rather than fail hard.
	_, iters, resid, err := g.Locate(
		[]float64{100, 18, 140},
		[]float64{1.5, 1, 0.5},
		20, 1e-3, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, iters)
	assert.Greater(t, resid, 1e-3)
}

func TestLocatePeriodicWrap(t *testing.T) {
	t.Parallel()

	// Longitude-like axis covering [0, 315] in steps of 45; first and
	// last values are adjacent under a period of 360.
	g, err := regrid.NewGrid([]regrid.Coord{
		regrid.Axis([]float64{0, 45, 90, 135, 180, 225, 270, 315}),
	})
	require.NoError(t, err)

	// -10 degrees is 350, which sits in the seam cell between index 7
	// and (wrapped) index 0.
	frac, _, resid, err := g.Locate(
		[]float64{-10},
		[]float64{3.5},
		100, 1e-10, []bool{true})
	require.NoError(t, err)
	assert.LessOrEqual(t, resid, 1e-10)
	assert.InDelta(t, 350.0/45.0, frac[0], 1e-6)
}

func TestLocateArityErrors(t *testing.T) {
	t.Parallel()
	g := srcGrid3D(t)

	_, _, _, err := g.Locate([]float64{1, 2}, []float64{0, 0, 0}, 10, 1e-2, nil)
	assert.ErrorIs(t, err, regrid.ErrDimensionMismatch)

	_, _, _, err = g.Locate([]float64{1, 2, 3}, []float64{0}, 10, 1e-2, nil)
	assert.ErrorIs(t, err, regrid.ErrDimensionMismatch)

	_, _, _, err = g.Locate([]float64{1, 2, 3}, []float64{0, 0, 0}, 10, 1e-2,
		[]bool{false, false, false, false})
	assert.ErrorIs(t, err, regrid.ErrDimensionMismatch)
}
