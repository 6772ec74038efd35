package regrid

import "math"

const earthRadiusM = 6371229.0 // spherical earth, the usual NWP convention

// LambertGrid describes a Lambert conformal conic grid: Ni×Nj points
// spaced Dx×Dy metres on the projection plane. It is the canonical
// curvilinear grid for regional climate and weather model output; its
// latitude/longitude fields depend on both indices at once, which is
// exactly the case the regridder's Newton locator exists for.
type LambertGrid struct {
	Ni, Nj         int
	La1, Lo1       float64 // first grid point, signed degrees (SW corner)
	LoV            float64 // central meridian, signed degrees
	Latin1, Latin2 float64 // standard parallels, degrees
	Dx, Dy         float64 // grid spacing, metres
}

func (g *LambertGrid) n() float64 {
	if g.Latin1 == g.Latin2 {
		return math.Sin(toRad(g.Latin1))
	}
	φ1 := toRad(g.Latin1)
	φ2 := toRad(g.Latin2)
	return math.Log(math.Cos(φ1)/math.Cos(φ2)) /
		math.Log(math.Tan(math.Pi/4+φ2/2)/math.Tan(math.Pi/4+φ1/2))
}

func (g *LambertGrid) bigF() float64 {
	n := g.n()
	φ1 := toRad(g.Latin1)
	return math.Cos(φ1) * math.Pow(math.Tan(math.Pi/4+φ1/2), n) / n
}

// rho returns the Lambert cone distance (metres) from the pole for a given latitude.
func (g *LambertGrid) rho(latDeg float64) float64 {
	n := g.n()
	F := g.bigF()
	φ := toRad(latDeg)
	return earthRadiusM * F / math.Pow(math.Tan(math.Pi/4+φ/2), n)
}

// refXY returns the Lambert Cartesian coordinates of the grid origin (La1,Lo1).
// Convention: x east-positive, y = -ρ*cos(θ) so y is north-positive.
func (g *LambertGrid) refXY() (x0, y0 float64) {
	n := g.n()
	ρ0 := g.rho(g.La1)
	θ0 := n * toRad(NormLon(g.Lo1)-NormLon(g.LoV))
	x0 = ρ0 * math.Sin(θ0)
	y0 = -ρ0 * math.Cos(θ0) // y increases northward
	return
}

// IjToLatLon maps grid indices (i,j) → (lat°N, lon°E signed).
// i increases eastward, j increases northward.
func (g *LambertGrid) IjToLatLon(i, j int) (lat, lon float64) {
	n := g.n()
	F := g.bigF()
	x0, y0 := g.refXY()

	x := x0 + float64(i)*g.Dx
	y := y0 + float64(j)*g.Dy

	ρ := math.Sqrt(x*x + y*y)
	if ρ == 0 {
		return 90, NormLon(g.LoV)
	}
	// x = ρ*sin(θ), -y = ρ*cos(θ) → θ = atan2(x, -y)
	θ := math.Atan2(x, -y)
	φ := 2*math.Atan(math.Pow(earthRadiusM*F/ρ, 1/n)) - math.Pi/2
	lat = toDeg(φ)
	lon = NormLon(g.LoV) + toDeg(θ)/n
	return
}

// Coords returns the grid's latitude and longitude fields as full 2-D
// curvilinear coordinate descriptors, j slowest and i fastest, ready
// to hand to New or NewGrid.
func (g *LambertGrid) Coords() (lat, lon Coord) {
	dims := []int{g.Nj, g.Ni}
	la := make([]float64, g.Nj*g.Ni)
	lo := make([]float64, g.Nj*g.Ni)
	for j := 0; j < g.Nj; j++ {
		for i := 0; i < g.Ni; i++ {
			φ, λ := g.IjToLatLon(i, j)
			la[j*g.Ni+i] = φ
			lo[j*g.Ni+i] = λ
		}
	}
	return Coord{Dims: dims, Vals: la}, Coord{Dims: dims, Vals: lo}
}

// helpers
func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }

// NormLon converts a 0-360 longitude to -180..+180.
func NormLon(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}
