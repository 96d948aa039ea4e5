// Public domain.

// Package astro wraps the positional-astronomy computations the planner
// needs: Sun and Moon positions, equatorial to horizontal transforms,
// angular separation, and the airmass approximation.
//
// Everything here is a thin composition of the meeus library.  Angles cross
// this package boundary in degrees as plain float64; unit quantities stay
// internal.
package astro

import (
	"math"
	"time"

	"github.com/soniakeys/coord"
	mcoord "github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// Altitude computes the altitude in degrees of a fixed equatorial position
// seen from latDeg/lonDeg (east positive) at time t.
func Altitude(raDeg, decDeg float64, t time.Time, latDeg, lonDeg float64) float64 {
	eq := &mcoord.Equatorial{
		RA:  unit.RAFromDeg(raDeg),
		Dec: unit.AngleFromDeg(decDeg),
	}
	return altitude(eq, t, latDeg, lonDeg)
}

// SunAltitude computes the Sun's altitude in degrees at time t.
func SunAltitude(t time.Time, latDeg, lonDeg float64) float64 {
	jd := julian.TimeToJD(t)
	α, δ := solar.ApparentEquatorial(jd)
	return altitude(&mcoord.Equatorial{RA: α, Dec: δ}, t, latDeg, lonDeg)
}

// MoonEquatorial computes the Moon's geocentric RA and Dec in degrees at
// time t.  Geocentric is good to about a degree of parallax, which is fine
// for a separation gate measured in tens of degrees.
func MoonEquatorial(t time.Time) (raDeg, decDeg float64) {
	jd := julian.TimeToJD(t)
	λ, β, _ := moonposition.Position(jd)
	ε := nutation.MeanObliquity(jd)
	eq := new(mcoord.Equatorial).EclToEq(
		&mcoord.Ecliptic{Lon: λ, Lat: β},
		mcoord.NewObliquity(ε))
	return eq.RA.Deg(), eq.Dec.Deg()
}

// altitude transforms an equatorial position to horizontal and returns the
// altitude in degrees.  Meeus wants west-positive longitude.
func altitude(eq *mcoord.Equatorial, t time.Time, latDeg, lonDeg float64) float64 {
	st := sidereal.Apparent(julian.TimeToJD(t))
	g := &globe.Coord{
		Lat: unit.AngleFromDeg(latDeg),
		Lon: unit.AngleFromDeg(-lonDeg),
	}
	hz := new(mcoord.Horizontal).EqToHz(eq, g, st)
	return hz.Alt.Deg()
}

// Separation computes the angular separation in degrees between two sky
// positions given in degrees.  Computed through unit vectors, which is
// stable at all separations.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	u1 := cart(ra1, dec1)
	u2 := cart(ra2, dec2)
	d := u1.Dot(&u2)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Acos(d) * 180 / math.Pi
}

// cart solves the unit vector for sky coordinates in degrees.
func cart(raDeg, decDeg float64) coord.Cart {
	sd, cd := math.Sincos(decDeg * math.Pi / 180)
	sr, cr := math.Sincos(raDeg * math.Pi / 180)
	return coord.Cart{X: cr * cd, Y: sr * cd, Z: sd}
}

// AirmassBelowHorizon is the sentinel reported for altitudes at or below
// the horizon, where the airmass model is undefined.
const AirmassBelowHorizon = 99

// Airmass approximates atmospheric path length from altitude in degrees
// using the Pickering (2002) interpolative formula.
func Airmass(altDeg float64) float64 {
	if altDeg <= 0 {
		return AirmassBelowHorizon
	}
	h := altDeg + 244/(165+47*math.Pow(altDeg, 1.1))
	return 1 / math.Sin(h*math.Pi/180)
}

// EstDiameterM estimates an object diameter in metres from its absolute
// magnitude, assuming the given geometric albedo (NEOs commonly assume .14).
func EstDiameterM(h, albedo float64) float64 {
	if albedo <= 0 {
		albedo = .14
	}
	return 1329e3 / math.Sqrt(albedo) * math.Pow(10, -h/5)
}
