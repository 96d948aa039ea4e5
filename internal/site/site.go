// Public domain.

// Package site describes a telescope observing site and its scoring
// preferences.  A Profile is built per request from caller parameters,
// validated once at the boundary, and treated as immutable by the
// pipeline.
package site

import (
	"fmt"
	"math"

	"github.com/soniakeys/observation"
)

// Factor identifies one input to the priority score.  The scorer computes
// every factor for every target; a factor missing from a profile's weight
// map simply contributes nothing, numerator and denominator both.
type Factor string

const (
	FactorNotSeenDays      Factor = "not_seen_days"
	FactorArcShortness     Factor = "arc_days_inv"
	FactorNEOScore         Factor = "neo_score"
	FactorPHAScore         Factor = "pha_score"
	FactorImpactProb       Factor = "impact_prob"
	FactorWindowHours      Factor = "obs_window_hours"
	FactorBrightnessMargin Factor = "brightness_margin"
)

// Factors lists every known factor in scoring order.
var Factors = []Factor{
	FactorNotSeenDays,
	FactorArcShortness,
	FactorNEOScore,
	FactorPHAScore,
	FactorImpactProb,
	FactorWindowHours,
	FactorBrightnessMargin,
}

// DefaultWeights returns the stock weight table.  Impact probability
// dominates, hazard score counts more than raw NEO likelihood, and the
// convenience factors carry fractional weight.
func DefaultWeights() map[Factor]float64 {
	return map[Factor]float64{
		FactorNotSeenDays:      1,
		FactorArcShortness:     1,
		FactorNEOScore:         1,
		FactorPHAScore:         1.5,
		FactorImpactProb:       3,
		FactorWindowHours:      .5,
		FactorBrightnessMargin: .3,
	}
}

// Profile is a follow-up telescope and observing site.
type Profile struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"` // MPC observatory code, e.g. "244"

	Lat  float64 `json:"lat"`   // geodetic latitude, degrees, north positive
	Lon  float64 `json:"lon"`   // geodetic longitude, degrees, east positive
	AltM float64 `json:"alt_m"` // metres above sea level

	ApertureM   float64 `json:"aperture_m"`
	LimitingMag float64 `json:"limiting_mag"` // faintest detectable magnitude
	FOVArcmin   float64 `json:"fov_arcmin"`

	MinAltitudeDeg float64 `json:"min_altitude_deg"` // targets below this never qualify
	MaxSunAltDeg   float64 `json:"max_sun_alt_deg"`  // sun below this counts as dark
	MinMoonSepDeg  float64 `json:"min_moon_sep_deg"`

	Weights map[Factor]float64 `json:"score_weights"`
}

// Default returns a generic small-telescope profile at the given location.
func Default(lat, lon, altM float64) *Profile {
	return &Profile{
		Name:           "My Telescope",
		Lat:            lat,
		Lon:            lon,
		AltM:           altM,
		ApertureM:      .2,
		LimitingMag:    18,
		FOVArcmin:      30,
		MinAltitudeDeg: 20,
		MaxSunAltDeg:   -12,
		MinMoonSepDeg:  30,
		Weights:        DefaultWeights(),
	}
}

// Wallace is the preset for the Wallace Astrophysical Observatory,
// MPC code 244.
func Wallace() *Profile {
	p := Default(42.6138, -71.4889, 180)
	p.Name = "Wallace Astrophysical Observatory"
	p.Code = "244"
	p.ApertureM = .6
	p.LimitingMag = 19.5
	p.FOVArcmin = 20
	return p
}

// Validate checks ranges on site parameters.  Configuration errors are
// rejected here, before any candidate enters the pipeline; the pipeline
// itself never validates.
func (p *Profile) Validate() error {
	switch {
	case math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("site: latitude %v out of range [-90,90]", p.Lat)
	case math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 360:
		return fmt.Errorf("site: longitude %v out of range", p.Lon)
	case math.IsNaN(p.LimitingMag) || p.LimitingMag < 0 || p.LimitingMag > 35:
		return fmt.Errorf("site: limiting magnitude %v out of range", p.LimitingMag)
	case p.MinAltitudeDeg < 0 || p.MinAltitudeDeg >= 90:
		return fmt.Errorf("site: min altitude %v out of range [0,90)", p.MinAltitudeDeg)
	case p.MaxSunAltDeg < -90 || p.MaxSunAltDeg > 0:
		return fmt.Errorf("site: max sun altitude %v out of range [-90,0]", p.MaxSunAltDeg)
	case p.MinMoonSepDeg < 0 || p.MinMoonSepDeg > 180:
		return fmt.Errorf("site: min moon separation %v out of range [0,180]", p.MinMoonSepDeg)
	}
	for f, w := range p.Weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("site: weight %s = %v, must be non-negative", f, w)
		}
	}
	return nil
}

// Weight returns the weight for a factor, zero if unconfigured.
func (p *Profile) Weight(f Factor) float64 {
	return p.Weights[f]
}

// obscode.dat parallax constants come out of mpcformat with rho scaled
// from earth radii to AU and the longitude as an east-positive unit.Angle.
const (
	earthRadiusM  = 6.37814e6
	earthRadiusAU = 6.37814e6 / 149.59787e9
)

// FromObscode builds a site location from an MPC observatory code using a
// parsed obscode.dat map.  Only the location is resolved; optics and
// constraints keep the generic defaults.
//
// Obscode parallax constants give the geocentric latitude.  That differs
// from geodetic by at most ~12 arcmin, well under the coarseness of a
// 10 minute altitude grid, so no correction is applied.
func FromObscode(code string, ocd observation.ParallaxMap) (*Profile, error) {
	par, ok := ocd[code]
	if !ok {
		return nil, fmt.Errorf("site: unknown observatory code %q", code)
	}
	if par == nil {
		return nil, fmt.Errorf("site: observatory %q has no parallax data (space based?)", code)
	}
	lat := math.Atan2(par.RhoSinPhi, par.RhoCosPhi) * 180 / math.Pi
	lon := par.Longitude.Deg()
	if lon > 180 {
		lon -= 360 // east longitude, wrapped to ±180
	}
	rho := math.Hypot(par.RhoCosPhi, par.RhoSinPhi) / earthRadiusAU
	altM := (rho - 1) * earthRadiusM
	if altM < 0 {
		altM = 0
	}
	p := Default(lat, lon, altM)
	p.Code = code
	p.Name = "MPC station " + code
	return p, nil
}
