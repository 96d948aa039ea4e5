// Public domain.

// Package visibility determines if and when a candidate is observable from
// a given site tonight.
//
// The engine annotates targets in place and never fails: a candidate with
// degenerate input degrades to not-observable.  Callers needing isolation
// from the shared snapshot must clone targets first.
package visibility

import (
	"math"
	"time"

	"neotonight/internal/astro"
	"neotonight/internal/neo"
	"neotonight/internal/site"
)

const (
	// darkScanStep is the coarse step used to find the dark window over a
	// 24 hour span anchored at noon UTC.
	darkScanStep = 15 * time.Minute
	darkScanN    = 24 * 4

	// DefaultStep is the default resolution of the altitude grid across
	// the dark window.
	DefaultStep = 10 * time.Minute
)

// Compute fills t's observability fields in place and returns t.
//
// night picks the evening to evaluate (its UTC date anchors the dark-window
// scan); step is the altitude grid resolution, DefaultStep if zero.
//
// A target with no position is marked not observable with every other
// observability field left unset.  When the Moon gate or the altitude
// constraint fails, the Moon separation is still recorded.
func Compute(t *neo.Target, p *site.Profile, night time.Time, step time.Duration) *neo.Target {
	ra, dec, ok := t.Position()
	if !ok {
		f := false
		t.Observable = &f
		return t
	}
	if step <= 0 {
		step = DefaultStep
	}

	darkStart, darkEnd, ok := darkWindow(p, night)
	if !ok {
		f := false
		t.Observable = &f
		return t
	}

	n := int(darkEnd.Sub(darkStart) / step)
	if n <= 0 {
		f := false
		t.Observable = &f
		return t
	}

	// altitude of the target at every grid time
	times := make([]time.Time, n+1)
	alts := make([]float64, n+1)
	for i := range times {
		times[i] = darkStart.Add(time.Duration(i) * step)
		alts[i] = astro.Altitude(ra, dec, times[i], p.Lat, p.Lon)
	}

	// The Moon is sampled once, at the grid midpoint, and the separation
	// gate applies to the whole window.  Near moonrise or moonset this can
	// misclassify the window edges; accepted as an approximation.
	moonRA, moonDec := astro.MoonEquatorial(times[len(times)/2])
	moonSep := astro.Separation(ra, dec, moonRA, moonDec)
	moonOK := moonSep >= p.MinMoonSepDeg

	first, last := -1, -1
	for i, a := range alts {
		if a >= p.MinAltitudeDeg {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	if first < 0 || !moonOK {
		f := false
		t.Observable = &f
		t.MoonSepDeg = neo.Float(round1(moonSep))
		return t
	}

	// Best altitude is the maximum over qualifying samples.  The transit
	// is the global maximum, reported even when it does not itself clear
	// the altitude constraint.
	bestAlt := math.Inf(-1)
	for i := first; i <= last; i++ {
		if alts[i] >= p.MinAltitudeDeg && alts[i] > bestAlt {
			bestAlt = alts[i]
		}
	}
	transit := 0
	for i, a := range alts {
		if a > alts[transit] {
			transit = i
		}
	}

	tr := true
	t.Observable = &tr
	start, end := times[first], times[last]
	t.ObsWindowStart = &start
	t.ObsWindowEnd = &end
	t.ObsWindowHours = neo.Float(round2(end.Sub(start).Hours()))
	t.BestAltitudeDeg = neo.Float(round1(bestAlt))
	t.BestAirmass = neo.Float(round2(astro.Airmass(bestAlt)))
	t.MoonSepDeg = neo.Float(round1(moonSep))
	tt := times[transit]
	t.TransitTime = &tt
	return t
}

// Filter computes observability for every target and returns those
// observable tonight and bright enough for the site.  Input order is
// preserved; ranking happens later.  Targets with no recorded magnitude
// are never rejected on brightness grounds.
func Filter(ts []*neo.Target, p *site.Profile, night time.Time) []*neo.Target {
	var out []*neo.Target
	for _, t := range ts {
		Compute(t, p, night, DefaultStep)
		if t.Observable == nil || !*t.Observable {
			continue
		}
		if t.MagV != nil && *t.MagV > p.LimitingMag {
			f := false
			t.Observable = &f
			continue
		}
		out = append(out, t)
	}
	return out
}

// darkWindow scans a 24 hour span from noon UTC of the reference date at a
// coarse step, returning the first and last times the Sun is below the
// site's darkness threshold.
//
// The bounds are the first and last dark samples; contiguity between them
// is not verified.  A site with two separate dark spans inside the scan
// window gets one window covering both.
func darkWindow(p *site.Profile, night time.Time) (start, end time.Time, ok bool) {
	u := night.UTC()
	base := time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
	first, last := -1, -1
	for i := 0; i < darkScanN; i++ {
		ti := base.Add(time.Duration(i) * darkScanStep)
		if astro.SunAltitude(ti, p.Lat, p.Lon) < p.MaxSunAltDeg {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return time.Time{}, time.Time{}, false // polar summer
	}
	return base.Add(time.Duration(first) * darkScanStep),
		base.Add(time.Duration(last) * darkScanStep), true
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
