// Public domain.

// Package rank converts each candidate's heterogeneous scoring factors
// into a single priority score and orders the list by it.
//
// Every factor normalizes to [0,1] by clamping.  Missing inputs contribute
// zero, never an error, so the scorer is total over whatever the feeds and
// the visibility engine managed to produce.
package rank

import (
	"math"
	"sort"

	"neotonight/internal/neo"
	"neotonight/internal/site"
)

// Score assigns a priority score to each target, sorts the slice in place
// highest first, and returns it.
//
// Targets are expected to carry observability annotations already; the
// scorer never computes observability, it only reads the window length.
// The score is 100 times the weighted mean of the configured factors.
// A factor absent from the profile's weight map drops out of numerator and
// denominator both; if no weights remain the score is zero.
func Score(ts []*neo.Target, p *site.Profile) []*neo.Target {
	for _, t := range ts {
		t.PriorityScore = neo.Float(score(t, p))
	}
	sort.SliceStable(ts, func(i, j int) bool {
		return scoreOf(ts[i]) > scoreOf(ts[j])
	})
	return ts
}

func score(t *neo.Target, p *site.Profile) float64 {
	f := factors(t, p)
	var total, weightSum float64
	for _, fa := range site.Factors {
		w := p.Weight(fa)
		total += f[fa] * w
		weightSum += w
	}
	if weightSum <= 0 {
		return 0
	}
	return math.Round(total/weightSum*1000) / 10
}

// factors computes all seven normalized factors for one target.
func factors(t *neo.Target, p *site.Profile) map[site.Factor]float64 {
	f := map[site.Factor]float64{
		// Not observed in a week reads as fully urgent.
		site.FactorNotSeenDays: clamp(t.NotSeenDays / 7),

		// A short observed arc means a poorly constrained orbit.
		site.FactorArcShortness: 1 - clamp(t.ArcDays/30),

		site.FactorNEOScore: orZero(t.NEOScore) / 100,
		site.FactorPHAScore: orZero(t.PHAScore) / 100,
	}

	// Impact probability on a log scale: 1e-9 is ~0, 1e-2 is ~1.
	if t.ImpactProb != nil && *t.ImpactProb > 0 {
		f[site.FactorImpactProb] = clamp((math.Log10(*t.ImpactProb) + 9) / 7)
	} else {
		f[site.FactorImpactProb] = 0
	}

	var hours float64
	if t.ObsWindowHours != nil {
		hours = *t.ObsWindowHours
	}
	f[site.FactorWindowHours] = clamp(hours / 6)

	// Margin above the detection threshold; a missing magnitude scores
	// zero rather than being guessed at.
	if t.MagV != nil {
		f[site.FactorBrightnessMargin] = clamp((p.LimitingMag - *t.MagV) / 5)
	} else {
		f[site.FactorBrightnessMargin] = 0
	}
	return f
}

func scoreOf(t *neo.Target) float64 {
	if t.PriorityScore == nil {
		return 0
	}
	return *t.PriorityScore
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
