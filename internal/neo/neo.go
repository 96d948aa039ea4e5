// Public domain.

// Package neo defines the candidate record shared by every stage of the
// follow-up planning pipeline.
//
// Feed adapters create Targets, the visibility engine and the priority
// scorer annotate them, and the export layer serializes them.  A Target is
// plain data; all behavior lives in the packages that operate on it.
package neo

import (
	"time"
)

// Target is a single NEO or asteroid candidate that may warrant follow-up.
//
// Pointer fields are nullable: nil means the feed did not supply the value.
// Observability fields are populated only by the visibility engine and
// PriorityScore only by the scorer, once per pipeline pass.
type Target struct {
	// Identity.
	Designation string `json:"designation"`
	Source      string `json:"source"`
	SourceURL   string `json:"source_url,omitempty"`

	// Sky position, current or predicted.  Absence means the candidate has
	// no position yet and cannot be observable.
	RADeg  *float64   `json:"ra_deg,omitempty"`  // [0,360)
	DecDeg *float64   `json:"dec_deg,omitempty"` // [-90,90]
	Epoch  *time.Time `json:"epoch,omitempty"`

	// Brightness.
	MagV *float64 `json:"mag_v,omitempty"` // apparent visual magnitude
	MagH *float64 `json:"mag_h,omitempty"` // absolute magnitude, size proxy

	// Orbit quality.
	NObs        int     `json:"n_obs"`
	ArcDays     float64 `json:"arc_days"`
	NotSeenDays float64 `json:"not_seen_days"`

	// Hazard and likelihood scores from cross-referenced feeds.
	NEOScore   *float64 `json:"neo_score,omitempty"`   // 0-100
	PHAScore   *float64 `json:"pha_score,omitempty"`   // 0-100
	ImpactProb *float64 `json:"impact_prob,omitempty"` // 0-1

	// Observed-arc fit, from the optional obs-arc enrichment.
	FitRMSArcsec *float64 `json:"fit_rms_arcsec,omitempty"`

	// Ephemeris refinement, best effort after ranking.
	PredictedRADeg      *float64   `json:"predicted_ra_deg,omitempty"`
	PredictedDecDeg     *float64   `json:"predicted_dec_deg,omitempty"`
	PredictedEpoch      *time.Time `json:"predicted_epoch,omitempty"`
	MotionRateArcsecMin *float64   `json:"motion_rate_arcsec_min,omitempty"`
	MotionPADeg         *float64   `json:"motion_pa_deg,omitempty"`
	PredictedMag        *float64   `json:"predicted_mag,omitempty"`

	// Observability, populated by the visibility engine.
	Observable      *bool      `json:"observable,omitempty"`
	ObsWindowStart  *time.Time `json:"obs_window_start,omitempty"`
	ObsWindowEnd    *time.Time `json:"obs_window_end,omitempty"`
	ObsWindowHours  *float64   `json:"obs_window_hours,omitempty"`
	BestAltitudeDeg *float64   `json:"best_altitude_deg,omitempty"`
	BestAirmass     *float64   `json:"best_airmass,omitempty"`
	MoonSepDeg      *float64   `json:"moon_sep_deg,omitempty"`
	TransitTime     *time.Time `json:"transit_time,omitempty"`

	// Priority, populated by the scorer.  Higher is more urgent.
	PriorityScore *float64 `json:"priority_score,omitempty"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Raw is the untouched source record, carried for traceability and
	// excluded from serialization.
	Raw map[string]any `json:"-"`
}

// Merge copies scoring and enrichment data from other into t.
//
// Used when the same object appears in multiple feeds.  A field already set
// on t wins; only nil (or zero, for the orbit-quality counters) fields take
// the other feed's value.  Raw payloads accumulate keyed by source.
func (t *Target) Merge(other *Target) {
	mergeFloat := func(dst **float64, src *float64) {
		if *dst == nil && src != nil {
			v := *src
			*dst = &v
		}
	}
	mergeFloat(&t.NEOScore, other.NEOScore)
	mergeFloat(&t.PHAScore, other.PHAScore)
	mergeFloat(&t.ImpactProb, other.ImpactProb)
	mergeFloat(&t.MagV, other.MagV)
	mergeFloat(&t.MagH, other.MagH)
	if t.NObs == 0 {
		t.NObs = other.NObs
	}
	if t.ArcDays == 0 {
		t.ArcDays = other.ArcDays
	}
	if t.NotSeenDays == 0 {
		t.NotSeenDays = other.NotSeenDays
	}
	if len(other.Raw) > 0 {
		if t.Raw == nil {
			t.Raw = map[string]any{}
		}
		enr, ok := t.Raw["_enrichment"].(map[string]any)
		if !ok {
			enr = map[string]any{}
			t.Raw["_enrichment"] = enr
		}
		enr[other.Source] = other.Raw
	}
}

// Clone returns a deep copy of t.
//
// The visibility engine and scorer mutate targets in place, so anything
// holding a shared snapshot must clone before running the pipeline.
func (t *Target) Clone() *Target {
	c := *t
	c.RADeg = copyFloat(t.RADeg)
	c.DecDeg = copyFloat(t.DecDeg)
	c.Epoch = copyTime(t.Epoch)
	c.MagV = copyFloat(t.MagV)
	c.MagH = copyFloat(t.MagH)
	c.NEOScore = copyFloat(t.NEOScore)
	c.PHAScore = copyFloat(t.PHAScore)
	c.ImpactProb = copyFloat(t.ImpactProb)
	c.FitRMSArcsec = copyFloat(t.FitRMSArcsec)
	c.PredictedRADeg = copyFloat(t.PredictedRADeg)
	c.PredictedDecDeg = copyFloat(t.PredictedDecDeg)
	c.PredictedEpoch = copyTime(t.PredictedEpoch)
	c.MotionRateArcsecMin = copyFloat(t.MotionRateArcsecMin)
	c.MotionPADeg = copyFloat(t.MotionPADeg)
	c.PredictedMag = copyFloat(t.PredictedMag)
	if t.Observable != nil {
		v := *t.Observable
		c.Observable = &v
	}
	c.ObsWindowStart = copyTime(t.ObsWindowStart)
	c.ObsWindowEnd = copyTime(t.ObsWindowEnd)
	c.ObsWindowHours = copyFloat(t.ObsWindowHours)
	c.BestAltitudeDeg = copyFloat(t.BestAltitudeDeg)
	c.BestAirmass = copyFloat(t.BestAirmass)
	c.MoonSepDeg = copyFloat(t.MoonSepDeg)
	c.TransitTime = copyTime(t.TransitTime)
	c.PriorityScore = copyFloat(t.PriorityScore)
	c.UpdatedAt = copyTime(t.UpdatedAt)
	if t.Raw != nil {
		c.Raw = copyMap(t.Raw)
	}
	return &c
}

// CloneAll deep-copies a slice of targets.
func CloneAll(ts []*Target) []*Target {
	cs := make([]*Target, len(ts))
	for i, t := range ts {
		cs[i] = t.Clone()
	}
	return cs
}

// Position returns the best known sky position, preferring the refined
// ephemeris prediction over the feed position.  ok is false if neither
// is set.
func (t *Target) Position() (raDeg, decDeg float64, ok bool) {
	if t.PredictedRADeg != nil && t.PredictedDecDeg != nil {
		return *t.PredictedRADeg, *t.PredictedDecDeg, true
	}
	if t.RADeg != nil && t.DecDeg != nil {
		return *t.RADeg, *t.DecDeg, true
	}
	return 0, 0, false
}

// Float returns a pointer to v.  Handy for building targets literally.
func Float(v float64) *float64 { return &v }

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyMap(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			c[k] = copyMap(sub)
		} else {
			c[k] = v
		}
	}
	return c
}
