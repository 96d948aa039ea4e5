// Public domain.

package planner

import (
	"context"
	"time"

	"neotonight/internal/ephem"
	"neotonight/internal/neo"
	"neotonight/internal/rank"
	"neotonight/internal/site"
	"neotonight/internal/visibility"
)

// Plan runs the planning pipeline over a snapshot for one site and night:
// clone, filter by visibility, score and sort, truncate, then refine the
// survivors through Horizons.
//
// The snapshot is never mutated; every request plans on its own clones.
// Refinement runs after truncation so only targets that made the list cost
// a Horizons round trip, and it never reorders the ranking.
func Plan(ctx context.Context, snap *Snapshot, p *site.Profile, night time.Time, limit int, eph *ephem.Client) []*neo.Target {
	ts := neo.CloneAll(snap.Targets)
	ts = visibility.Filter(ts, p, night)
	ts = rank.Score(ts, p)
	if limit > 0 && len(ts) > limit {
		ts = ts[:limit]
	}
	if eph != nil {
		eph.RefineAll(ctx, ts, p)
	}
	return ts
}
