// Public domain.

package planner

import (
	"context"
	"log"
	"time"

	"neotonight/internal/feed"
	"neotonight/internal/neo"
)

// Refresher polls the feeds and publishes merged snapshots to a Store.
type Refresher struct {
	Primary    feed.Source   // NEOCP, the candidate list itself
	Enrichment []feed.Source // cross-referenced into the primary list
	ObsArc     *feed.ObsArc  // optional per-object observation lookup
	ObsArcTop  int           // enrich at most this many, 0 disables
	Store      *Store
	Timeout    time.Duration
}

type fetchResult struct {
	name string
	ts   []*neo.Target
	err  error
}

// Refresh polls every feed concurrently, cross-references the enrichment
// feeds into the primary list, and publishes the result.
//
// A failed enrichment feed is logged and skipped.  A failed primary feed
// abandons the whole refresh so the previous snapshot keeps serving.
func (r *Refresher) Refresh(ctx context.Context) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sources := append([]feed.Source{r.Primary}, r.Enrichment...)
	ch := make(chan fetchResult, len(sources))
	for _, src := range sources {
		go func(src feed.Source) {
			ts, err := src.Fetch(ctx)
			ch <- fetchResult{name: src.Name(), ts: ts, err: err}
		}(src)
	}

	status := make(map[string]SourceStatus, len(sources))
	byName := make(map[string][]*neo.Target, len(sources))
	now := time.Now().UTC()
	for range sources {
		res := <-ch
		st := SourceStatus{Name: res.name, Count: len(res.ts), FetchedAt: now}
		if res.err != nil {
			st.Error = res.err.Error()
			log.Printf("[refresh] %s failed: %v", res.name, res.err)
		}
		status[res.name] = st
		byName[res.name] = res.ts
	}

	primary := byName[r.Primary.Name()]
	if st := status[r.Primary.Name()]; st.Error != "" {
		log.Printf("[refresh] keeping previous snapshot, primary feed down")
		return
	}

	for _, src := range r.Enrichment {
		if ts := byName[src.Name()]; len(ts) > 0 {
			primary = feed.CrossReference(primary, ts)
		}
	}

	r.enrichArcs(ctx, primary)

	r.Store.Set(&Snapshot{
		Targets:   primary,
		FetchedAt: now,
		Sources:   status,
	})
	log.Printf("[refresh] snapshot published, %d candidates", len(primary))
}

// enrichArcs pulls per-object observations for the first ObsArcTop
// candidates, in feed order.  Observation lookups are one HTTP round trip
// each, so the bound keeps refresh time predictable.
func (r *Refresher) enrichArcs(ctx context.Context, ts []*neo.Target) {
	if r.ObsArc == nil || r.ObsArcTop <= 0 {
		return
	}
	n := r.ObsArcTop
	if n > len(ts) {
		n = len(ts)
	}
	for _, t := range ts[:n] {
		if ctx.Err() != nil {
			return
		}
		r.ObsArc.Enrich(ctx, t)
	}
}
