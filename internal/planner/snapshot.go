// Public domain.

// Package planner is the service shell: it owns the in-memory snapshot of
// fetched candidates, schedules feed refreshes, runs the per-request
// planning pipeline, and serves the HTTP API.
package planner

import (
	"sync"
	"time"

	"neotonight/internal/neo"
)

// SourceStatus records the outcome of one feed's last poll.
type SourceStatus struct {
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Snapshot is one complete, immutable refresh result.  Requests read from
// whichever snapshot is current when they start; a refresh replaces the
// snapshot wholesale, never edits it.
type Snapshot struct {
	Targets   []*neo.Target
	Version   int64
	FetchedAt time.Time
	Sources   map[string]SourceStatus
}

// Store holds the current snapshot behind a lock.  Readers get the
// snapshot pointer; they must clone targets before mutating them.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// Get returns the current snapshot, nil before the first refresh.
func (s *Store) Get() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Set swaps in a new snapshot, assigning the next version number.
func (s *Store) Set(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		snap.Version = s.snap.Version + 1
	} else {
		snap.Version = 1
	}
	s.snap = snap
}
