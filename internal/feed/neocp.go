// Public domain.

package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"time"

	"neotonight/internal/neo"
)

// NEOCPURL is the Minor Planet Center's NEO Confirmation Page JSON feed,
// a live list of unconfirmed candidates needing follow-up.  No auth.
const NEOCPURL = "https://www.minorplanetcenter.net/Extended_Files/neocp.json"

// NEOCP polls the MPC NEO Confirmation Page.  It is the primary feed:
// every other source only enriches what NEOCP reports.
type NEOCP struct {
	URL    string
	Client *http.Client
}

// NewNEOCP returns a NEOCP adapter with the standard URL and timeout.
func NewNEOCP() *NEOCP {
	return &NEOCP{URL: NEOCPURL, Client: httpClient(30 * time.Second)}
}

func (*NEOCP) Name() string { return "neocp" }

// neocpEntry mirrors one neocp.json record.  Pointer fields distinguish
// absent values from zeros.
type neocpEntry struct {
	TempDesig   string   `json:"Temp_Desig"`
	Score       *float64 `json:"Score"`
	RA          *float64 `json:"R.A."`  // degrees
	Decl        *float64 `json:"Decl."` // degrees
	V           *float64 `json:"V"`
	H           *float64 `json:"H"`
	NObs        *int     `json:"NObs"`
	Arc         *float64 `json:"Arc"`
	NotSeenDays *float64 `json:"Not_Seen_dys"`
}

// Fetch polls the feed and normalizes each candidate.  Entries that fail
// to normalize are skipped with a log line, not fatal.
func (s *NEOCP) Fetch(ctx context.Context) ([]*neo.Target, error) {
	var records []json.RawMessage
	if err := getJSON(ctx, s.Client, s.URL, &records); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	ts := make([]*neo.Target, 0, len(records))
	for _, rec := range records {
		var e neocpEntry
		if err := json.Unmarshal(rec, &e); err != nil {
			log.Printf("[neocp] skipping malformed entry: %v", err)
			continue
		}
		if e.TempDesig == "" {
			log.Printf("[neocp] skipping entry with no designation")
			continue
		}
		var raw map[string]any
		json.Unmarshal(rec, &raw)
		ts = append(ts, s.normalize(e, raw, now))
	}
	return ts, nil
}

func (s *NEOCP) normalize(e neocpEntry, raw map[string]any, now time.Time) *neo.Target {
	t := &neo.Target{
		Designation: e.TempDesig,
		Source:      "neocp",
		SourceURL: "https://www.minorplanetcenter.net/db_search/show_object?object_id=" +
			url.QueryEscape(e.TempDesig),
		RADeg:     e.RA,
		DecDeg:    e.Decl,
		Epoch:     &now,
		MagV:      e.V,
		MagH:      e.H,
		NEOScore:  e.Score,
		UpdatedAt: &now,
		Raw:       raw,
	}
	if e.NObs != nil {
		t.NObs = *e.NObs
	}
	t.ArcDays = orZero(e.Arc)
	t.NotSeenDays = orZero(e.NotSeenDays)
	return t
}
