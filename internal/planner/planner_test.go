// Public domain.

package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neotonight/internal/chart"
	"neotonight/internal/feed"
	"neotonight/internal/neo"
	"neotonight/internal/site"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStoreVersions(t *testing.T) {
	s := &Store{}
	assert.Nil(t, s.Get())

	s.Set(&Snapshot{})
	assert.Equal(t, int64(1), s.Get().Version)
	s.Set(&Snapshot{})
	assert.Equal(t, int64(2), s.Get().Version)
}

// fakeSource is a canned feed for refresher tests.
type fakeSource struct {
	name string
	ts   []*neo.Target
	err  error
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Fetch(context.Context) ([]*neo.Target, error) {
	return f.ts, f.err
}

func TestRefreshPublishes(t *testing.T) {
	store := &Store{}
	r := &Refresher{
		Primary: &fakeSource{name: "neocp", ts: []*neo.Target{
			{Designation: "P21abcd", Source: "neocp"},
			{Designation: "C34UKE1", Source: "neocp"},
		}},
		Enrichment: []feed.Source{
			&fakeSource{name: "scout", ts: []*neo.Target{
				{Designation: "P21abcd", Source: "scout", NEOScore: neo.Float(95)},
			}},
			&fakeSource{name: "sentry", err: errors.New("api down")},
		},
		Store: store,
	}
	r.Refresh(context.Background())

	snap := store.Get()
	require.NotNil(t, snap)
	require.Len(t, snap.Targets, 2)
	require.NotNil(t, snap.Targets[0].NEOScore, "scout cross-referenced in")
	assert.Equal(t, 95., *snap.Targets[0].NEOScore)

	assert.Empty(t, snap.Sources["neocp"].Error)
	assert.Equal(t, "api down", snap.Sources["sentry"].Error,
		"failed enrichment feed is recorded, not fatal")
}

func TestRefreshPrimaryDownKeepsSnapshot(t *testing.T) {
	store := &Store{}
	store.Set(&Snapshot{Targets: []*neo.Target{{Designation: "OLD"}}})

	r := &Refresher{
		Primary: &fakeSource{name: "neocp", err: errors.New("mpc down")},
		Store:   store,
	}
	r.Refresh(context.Background())

	snap := store.Get()
	require.Len(t, snap.Targets, 1)
	assert.Equal(t, "OLD", snap.Targets[0].Designation)
	assert.Equal(t, int64(1), snap.Version, "no new snapshot published")
}

func testServer(snap *Snapshot) *Server {
	store := &Store{}
	if snap != nil {
		store.Set(snap)
	}
	return &Server{
		Store: store,
		Chart: chart.New(),
		Site:  site.Wallace(),
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	s.Routes().ServeHTTP(w, req)
	return w
}

// circumpolar target so the planning endpoints find something observable
// on any night
func observableSnapshot() *Snapshot {
	return &Snapshot{
		Targets: []*neo.Target{{
			Designation: "P21abcd",
			Source:      "neocp",
			RADeg:       neo.Float(37.95),
			DecDeg:      neo.Float(89.26),
			MagV:        neo.Float(18.5),
			NotSeenDays: 2,
		}},
		FetchedAt: time.Now().UTC(),
		Sources:   map[string]SourceStatus{"neocp": {Name: "neocp", Count: 1}},
	}
}

func TestNotReadyIs503(t *testing.T) {
	s := testServer(nil)
	for _, path := range []string{
		"/api/targets/tonight",
		"/api/targets/all",
		"/api/targets/export",
		"/api/targets/P21abcd",
		"/api/sources",
	} {
		w := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}

	// health reports not ready but stays 200
	w := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)
}

func TestEmptySnapshotIsNot503(t *testing.T) {
	s := testServer(&Snapshot{FetchedAt: time.Now().UTC()})
	w := get(t, s, "/api/targets/all")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestTonight(t *testing.T) {
	s := testServer(observableSnapshot())
	// open the moon gate so the test night's moon position cannot matter
	w := get(t, s, "/api/targets/tonight?min_moon_sep_deg=0&date=2026-01-15")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count   int           `json:"count"`
		Targets []*neo.Target `json:"targets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	tgt := resp.Targets[0]
	assert.Equal(t, "P21abcd", tgt.Designation)
	require.NotNil(t, tgt.Observable)
	assert.True(t, *tgt.Observable)
	assert.NotNil(t, tgt.PriorityScore)

	// planning must not mutate the shared snapshot
	orig := s.Store.Get().Targets[0]
	assert.Nil(t, orig.Observable)
	assert.Nil(t, orig.PriorityScore)
}

func TestTonightBadParams(t *testing.T) {
	s := testServer(observableSnapshot())
	for _, q := range []string{
		"lat=91",
		"lat=abc",
		"max_sun_alt_deg=10",
		"w_neo_score=-1",
		"date=Jan-15",
		"obscode=244", // no obscode map loaded
	} {
		w := get(t, s, "/api/targets/tonight?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestExportFormats(t *testing.T) {
	s := testServer(observableSnapshot())
	q := "&min_moon_sep_deg=0&date=2026-01-15"

	w := get(t, s, "/api/targets/export?format=mpc80"+q)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "P21abcd")

	w = get(t, s, "/api/targets/export?format=csv"+q)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "designation,source")

	w = get(t, s, "/api/targets/export?format=dat"+q)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTargetLookup(t *testing.T) {
	s := testServer(observableSnapshot())

	w := get(t, s, "/api/targets/P21abcd")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"designation":"P21abcd"`)

	w = get(t, s, "/api/targets/NOSUCH")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSourceLookup(t *testing.T) {
	s := testServer(observableSnapshot())

	w := get(t, s, "/api/sources/neocp")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"neocp"`)

	w = get(t, s, "/api/sources/nasa")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFindTargetFuzzy(t *testing.T) {
	ts := []*neo.Target{{Designation: "2023 VD7"}}
	assert.NotNil(t, findTarget(ts, "2023 VD7"))
	assert.NotNil(t, findTarget(ts, "2023VD7"))
	assert.Nil(t, findTarget(ts, "2023 VD8"))
}

func TestProfileFromQueryOverrides(t *testing.T) {
	s := testServer(observableSnapshot())
	w := get(t, s, "/api/targets/tonight?lat=33.4&lon=-111.6&limiting_mag=21"+
		"&w_impact_prob=5&min_moon_sep_deg=0&date=2026-01-15")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Site *site.Profile `json:"site"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 33.4, resp.Site.Lat)
	assert.Equal(t, 21., resp.Site.LimitingMag)
	assert.Equal(t, 5., resp.Site.Weights[site.FactorImpactProb])

	// the server's default profile is untouched by per-request overrides
	assert.Equal(t, 42.6138, s.Site.Lat)
	assert.Equal(t, 3., s.Site.Weights[site.FactorImpactProb])
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("POLL_SECONDS", "nope")
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 300, cfg.PollSeconds, "bad value falls back to default")
	assert.Equal(t, "244", cfg.Site.Code)
	assert.NoError(t, cfg.Site.Validate())
}
