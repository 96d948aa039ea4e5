// Public domain.

package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neotonight/internal/neo"
)

const neocpFixture = `[
  {"Temp_Desig": "P21abcd", "Score": 87, "R.A.": 312.44, "Decl.": -4.81,
   "V": 19.1, "H": 24.2, "NObs": 11, "Arc": 0.82, "Not_Seen_dys": 1.4},
  {"Temp_Desig": "C34UKE1", "Score": 12, "R.A.": 55.02, "Decl.": 31.2,
   "V": 20.6, "NObs": 4, "Arc": 0.1, "Not_Seen_dys": 0.3},
  {"Score": 50}
]`

func TestNEOCPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(neocpFixture))
		}))
	defer srv.Close()

	f := NewNEOCP()
	f.URL = srv.URL
	ts, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, ts, 2, "entry with no designation is skipped")

	p := ts[0]
	assert.Equal(t, "P21abcd", p.Designation)
	assert.Equal(t, "neocp", p.Source)
	assert.Equal(t, 312.44, *p.RADeg)
	assert.Equal(t, -4.81, *p.DecDeg)
	assert.Equal(t, 19.1, *p.MagV)
	assert.Equal(t, 24.2, *p.MagH)
	assert.Equal(t, 87., *p.NEOScore)
	assert.Equal(t, 11, p.NObs)
	assert.Equal(t, .82, p.ArcDays)
	assert.Equal(t, 1.4, p.NotSeenDays)

	require.NotNil(t, p.Raw, "source record carried for traceability")
	assert.Equal(t, "P21abcd", p.Raw["Temp_Desig"])
	assert.Equal(t, 87., p.Raw["Score"])

	assert.Nil(t, ts[1].MagH, "absent field stays nil")
}

func TestNEOCPFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
	defer srv.Close()

	f := NewNEOCP()
	f.URL = srv.URL
	_, err := f.Fetch(context.Background())
	assert.Error(t, err)
}

// Scout mixes numbers and numeric strings between fields and reports RA
// as sexagesimal; both must normalize.
const scoutFixture = `{"count": "2", "data": [
  {"objectName": "P21abcd", "neoScore": 95, "phaScore": "40",
   "ra": "20:49", "dec": "-4.8", "Vmag": "19.0", "H": 24.1,
   "nObs": "12", "arc": "0.85"},
  {"objectName": "C34UKE1", "neoScore": "13", "ra": 55.1, "dec": 31.3}
]}`

func TestScoutFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(scoutFixture))
		}))
	defer srv.Close()

	f := NewScout()
	f.URL = srv.URL
	ts, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, ts, 2)

	p := ts[0]
	assert.Equal(t, "scout", p.Source)
	assert.Equal(t, 95., *p.NEOScore)
	assert.Equal(t, 40., *p.PHAScore, "numeric string coerces")
	assert.InDelta(t, (20+49./60)*15, *p.RADeg, 1e-9, "HH:MM to degrees")
	assert.Equal(t, -4.8, *p.DecDeg)
	assert.Equal(t, 12, p.NObs)

	assert.Equal(t, 55.1, *ts[1].RADeg, "numeric RA passes through")
}

func TestScoutRA(t *testing.T) {
	require.NotNil(t, scoutRA("12:30"))
	assert.InDelta(t, 187.5, *scoutRA("12:30"), 1e-9)
	assert.InDelta(t, 200.25, *scoutRA(200.25), 1e-9)
	assert.InDelta(t, 42, *scoutRA("42"), 1e-9)
	assert.Nil(t, scoutRA("garbage"))
	assert.Nil(t, scoutRA(nil))
}

const sentryFixture = `{"data": [
  {"des": "2023 VD7", "ip": "1.2e-5", "h": "26.4", "ps_cum": "-4.2"},
  {"des": "29075 (1950 DA)", "ip": 3.8e-4, "h": 17.9}
]}`

func TestSentryFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sentryFixture))
		}))
	defer srv.Close()

	f := NewSentry()
	f.URL = srv.URL
	ts, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, ts, 2)

	assert.Equal(t, "2023 VD7", ts[0].Designation)
	assert.Equal(t, "sentry", ts[0].Source)
	assert.InDelta(t, 1.2e-5, *ts[0].ImpactProb, 1e-12)
	assert.Equal(t, 26.4, *ts[0].MagH)
	assert.Nil(t, ts[0].RADeg, "sentry has no sky positions")
}

func TestCrossReference(t *testing.T) {
	base := []*neo.Target{
		{Designation: "P21abcd", Source: "neocp", MagV: neo.Float(19.1)},
		{Designation: "2023 VD7", Source: "neocp"},
		{Designation: "LONER", Source: "neocp"},
	}
	scout := []*neo.Target{
		{Designation: "P21abcd", Source: "scout",
			NEOScore: neo.Float(95), PHAScore: neo.Float(40)},
	}
	sentry := []*neo.Target{
		// same object, designation formatted without the space
		{Designation: "2023VD7", Source: "sentry", ImpactProb: neo.Float(1e-5)},
	}

	out := CrossReference(base, scout)
	out = CrossReference(out, sentry)
	require.Len(t, out, 3)

	require.NotNil(t, out[0].NEOScore)
	assert.Equal(t, 95., *out[0].NEOScore)
	assert.Equal(t, 19.1, *out[0].MagV, "base field survives the merge")

	require.NotNil(t, out[1].ImpactProb, "space-insensitive match")
	assert.InDelta(t, 1e-5, *out[1].ImpactProb, 1e-12)

	assert.Nil(t, out[2].NEOScore, "unmatched target untouched")
}

func TestNumField(t *testing.T) {
	e := map[string]any{
		"num":  12.5,
		"str":  " 7.25 ",
		"bad":  "x",
		"null": nil,
	}
	assert.Equal(t, 12.5, *numField(e, "num"))
	assert.Equal(t, 7.25, *numField(e, "str"))
	assert.Nil(t, numField(e, "bad"))
	assert.Nil(t, numField(e, "null"))
	assert.Nil(t, numField(e, "missing"))
}
