// Public domain.

package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soniakeys/observation"
	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neotonight/internal/neo"
)

// Three CCD observations of one object from station 291, 80 columns each.
const obs80Fixture = "" +
	"     NE00030  C2004 09 16.15206 16 13 11.57 +20 52 23.7          21.1 Vd     291\n" +
	"     NE00030  C2004 09 16.15621 16 13 11.34 +20 52 16.8          20.8 Vd     291\n" +
	"     NE00030  C2004 09 16.16017 16 13 11.13 +20 52 09.6          20.7 Vd     291\n"

const testEarthRadiusAU = 6.37814e6 / 149.59787e9

func testOcd() observation.ParallaxMap {
	// station 291, LPL/Spacewatch II
	return observation.ParallaxMap{
		"291": &observation.ParallaxConst{
			Longitude: unit.AngleFromDeg(248.3),
			RhoCosPhi: .84951 * testEarthRadiusAU,
			RhoSinPhi: .52572 * testEarthRadiusAU,
		},
	}
}

func TestObsArcEnrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.RawQuery, "Obj=NE00030")
			w.Write([]byte(obs80Fixture))
		}))
	defer srv.Close()

	o := NewObsArc(testOcd())
	o.URL = srv.URL + "?Obj=%s&obs=y"
	tgt := &neo.Target{Designation: "NE00030"}
	o.Enrich(context.Background(), tgt)

	assert.Equal(t, 3, tgt.NObs)
	assert.InDelta(t, .00811, tgt.ArcDays, 1e-5)
	assert.Greater(t, tgt.NotSeenDays, 1000., "2004 arc is long stale")

	// ~15 arcsec of motion over ~12 minutes, heading south-west
	require.NotNil(t, tgt.MotionRateArcsecMin)
	assert.Greater(t, *tgt.MotionRateArcsecMin, .5)
	assert.Less(t, *tgt.MotionRateArcsecMin, 5.)
	require.NotNil(t, tgt.MotionPADeg)
	assert.Greater(t, *tgt.MotionPADeg, 180.)
	assert.Less(t, *tgt.MotionPADeg, 270.)

	// three nearly collinear points fit a great circle tightly
	require.NotNil(t, tgt.FitRMSArcsec)
	assert.GreaterOrEqual(t, *tgt.FitRMSArcsec, 0.)
	assert.Less(t, *tgt.FitRMSArcsec, 10.)
}

func TestObsArcEnrichFailureLeavesTargetAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
	defer srv.Close()

	o := NewObsArc(testOcd())
	o.URL = srv.URL + "?Obj=%s&obs=y"
	tgt := &neo.Target{Designation: "NE00030", NObs: 4, ArcDays: .1}
	o.Enrich(context.Background(), tgt)

	assert.Equal(t, 4, tgt.NObs)
	assert.Equal(t, .1, tgt.ArcDays)
	assert.Nil(t, tgt.FitRMSArcsec)
}

func TestMeasSepDeg(t *testing.T) {
	m := func(raDeg, decDeg float64) *observation.VMeas {
		v := &observation.VMeas{}
		v.RA = unit.RAFromDeg(raDeg)
		v.Dec = unit.AngleFromDeg(decDeg)
		return v
	}
	assert.InDelta(t, 0, measSepDeg(m(243, 20), m(243, 20)), 1e-12)
	assert.InDelta(t, 1, measSepDeg(m(243, 20), m(243, 21)), 1e-9)
	assert.InDelta(t, .01, measSepDeg(m(10, 0), m(10.01, 0)), 1e-6)
}
