// Public domain.

package feed

import (
	"context"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/lmfit"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/mpcformat"
	"github.com/soniakeys/observation"

	"neotonight/internal/neo"
)

// ObsArcURL is the MPC per-object observation lookup.  The %s is the
// temporary designation; the response body is MPC 80 column lines.
const ObsArcURL = "https://www.minorplanetcenter.net/cgi-bin/showobsorbs.cgi?Obj=%s&obs=y"

// ObsArc recomputes a candidate's orbit-quality numbers from its actual
// published observations.  The NEOCP summary already carries NObs and arc
// length, but they lag; reading the 80 column observation file gives exact
// values plus a great-circle fit RMS and sky-motion rate.
type ObsArc struct {
	URL    string // with one %s verb for the designation
	Client *http.Client
	Ocd    observation.ParallaxMap
}

// NewObsArc returns an adapter using the standard MPC URL.  ocd is a parsed
// obscode.dat map; observations from unknown stations fail to parse and are
// skipped by the splitter.
func NewObsArc(ocd observation.ParallaxMap) *ObsArc {
	return &ObsArc{URL: ObsArcURL, Client: httpClient(30 * time.Second), Ocd: ocd}
}

// Enrich fetches and parses the target's observations, updating NObs,
// ArcDays, NotSeenDays, FitRMSArcsec and the motion fields in place.
// Strictly best effort: on any failure the target is left untouched.
func (o *ObsArc) Enrich(ctx context.Context, t *neo.Target) {
	u := strings.Replace(o.URL, "%s", url.QueryEscape(t.Designation), 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		log.Printf("[obsarc] %s: %v", t.Designation, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[obsarc] %s: status %s", t.Designation, resp.Status)
		return
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return
	}
	arc, ok := o.parse(string(body))
	if !ok {
		return
	}
	o.annotate(t, arc)
}

// parse splits 80 column text into arcs and returns the one with the most
// observations (the lookup should return a single object anyway).
func (o *ObsArc) parse(body string) (*observation.Arc, bool) {
	var best *observation.Arc
	for next := mpcformat.ArcSplitter(strings.NewReader(body), o.Ocd); ; {
		a, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// parse errors on single lines are not interesting
			continue
		}
		if len(a.Obs) == 0 {
			continue
		}
		if best == nil || len(a.Obs) > len(best.Obs) {
			best = &observation.Arc{
				Desig: a.Desig,
				Obs:   append([]observation.VObs{}, a.Obs...),
			}
		}
	}
	return best, best != nil
}

func (o *ObsArc) annotate(t *neo.Target, arc *observation.Arc) {
	first := arc.Obs[0].Meas()
	last := arc.Obs[len(arc.Obs)-1].Meas()

	t.NObs = len(arc.Obs)
	t.ArcDays = last.MJD - first.MJD
	nowMJD := julian.TimeToJD(time.Now().UTC()) - 2400000.5
	if d := nowMJD - last.MJD; d >= 0 {
		t.NotSeenDays = d
	}

	// Sky motion from the arc endpoints.
	if dt := last.MJD - first.MJD; dt > 0 {
		sepDeg := measSepDeg(first, last)
		rate := sepDeg * 3600 / (dt * 1440) // arcsec per minute
		t.MotionRateArcsecMin = neo.Float(math.Round(rate*1000) / 1000)
		dra := (last.RA.Rad() - first.RA.Rad()) * math.Cos(first.Dec.Rad())
		ddec := last.Dec.Rad() - first.Dec.Rad()
		if dra != 0 || ddec != 0 {
			pa := math.Atan2(dra, ddec) * 180 / math.Pi
			pa = math.Mod(pa+360, 360)
			t.MotionPADeg = neo.Float(math.Round(pa*10) / 10)
		}
	}

	// Great circle fit residuals, as digest2 reports them.
	if len(arc.Obs) >= 3 {
		times := make([]float64, len(arc.Obs))
		s := make(coord.EquaS, len(arc.Obs))
		for i, ob := range arc.Obs {
			m := ob.Meas()
			times[i] = m.MJD
			s[i] = m.Equa
		}
		lmf := lmfit.New(times, s)
		rms := float64(lmf.Rms()) // radians
		t.FitRMSArcsec = neo.Float(math.Round(rms*180/math.Pi*3600*100) / 100)
	}
}

func measSepDeg(a, b *observation.VMeas) float64 {
	sa, ca := math.Sincos(a.Dec.Rad())
	sb, cb := math.Sincos(b.Dec.Rad())
	cd := sa*sb + ca*cb*math.Cos(b.RA.Rad()-a.RA.Rad())
	if cd > 1 {
		cd = 1
	} else if cd < -1 {
		cd = -1
	}
	return math.Acos(cd) * 180 / math.Pi
}
