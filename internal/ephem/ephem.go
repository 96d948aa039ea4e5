// Public domain.

// Package ephem refines candidate positions through the JPL Horizons API.
//
// Refinement happens after ranking, on the truncated list only, and is
// strictly best effort: Horizons often does not know very fresh NEOCP
// designations yet, and a failed query must leave the target exactly as
// the ranking produced it.
package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"neotonight/internal/neo"
	"neotonight/internal/site"
)

// HorizonsURL is the JPL Horizons file-less API endpoint.
const HorizonsURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

// Client queries Horizons for topocentric ephemerides.
type Client struct {
	URL    string
	Client *http.Client
}

func New() *Client {
	return &Client{URL: HorizonsURL, Client: &http.Client{Timeout: 30 * time.Second}}
}

// RefineAll refines each target in order.  Rank order is never altered.
func (c *Client) RefineAll(ctx context.Context, ts []*neo.Target, p *site.Profile) {
	for _, t := range ts {
		c.Refine(ctx, t, p)
	}
}

// Refine queries Horizons for the target's predicted position, magnitude
// and sky motion at its transit time (or observable-window midpoint) and
// sets the Predicted* fields.  Any failure is logged and leaves the
// target untouched.
func (c *Client) Refine(ctx context.Context, t *neo.Target, p *site.Profile) {
	qt, ok := queryTime(t)
	if !ok {
		return
	}
	body, err := c.query(ctx, t.Designation, p, qt)
	if err != nil {
		// common: designation not yet in the Horizons database
		log.Printf("[ephem] %s: %v", t.Designation, err)
		return
	}
	row, err := parseEphemeris(body)
	if err != nil {
		log.Printf("[ephem] %s: %v", t.Designation, err)
		return
	}

	t.PredictedRADeg = neo.Float(row.ra)
	t.PredictedDecDeg = neo.Float(row.dec)
	t.PredictedEpoch = &qt
	totalRate := math.Hypot(row.dRA, row.dDec) // arcsec/hr
	t.MotionRateArcsecMin = neo.Float(math.Round(totalRate/60*1000) / 1000)
	if totalRate > 0 {
		pa := math.Atan2(row.dRA, row.dDec) * 180 / math.Pi
		pa = math.Mod(pa+360, 360)
		t.MotionPADeg = neo.Float(math.Round(pa*10) / 10)
	}
	if !math.IsNaN(row.mag) {
		t.PredictedMag = neo.Float(math.Round(row.mag*100) / 100)
	}
}

// queryTime picks the moment to query for: the transit, else the midpoint
// of the observable window.
func queryTime(t *neo.Target) (time.Time, bool) {
	if t.TransitTime != nil {
		return *t.TransitTime, true
	}
	if t.ObsWindowStart != nil && t.ObsWindowEnd != nil {
		mid := t.ObsWindowStart.Add(t.ObsWindowEnd.Sub(*t.ObsWindowStart) / 2)
		return mid, true
	}
	return time.Time{}, false
}

func (c *Client) query(ctx context.Context, desig string, p *site.Profile, at time.Time) (string, error) {
	jd := julian.TimeToJD(at)
	v := url.Values{}
	v.Set("format", "json")
	v.Set("COMMAND", fmt.Sprintf("'DES=%s;'", desig))
	v.Set("EPHEM_TYPE", "OBSERVER")
	v.Set("CENTER", "'coord@399'")
	v.Set("COORD_TYPE", "GEODETIC")
	v.Set("SITE_COORD", fmt.Sprintf("'%f,%f,%f'", p.Lon, p.Lat, p.AltM/1000))
	v.Set("TLIST", fmt.Sprintf("'%f'", jd))
	v.Set("QUANTITIES", "'1,3,9'") // RA/Dec, rates, visual magnitude
	v.Set("ANG_FORMAT", "DEG")
	v.Set("CSV_FORMAT", "YES")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"?"+v.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("horizons status %s", resp.Status)
	}
	var out struct {
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("horizons: %s", out.Error)
	}
	return out.Result, nil
}

type ephemRow struct {
	ra, dec   float64
	dRA, dDec float64 // arcsec/hr
	mag       float64 // NaN if absent
}

// parseEphemeris extracts the single CSV data row between the $$SOE and
// $$EOE markers of a Horizons text result.
func parseEphemeris(result string) (ephemRow, error) {
	row := ephemRow{mag: math.NaN()}
	soe := strings.Index(result, "$$SOE")
	eoe := strings.Index(result, "$$EOE")
	if soe < 0 || eoe < 0 || eoe < soe {
		return row, fmt.Errorf("no ephemeris data in result")
	}
	block := strings.TrimSpace(result[soe+len("$$SOE") : eoe])
	line := block
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		line = block[:i]
	}
	// CSV columns: date, flags(2), RA, Dec, dRA*cosD, d(DEC)/dt, mag, sbrt
	fields := strings.Split(line, ",")
	if len(fields) < 7 {
		return row, fmt.Errorf("short ephemeris row %q", line)
	}
	var err error
	if row.ra, err = parseField(fields[3]); err != nil {
		return row, fmt.Errorf("bad RA %q", fields[3])
	}
	if row.dec, err = parseField(fields[4]); err != nil {
		return row, fmt.Errorf("bad Dec %q", fields[4])
	}
	row.dRA, _ = parseField(fields[5])
	row.dDec, _ = parseField(fields[6])
	if len(fields) > 7 {
		if m, err := parseField(fields[7]); err == nil {
			row.mag = m
		}
	}
	return row, nil
}

func parseField(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
