// Public domain.

package feed

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"neotonight/internal/neo"
)

// ScoutURL is JPL's Scout hazard-assessment API for NEOCP objects.
const ScoutURL = "https://ssd-api.jpl.nasa.gov/scout.api"

// Scout polls JPL Scout, which evaluates NEOCP candidates and assigns
// neoScore (0-100, chance of being a real NEO) and phaScore (0-100,
// potentially hazardous asteroid score).
type Scout struct {
	URL    string
	Client *http.Client
}

func NewScout() *Scout {
	return &Scout{URL: ScoutURL, Client: httpClient(30 * time.Second)}
}

func (*Scout) Name() string { return "scout" }

type scoutResponse struct {
	Data []map[string]any `json:"data"`
}

// Fetch polls the summary endpoint.  Scout mixes numbers and numeric
// strings field by field, so entries decode as generic maps.
func (s *Scout) Fetch(ctx context.Context) ([]*neo.Target, error) {
	var resp scoutResponse
	if err := getJSON(ctx, s.Client, s.URL, &resp); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	ts := make([]*neo.Target, 0, len(resp.Data))
	for _, e := range resp.Data {
		t := s.normalize(e, now)
		if t.Designation == "" {
			log.Printf("[scout] skipping entry with no objectName")
			continue
		}
		ts = append(ts, t)
	}
	return ts, nil
}

// FetchDetail fetches Scout data for a single object by temporary
// designation.  Returns nil on any failure; detail is strictly best effort.
func (s *Scout) FetchDetail(ctx context.Context, designation string) *neo.Target {
	var entry map[string]any
	u := s.URL + "?tdes=" + url.QueryEscape(designation)
	if err := getJSON(ctx, s.Client, u, &entry); err != nil {
		log.Printf("[scout] detail %s: %v", designation, err)
		return nil
	}
	t := s.normalize(entry, time.Now().UTC())
	if t.Designation == "" {
		return nil
	}
	return t
}

func (s *Scout) normalize(e map[string]any, now time.Time) *neo.Target {
	desig := strField(e, "objectName")
	t := &neo.Target{
		Designation: desig,
		Source:      "scout",
		SourceURL:   "https://cneos.jpl.nasa.gov/scout/#/object/" + url.QueryEscape(desig),
		RADeg:       scoutRA(e["ra"]),
		DecDeg:      numField(e, "dec"),
		Epoch:       &now,
		MagV:        numField(e, "Vmag"),
		MagH:        numField(e, "H"),
		NEOScore:    numField(e, "neoScore"),
		PHAScore:    numField(e, "phaScore"),
		UpdatedAt:   &now,
		Raw:         e,
	}
	t.NObs = int(orZero(numField(e, "nObs")))
	t.ArcDays = orZero(numField(e, "arc"))
	return t
}

// scoutRA parses the summary endpoint's right ascension, which arrives as
// an "HH:MM" sexagesimal string rather than degrees.
func scoutRA(v any) *float64 {
	switch ra := v.(type) {
	case float64:
		return neo.Float(ra)
	case string:
		if !strings.Contains(ra, ":") {
			f, err := strconv.ParseFloat(strings.TrimSpace(ra), 64)
			if err != nil {
				return nil
			}
			return neo.Float(f)
		}
		parts := strings.Split(ra, ":")
		if len(parts) < 2 {
			return nil
		}
		h, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		m, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return nil
		}
		return neo.Float((h + m/60) * 15)
	}
	return nil
}
