// Public domain.

package feed

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"neotonight/internal/neo"
)

// SentryURL is JPL's Sentry impact-monitoring API.
const SentryURL = "https://ssd-api.jpl.nasa.gov/sentry.api"

// Sentry polls JPL Sentry, which tracks the objects whose orbits pass
// close enough to Earth that a future impact cannot be ruled out.  Sentry
// contributes only the impact probability and absolute magnitude; its
// objects rarely have current sky positions of their own.
type Sentry struct {
	URL    string
	Client *http.Client
}

func NewSentry() *Sentry {
	return &Sentry{URL: SentryURL, Client: httpClient(30 * time.Second)}
}

func (*Sentry) Name() string { return "sentry" }

type sentryResponse struct {
	Data []map[string]any `json:"data"`
}

func (s *Sentry) Fetch(ctx context.Context) ([]*neo.Target, error) {
	var resp sentryResponse
	if err := getJSON(ctx, s.Client, s.URL, &resp); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	ts := make([]*neo.Target, 0, len(resp.Data))
	for _, e := range resp.Data {
		desig := strField(e, "des")
		if desig == "" {
			log.Printf("[sentry] skipping entry with no designation")
			continue
		}
		ts = append(ts, &neo.Target{
			Designation: desig,
			Source:      "sentry",
			SourceURL:   "https://cneos.jpl.nasa.gov/sentry/details.html#" + url.QueryEscape(desig),
			MagH:        numField(e, "h"),
			ImpactProb:  numField(e, "ip"),
			UpdatedAt:   &now,
			Raw:         e,
		})
	}
	log.Printf("[sentry] fetched %d objects with impact probability", len(ts))
	return ts, nil
}
