// Public domain.

// Package feed polls the public NEO alert services and normalizes their
// records into the common target schema.
//
// Every adapter satisfies Source.  Adapters handle network and parse
// problems by logging and returning what they could salvage; a feed outage
// never propagates past this package as anything worse than an empty list.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"neotonight/internal/neo"
)

// Source is one alert feed.  Fetch returns normalized targets; an error
// means the whole poll failed and the previous snapshot should stand.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*neo.Target, error)
}

// CrossReference merges enrichment feeds into a base list by designation.
// The base target keeps any field it already has; Sentry-style feeds are
// additionally matched with spaces stripped, since designation formatting
// differs between services.
func CrossReference(base []*neo.Target, enrichment []*neo.Target) []*neo.Target {
	byDesig := make(map[string]*neo.Target, len(enrichment)*2)
	for _, e := range enrichment {
		byDesig[e.Designation] = e
		byDesig[strings.ReplaceAll(e.Designation, " ", "")] = e
	}
	for _, t := range base {
		m := byDesig[t.Designation]
		if m == nil {
			m = byDesig[strings.ReplaceAll(t.Designation, " ", "")]
		}
		if m != nil {
			t.Merge(m)
		}
	}
	return base
}

// getJSON fetches a URL and decodes the body into out.
func getJSON(ctx context.Context, c *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: status %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// numField coerces a JSON field that may arrive as a number or a numeric
// string.  The JPL APIs are inconsistent about this from field to field.
func numField(entry map[string]any, key string) *float64 {
	v, ok := entry[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return neo.Float(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return neo.Float(f)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return neo.Float(f)
	}
	return nil
}

func strField(entry map[string]any, key string) string {
	if s, ok := entry[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
