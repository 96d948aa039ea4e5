// Public domain.

// Package chart renders SVG finder charts: the target position against
// nearby catalog stars, north up, east left.
//
// Star positions come from a VizieR cone search (UCAC4, falling back to
// Tycho-2 for bright fields).  Catalog failures degrade to an empty star
// field rather than an error; an operator can still use the crosshair and
// scale.
package chart

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// VizierURL is the CDS VizieR tab-separated-values query endpoint.
const VizierURL = "https://vizier.cds.unistra.fr/viz-bin/asu-tsv"

// Star is one catalog star on a chart.
type Star struct {
	RADeg  float64
	DecDeg float64
	Mag    float64
}

// Generator queries catalogs and renders charts, caching rendered SVG by
// field.  Charts depend only on position and field of view, so the cache
// never needs invalidation within a process lifetime.
type Generator struct {
	URL    string
	Client *http.Client

	mu    sync.Mutex
	cache map[string]string
}

func New() *Generator {
	return &Generator{
		URL:    VizierURL,
		Client: &http.Client{Timeout: 20 * time.Second},
		cache:  map[string]string{},
	}
}

// Finder returns an SVG finder chart centered on the given position.
func (g *Generator) Finder(ctx context.Context, raDeg, decDeg, fovArcmin, magLimit float64, designation string) string {
	key := fmt.Sprintf("%.4f_%.4f_%g_%g", raDeg, decDeg, fovArcmin, magLimit)
	g.mu.Lock()
	if svg, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return svg
	}
	g.mu.Unlock()

	stars := g.queryStars(ctx, raDeg, decDeg, fovArcmin/60/2, magLimit)
	svg := Render(raDeg, decDeg, fovArcmin, stars, 500, designation)

	g.mu.Lock()
	g.cache[key] = svg
	g.mu.Unlock()
	return svg
}

// queryStars cone-searches UCAC4 and falls back to Tycho-2.  Returns nil
// on failure; never errors.
func (g *Generator) queryStars(ctx context.Context, raDeg, decDeg, radiusDeg, magLimit float64) []Star {
	stars := g.queryCatalog(ctx, "I/322A/out", "RAJ2000", "DEJ2000", "Vmag",
		raDeg, decDeg, radiusDeg, magLimit)
	if len(stars) == 0 {
		stars = g.queryCatalog(ctx, "I/259/tyc2", "RAmdeg", "DEmdeg", "VTmag",
			raDeg, decDeg, radiusDeg, magLimit)
	}
	return stars
}

func (g *Generator) queryCatalog(ctx context.Context, catalog, raCol, decCol, magCol string,
	raDeg, decDeg, radiusDeg, magLimit float64) []Star {

	v := url.Values{}
	v.Set("-source", catalog)
	v.Set("-c", fmt.Sprintf("%f %f", raDeg, decDeg))
	v.Set("-c.rd", fmt.Sprintf("%f", radiusDeg))
	v.Set("-out", strings.Join([]string{raCol, decCol, magCol}, " "))
	v.Set("-out.max", "200")
	v.Set(magCol, "<"+strconv.FormatFloat(magLimit, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL+"?"+v.Encode(), nil)
	if err != nil {
		return nil
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		log.Printf("[chart] %s query failed: %v", catalog, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[chart] %s query status %s", catalog, resp.Status)
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}
	return parseTSV(string(body))
}

// parseTSV reads VizieR's TSV output: comment lines start with '#',
// then column headers, dash underlines, then data rows of
// ra <tab> dec <tab> mag.
func parseTSV(body string) []Star {
	var stars []Star
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 3 {
			continue
		}
		ra, err1 := strconv.ParseFloat(strings.TrimSpace(f[0]), 64)
		dec, err2 := strconv.ParseFloat(strings.TrimSpace(f[1]), 64)
		mag, err3 := strconv.ParseFloat(strings.TrimSpace(f[2]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue // header row or blank magnitude
		}
		stars = append(stars, Star{RADeg: ra, DecDeg: dec, Mag: mag})
	}
	return stars
}

// Render draws the chart.  Astronomical convention: north up, east left.
func Render(targetRA, targetDec, fovArcmin float64, stars []Star, size int, designation string) string {
	const margin = 40
	plot := float64(size - 2*margin)
	fovDeg := fovArcmin / 60
	scale := plot / fovDeg // pixels per degree
	cx, cy := float64(size)/2, float64(size)/2
	r := plot / 2

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		size, size, size, size)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#0a0e1a"/>`+"\n", size, size)
	fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="none" stroke="#334155" stroke-width="1" stroke-dasharray="4,4"/>`+"\n",
		cx, cy, r)

	// cardinal directions
	label := func(x, y float64, s string) {
		fmt.Fprintf(&b, `<text x="%g" y="%g" fill="#64748b" text-anchor="middle" font-size="12" font-family="monospace">%s</text>`+"\n",
			x, y, s)
	}
	label(cx, margin-10, "N")
	label(cx, float64(size)-margin+18, "S")
	label(margin-15, cy+4, "E")
	label(float64(size)-margin+15, cy+4, "W")

	// center crosshair grid
	fmt.Fprintf(&b, `<line x1="%g" y1="%d" x2="%g" y2="%d" stroke="#1e293b" stroke-width="0.5"/>`+"\n",
		cx, margin, cx, size-margin)
	fmt.Fprintf(&b, `<line x1="%d" y1="%g" x2="%d" y2="%g" stroke="#1e293b" stroke-width="0.5"/>`+"\n",
		margin, cy, size-margin, cy)

	cosDec := math.Cos(targetDec * math.Pi / 180)
	shown := 0
	for _, s := range stars {
		dx := -(s.RADeg - targetRA) * cosDec * scale // east is left
		dy := -(s.DecDeg - targetDec) * scale        // north is up
		sx, sy := cx+dx, cy+dy
		if dx*dx+dy*dy > r*r {
			continue
		}
		shown++
		sr := math.Max(1, math.Min(6, (14-s.Mag)*.8))
		op := math.Max(.3, math.Min(1, (14-s.Mag)/10))
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="white" opacity="%.2f"/>`+"\n",
			sx, sy, sr, op)
	}

	// target marker
	const mk = 12.0
	cross := func(x1, y1, x2, y2 float64) {
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="#38bdf8" stroke-width="2"/>`+"\n",
			x1, y1, x2, y2)
	}
	cross(cx-mk, cy, cx-4, cy)
	cross(cx+4, cy, cx+mk, cy)
	cross(cx, cy-mk, cx, cy-4)
	cross(cx, cy+4, cx, cy+mk)

	name := designation
	if name == "" {
		name = "Target"
	}
	fmt.Fprintf(&b, `<text x="%g" y="%g" fill="#38bdf8" font-size="11" font-family="monospace">%s</text>`+"\n",
		cx+mk+4, cy-4, name)
	fmt.Fprintf(&b, `<text x="%d" y="%d" fill="#475569" text-anchor="end" font-size="10" font-family="monospace">FOV: %.0f'</text>`+"\n",
		size-margin, size-8, fovArcmin)
	fmt.Fprintf(&b, `<text x="%d" y="%d" fill="#475569" font-size="10" font-family="monospace">%d stars</text>`+"\n",
		margin, size-8, shown)
	b.WriteString("</svg>")
	return b.String()
}
