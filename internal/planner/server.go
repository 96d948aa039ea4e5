// Public domain.

package planner

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soniakeys/observation"

	"neotonight/internal/chart"
	"neotonight/internal/ephem"
	"neotonight/internal/export"
	"neotonight/internal/feed"
	"neotonight/internal/neo"
	"neotonight/internal/site"
)

// Server is the HTTP surface over the store and the planning pipeline.
type Server struct {
	Store *Store
	Ephem *ephem.Client
	Chart *chart.Generator
	Scout *feed.Scout // per-object detail lookups
	Ocd   observation.ParallaxMap
	Site  *site.Profile // default profile for requests without one
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.Default()
	r.Use(cors)

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/targets/tonight", s.handleTonight)
	api.GET("/targets/all", s.handleAll)
	api.GET("/targets/export", s.handleExport)
	api.GET("/targets/:desig", s.handleTarget)
	api.GET("/targets/:desig/finder", s.handleFinder)
	api.GET("/sources", s.handleSources)
	api.GET("/sources/:name", s.handleSource)
	return r
}

// cors opens the API to browser front ends.  The service is read-only, so a
// permissive policy is safe.
func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "neotonight",
		"endpoints": []string{
			"/health",
			"/api/targets/tonight",
			"/api/targets/all",
			"/api/targets/export",
			"/api/targets/:desig",
			"/api/targets/:desig/finder",
			"/api/sources",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.Store.Get()
	h := gin.H{"status": "ok", "ready": snap != nil}
	if snap != nil {
		h["snapshot_version"] = snap.Version
		h["fetched_at"] = snap.FetchedAt
		h["candidates"] = len(snap.Targets)
	}
	c.JSON(http.StatusOK, h)
}

// snapshot returns the current snapshot or replies 503.  An empty target
// list in a published snapshot is a valid answer; only a service that has
// never completed a refresh is unavailable.
func (s *Server) snapshot(c *gin.Context) (*Snapshot, bool) {
	snap := s.Store.Get()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no snapshot yet, feeds have not been polled",
		})
		return nil, false
	}
	return snap, true
}

func (s *Server) handleTonight(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	p, err := s.profileFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	night, err := nightFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := intQuery(c, "limit", 20)

	ts := Plan(c.Request.Context(), snap, p, night, limit, s.Ephem)
	c.JSON(http.StatusOK, gin.H{
		"site":             p,
		"night":            night.UTC().Format("2006-01-02"),
		"snapshot_version": snap.Version,
		"fetched_at":       snap.FetchedAt,
		"count":            len(ts),
		"targets":          ts,
	})
}

func (s *Server) handleAll(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_version": snap.Version,
		"fetched_at":       snap.FetchedAt,
		"count":            len(snap.Targets),
		"targets":          snap.Targets,
	})
}

func (s *Server) handleExport(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", export.FormatJSON)
	if export.ContentType(format) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format " + format})
		return
	}
	p, err := s.profileFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	night, err := nightFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := intQuery(c, "limit", 20)

	ts := Plan(c.Request.Context(), snap, p, night, limit, s.Ephem)
	out, err := export.Marshal(format, ts, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="targets.`+fileExt(format)+`"`)
	c.Data(http.StatusOK, export.ContentType(format), out)
}

func fileExt(format string) string {
	switch format {
	case export.FormatMPC80:
		return "txt"
	case export.FormatADESPSV:
		return "psv"
	case export.FormatADESXML:
		return "xml"
	}
	return format
}

func (s *Server) handleTarget(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	desig := c.Param("desig")
	t := findTarget(snap.Targets, desig)
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown designation " + desig})
		return
	}
	t = t.Clone()
	if s.Scout != nil && c.Query("detail") == "true" {
		if d := s.Scout.FetchDetail(c.Request.Context(), t.Designation); d != nil {
			t.Merge(d)
		}
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleFinder(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	desig := c.Param("desig")
	t := findTarget(snap.Targets, desig)
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown designation " + desig})
		return
	}
	ra, dec, ok := t.Position()
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": desig + " has no sky position",
		})
		return
	}
	p, err := s.profileFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	svg := s.Chart.Finder(c.Request.Context(), ra, dec, p.FOVArcmin, p.LimitingMag, t.Designation)
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}

func (s *Server) handleSources(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_version": snap.Version,
		"fetched_at":       snap.FetchedAt,
		"sources":          snap.Sources,
	})
}

func (s *Server) handleSource(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	name := c.Param("name")
	st, ok := snap.Sources[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown source " + name})
		return
	}
	c.JSON(http.StatusOK, st)
}

// findTarget matches a designation, also with spaces stripped, the same
// fuzziness the feed cross-reference uses.
func findTarget(ts []*neo.Target, desig string) *neo.Target {
	flat := strings.ReplaceAll(desig, " ", "")
	for _, t := range ts {
		if t.Designation == desig ||
			strings.ReplaceAll(t.Designation, " ", "") == flat {
			return t
		}
	}
	return nil
}

// profileFromQuery builds the request's site profile: the configured
// default, optionally replaced by an obscode lookup, then overridden field
// by field from query parameters, then validated.
func (s *Server) profileFromQuery(c *gin.Context) (*site.Profile, error) {
	p := cloneProfile(s.Site)

	if code := c.Query("obscode"); code != "" {
		fp, err := site.FromObscode(code, s.Ocd)
		if err != nil {
			return nil, err
		}
		// obscode resolves the location; optics stay with the default
		fp.ApertureM = p.ApertureM
		fp.LimitingMag = p.LimitingMag
		fp.FOVArcmin = p.FOVArcmin
		fp.Weights = p.Weights
		p = fp
	}

	var err error
	set := func(dst *float64, key string) {
		if err != nil {
			return
		}
		v := c.Query(key)
		if v == "" {
			return
		}
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			err = perr
			return
		}
		*dst = f
	}
	set(&p.Lat, "lat")
	set(&p.Lon, "lon")
	set(&p.AltM, "alt_m")
	set(&p.LimitingMag, "limiting_mag")
	set(&p.FOVArcmin, "fov_arcmin")
	set(&p.MinAltitudeDeg, "min_altitude_deg")
	set(&p.MaxSunAltDeg, "max_sun_alt_deg")
	set(&p.MinMoonSepDeg, "min_moon_sep_deg")
	if err != nil {
		return nil, err
	}

	for _, f := range site.Factors {
		v := c.Query("w_" + string(f))
		if v == "" {
			continue
		}
		w, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return nil, perr
		}
		p.Weights[f] = w
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func cloneProfile(p *site.Profile) *site.Profile {
	c := *p
	c.Weights = make(map[site.Factor]float64, len(p.Weights))
	for f, w := range p.Weights {
		c.Weights[f] = w
	}
	return &c
}

// nightFromQuery reads the date parameter, defaulting to now, meaning the
// night that starts today UTC.
func nightFromQuery(c *gin.Context) (time.Time, error) {
	v := c.Query("date")
	if v == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", v)
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
