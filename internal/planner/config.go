// Public domain.

package planner

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/soniakeys/mpcformat"
	"github.com/soniakeys/observation"

	"neotonight/internal/feed"
	"neotonight/internal/site"
)

// Config collects the service settings read from the environment.
type Config struct {
	Port        string
	PollSeconds int
	ObscodeFile string // path to obscode.dat, fetched if missing
	ObsArcTop   int    // candidates to enrich with observation arcs

	NEOCPURL  string
	ScoutURL  string
	SentryURL string

	// Default site when a request supplies no location.
	Site *site.Profile
}

// LoadConfig reads .env if present, then the environment.  Every setting
// has a usable default; an empty environment yields a working service
// planning for the Wallace observatory.
func LoadConfig() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}
	cfg := &Config{
		Port:        envStr("PORT", "8080"),
		PollSeconds: envInt("POLL_SECONDS", 300),
		ObscodeFile: envStr("OBSCODE_FILE", "obscode.dat"),
		ObsArcTop:   envInt("OBSARC_TOP", 25),
		NEOCPURL:    envStr("NEOCP_URL", feed.NEOCPURL),
		ScoutURL:    envStr("SCOUT_URL", feed.ScoutURL),
		SentryURL:   envStr("SENTRY_URL", feed.SentryURL),
	}

	cfg.Site = site.Wallace()
	if lat, ok := envFloat("SITE_LAT"); ok {
		lon, _ := envFloat("SITE_LON")
		alt, _ := envFloat("SITE_ALT_M")
		cfg.Site = site.Default(lat, lon, alt)
		cfg.Site.Name = envStr("SITE_NAME", cfg.Site.Name)
	}
	if mag, ok := envFloat("SITE_LIMITING_MAG"); ok {
		cfg.Site.LimitingMag = mag
	}
	if err := cfg.Site.Validate(); err != nil {
		log.Printf("[config] bad site from environment, using Wallace: %v", err)
		cfg.Site = site.Wallace()
	}
	return cfg
}

// LoadObscodes parses the MPC observatory code file, downloading it first
// when the path does not exist.  Returns nil on failure; the service runs
// without station-code support in that case.
func (cfg *Config) LoadObscodes() observation.ParallaxMap {
	ocd, err := mpcformat.ReadObscodeDatFile(cfg.ObscodeFile)
	if err == nil {
		return ocd
	}
	log.Printf("[config] fetching %s", cfg.ObscodeFile)
	if err := mpcformat.FetchObscodeDat(cfg.ObscodeFile); err != nil {
		log.Printf("[config] obscode fetch failed: %v", err)
		return nil
	}
	ocd, err = mpcformat.ReadObscodeDatFile(cfg.ObscodeFile)
	if err != nil {
		log.Printf("[config] obscode parse failed: %v", err)
		return nil
	}
	return ocd
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, ignored", key, v)
		return 0, false
	}
	return f, true
}
