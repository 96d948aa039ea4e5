// Public domain.

package planner

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/soniakeys/exit"

	"neotonight/internal/chart"
	"neotonight/internal/ephem"
	"neotonight/internal/feed"
)

const versionString = "neotonight version 0.1 Go source."

// Main wires the service together and serves until killed.
func Main() {
	defer exit.Handler()

	fPort := flag.String("p", "", "listen port, overrides PORT")
	fVersion := flag.Bool("v", false, "display version and exit")
	flag.Parse()
	if *fVersion {
		fmt.Println(versionString)
		os.Exit(0)
	}

	cfg := LoadConfig()
	if *fPort != "" {
		cfg.Port = *fPort
	}
	ocd := cfg.LoadObscodes()
	if ocd == nil {
		log.Printf("[planner] running without observatory codes")
	}

	neocp := feed.NewNEOCP()
	neocp.URL = cfg.NEOCPURL
	scout := feed.NewScout()
	scout.URL = cfg.ScoutURL
	sentry := feed.NewSentry()
	sentry.URL = cfg.SentryURL

	store := &Store{}
	refresher := &Refresher{
		Primary:    neocp,
		Enrichment: []feed.Source{scout, sentry},
		Store:      store,
	}
	if ocd != nil {
		refresher.ObsArc = feed.NewObsArc(ocd)
		refresher.ObsArcTop = cfg.ObsArcTop
	}

	ctx := context.Background()
	go refresher.Refresh(ctx)

	cr := cron.New()
	if _, err := cr.AddFunc(fmt.Sprintf("@every %ds", cfg.PollSeconds),
		func() { refresher.Refresh(ctx) }); err != nil {
		exit.Log(err)
	}
	cr.Start()
	log.Printf("[planner] polling feeds every %ds", cfg.PollSeconds)

	srv := &Server{
		Store: store,
		Ephem: ephem.New(),
		Chart: chart.New(),
		Scout: scout,
		Ocd:   ocd,
		Site:  cfg.Site,
	}
	log.Printf("[planner] site %s, listening on :%s", cfg.Site.Name, cfg.Port)
	if err := srv.Routes().Run(":" + cfg.Port); err != nil {
		exit.Log(err)
	}
}
