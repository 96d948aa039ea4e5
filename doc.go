/*
Command neotonight plans a night of NEO follow-up observations for a single
telescope site.

Contents

  Program overview
  Running the service
  Configuration
  HTTP API
  Export formats
  Pipeline outline


Program overview

Newly discovered near-Earth object candidates sit on the Minor Planet
Center's NEO Confirmation Page until enough follow-up astrometry confirms
or retires them.  The window is short: a candidate unobserved for a few
nights is usually lost.  neotonight polls the public alert feeds, works out
which candidates a given telescope can actually observe tonight, ranks them
by urgency, and serves the result as a JSON API with finder charts and
observing-list exports.

Three feeds contribute.  The MPC NEO Confirmation Page is the candidate
list itself.  JPL Scout adds NEO likelihood and hazard scores for those
same candidates.  JPL Sentry adds long-term impact probabilities for the
already-designated objects it monitors.  Scout and Sentry records are
cross-referenced into the NEOCP list by designation.

Optionally the service also fetches each candidate's published 80 column
observations from the MPC, recomputing the observed arc length, days since
last observation, sky motion, and a great-circle fit RMS from the
astrometry itself.

Running the service

  neotonight [-p port] [-v]

-p overrides the listen port from the environment; -v prints the version
and exits.

On startup it reads .env and the environment, fetches obscode.dat from the
MPC if a local copy is not present, polls the feeds once, and then serves
HTTP, repolling on a fixed interval.  The first request arriving before the
first poll completes receives a 503.

Configuration

All settings come from the environment, with a .env file honored when
present.

  PORT               listen port, default 8080
  POLL_SECONDS       feed poll interval, default 300
  OBSCODE_FILE       path to obscode.dat, default ./obscode.dat
  OBSARC_TOP         candidates to enrich with MPC observations, default 25
  SITE_LAT           default site latitude, degrees north
  SITE_LON           default site longitude, degrees east
  SITE_ALT_M         default site altitude, metres
  SITE_NAME          default site name
  SITE_LIMITING_MAG  default limiting magnitude
  NEOCP_URL          override the NEOCP feed URL
  SCOUT_URL          override the Scout API URL
  SENTRY_URL         override the Sentry API URL

With no SITE_ variables the default site is the Wallace Astrophysical
Observatory, MPC code 244.

HTTP API

  GET /health
  GET /api/targets/tonight
  GET /api/targets/all
  GET /api/targets/export
  GET /api/targets/:desig
  GET /api/targets/:desig/finder
  GET /api/sources
  GET /api/sources/:name

Endpoints that plan accept site parameters as query values: lat, lon,
alt_m, limiting_mag, fov_arcmin, min_altitude_deg, max_sun_alt_deg,
min_moon_sep_deg, or obscode to resolve the location from an MPC station
code.  Scoring weights override as w_not_seen_days, w_arc_days_inv,
w_neo_score, w_pha_score, w_impact_prob, w_obs_window_hours and
w_brightness_margin.  date selects the night (YYYY-MM-DD, UTC) and limit
caps the list, default 20.

Export formats

/api/targets/export renders the planned list via format=json, csv, mpc80,
ades-psv or ades-xml.  The MPC and ADES forms follow the layouts described
at http://www.minorplanetcenter.net/iau/info/OpticalObs.html and
https://minorplanetcenter.net/iau/info/ADES.html, with each row written for
the planned observation time.

Pipeline outline

A poll fetches all feeds concurrently and publishes one immutable snapshot;
a failed enrichment feed is skipped, a failed NEOCP poll leaves the previous
snapshot serving.  Each planning request then clones the snapshot and runs:

 1. Dark window.  The Sun's altitude is scanned over 24 hours from local
    noon; samples below the site's darkness threshold bound the night.
 2. Altitude grid.  Each candidate's altitude is computed across the dark
    window on a 10 minute grid.  The observable window is the span from the
    first to the last sample clearing the site's minimum altitude, with the
    Moon separation gate applied to the whole window.
 3. Brightness cut.  Candidates fainter than the site's limiting magnitude
    are dropped; candidates with no magnitude are kept.
 4. Scoring.  Seven factors, each clamped to [0,1], combine as a weighted
    mean scaled to 0-100: days unobserved, arc shortness, NEO score, PHA
    score, log-scaled impact probability, window length, and brightness
    margin.  The list sorts by score, descending, ties in feed order.
 5. Refinement.  The truncated list is refined through JPL Horizons for
    predicted positions, sky motion and magnitude.  Refinement is best
    effort and never reorders the list.

Algorithms follow standard sources: solar and lunar positions and sidereal
time from Meeus, Astronomical Algorithms; airmass from Pickering (2002).

-------------
Public domain.
*/
package main
