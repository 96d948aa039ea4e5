// Public domain.

// Package export serializes ranked target lists into the interchange
// formats follow-up observers actually consume: MPC 80 column, ADES PSV,
// ADES XML, CSV and JSON.
//
// These are planned-target exports, so each row is one candidate at its
// planned observation time (window start, falling back to transit), not a
// reported observation.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"neotonight/internal/neo"
	"neotonight/internal/site"
)

// Format names accepted by the export endpoint.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatMPC80   = "mpc80"
	FormatADESPSV = "ades-psv"
	FormatADESXML = "ades-xml"
)

// ContentType returns the MIME type for a format, or "" if unknown.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatMPC80, FormatADESPSV:
		return "text/plain"
	case FormatADESXML:
		return "application/xml"
	}
	return ""
}

// Marshal renders targets in the named format.
func Marshal(format string, ts []*neo.Target, p *site.Profile) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(ts, "", "  ")
	case FormatCSV:
		return toCSV(ts)
	case FormatMPC80:
		return []byte(ToMPC80(ts, stationCode(p))), nil
	case FormatADESPSV:
		return []byte(ToADESPSV(ts, p)), nil
	case FormatADESXML:
		return ToADESXML(ts, p)
	}
	return nil, fmt.Errorf("export: unknown format %q", format)
}

// planTime is the moment a row is written for: the start of the observable
// window, else the transit.
func planTime(t *neo.Target) (time.Time, bool) {
	if t.ObsWindowStart != nil {
		return *t.ObsWindowStart, true
	}
	if t.TransitTime != nil {
		return *t.TransitTime, true
	}
	return time.Time{}, false
}

func stationCode(p *site.Profile) string {
	if p != nil && p.Code != "" {
		return p.Code
	}
	return "XXX" // unassigned station
}

// ToMPC80 renders one 80 column line per target with a usable position.
//
// Layout (simplified MPC optical observation format):
//
//	cols  1-12  designation
//	col   15    observation type, C for CCD
//	cols 16-32  date YYYY MM DD.ddddd
//	cols 33-44  RA as HH MM SS.ddd
//	cols 45-56  Dec as sDD MM SS.dd
//	cols 66-70  magnitude
//	col   71    band
//	cols 78-80  station code
func ToMPC80(ts []*neo.Target, stn string) string {
	var lines []string
	for _, t := range ts {
		ra, dec, ok := t.Position()
		if !ok {
			continue
		}
		at, ok := planTime(t)
		if !ok {
			continue
		}
		desig := t.Designation
		if len(desig) > 12 {
			desig = desig[:12]
		}

		fracDay := (float64(at.Hour()) + float64(at.Minute())/60 +
			float64(at.Second())/3600) / 24
		dateStr := fmt.Sprintf("%4d %02d %08.5f",
			at.Year(), int(at.Month()), float64(at.Day())+fracDay)

		magStr := "     "
		if m := exportMag(t); m != nil {
			magStr = fmt.Sprintf("%5.2f", *m)
		}

		line := fmt.Sprintf("%-12s  C%17s%12s%12s         %5s%s      %3s",
			desig, dateStr, raHMS(ra), decDMS(dec), magStr, "V", stn)
		if len(line) > 80 {
			line = line[:80]
		}
		lines = append(lines, fmt.Sprintf("%-80s", line))
	}
	return strings.Join(lines, "\n")
}

// raHMS formats degrees as "HH MM SS.ddd".
func raHMS(raDeg float64) string {
	h := raDeg / 15
	hh := int(h)
	mm := int((h - float64(hh)) * 60)
	ss := (h - float64(hh) - float64(mm)/60) * 3600
	return fmt.Sprintf("%02d %02d %06.3f", hh, mm, ss)
}

// decDMS formats degrees as "sDD MM SS.dd".
func decDMS(decDeg float64) string {
	sign := "+"
	if decDeg < 0 {
		sign = "-"
	}
	a := math.Abs(decDeg)
	dd := int(a)
	mm := int((a - float64(dd)) * 60)
	ss := (a - float64(dd) - float64(mm)/60) * 3600
	return fmt.Sprintf("%s%02d %02d %05.2f", sign, dd, mm, ss)
}

func exportMag(t *neo.Target) *float64 {
	if t.PredictedMag != nil {
		return t.PredictedMag
	}
	return t.MagV
}

// adesFields is the ADES optical column set, in order.
var adesFields = []string{
	"permID", "provID", "trkSub", "mode", "stn", "obsTime",
	"ra", "dec", "rmsRA", "rmsDec", "mag", "rmsMag", "band",
	"photCat", "astCat",
}

// ToADESPSV renders the ADES pipe-separated-values form.
// Ref: https://minorplanetcenter.net/iau/info/ADES.html
func ToADESPSV(ts []*neo.Target, p *site.Profile) string {
	var lines []string
	lines = append(lines,
		"# version=2017",
		"# observatory",
		"! mpcCode "+stationCode(p),
		"# submitter",
		"! name "+siteName(p),
		"# observers",
		"! name "+siteName(p),
		"# telescope",
		"! name "+siteName(p),
		"! aperture "+strconv.FormatFloat(aperture(p), 'g', -1, 64),
		"! detector CCD",
	)
	lines = append(lines, strings.Join(adesFields, "|"))
	for _, t := range ts {
		vals := adesValues(t, p)
		if vals == nil {
			continue
		}
		lines = append(lines, strings.Join(vals, "|"))
	}
	return strings.Join(lines, "\n")
}

func adesValues(t *neo.Target, p *site.Profile) []string {
	ra, dec, ok := t.Position()
	if !ok {
		return nil
	}
	at, ok := planTime(t)
	if !ok {
		return nil
	}
	mag := ""
	if m := exportMag(t); m != nil {
		mag = strconv.FormatFloat(*m, 'f', 2, 64)
	}
	vals := make([]string, len(adesFields))
	for i, f := range adesFields {
		switch f {
		case "trkSub":
			vals[i] = t.Designation
		case "mode":
			vals[i] = "CCD"
		case "stn":
			vals[i] = stationCode(p)
		case "obsTime":
			vals[i] = at.UTC().Format("2006-01-02T15:04:05.000") + "Z"
		case "ra":
			vals[i] = strconv.FormatFloat(ra, 'f', 6, 64)
		case "dec":
			vals[i] = strconv.FormatFloat(dec, 'f', 6, 64)
		case "mag":
			vals[i] = mag
		case "band":
			if mag != "" {
				vals[i] = "V"
			}
		}
	}
	return vals
}

func siteName(p *site.Profile) string {
	if p != nil && p.Name != "" {
		return p.Name
	}
	return "Unknown"
}

func aperture(p *site.Profile) float64 {
	if p != nil {
		return p.ApertureM
	}
	return 0
}

// ADES XML document structure.
type adesDoc struct {
	XMLName    xml.Name    `xml:"optical"`
	ObsContext adesContext `xml:"obsContext"`
	ObsData    adesData    `xml:"obsData"`
}

type adesContext struct {
	Observatory adesObservatory `xml:"observatory"`
	Submitter   adesName        `xml:"submitter"`
	Telescope   adesTelescope   `xml:"telescope"`
}

type adesObservatory struct {
	MPCCode string `xml:"mpcCode"`
}

type adesName struct {
	Name string `xml:"name"`
}

type adesTelescope struct {
	Name     string  `xml:"name"`
	Aperture float64 `xml:"aperture"`
	Detector string  `xml:"detector"`
}

type adesData struct {
	Optical []adesOptical `xml:"optical"`
}

type adesOptical struct {
	TrkSub  string `xml:"trkSub"`
	Mode    string `xml:"mode"`
	Stn     string `xml:"stn"`
	ObsTime string `xml:"obsTime"`
	RA      string `xml:"ra"`
	Dec     string `xml:"dec"`
	Mag     string `xml:"mag,omitempty"`
	Band    string `xml:"band,omitempty"`
}

// ToADESXML renders the ADES XML form.
func ToADESXML(ts []*neo.Target, p *site.Profile) ([]byte, error) {
	doc := adesDoc{
		ObsContext: adesContext{
			Observatory: adesObservatory{MPCCode: stationCode(p)},
			Submitter:   adesName{Name: siteName(p)},
			Telescope: adesTelescope{
				Name:     siteName(p),
				Aperture: aperture(p),
				Detector: "CCD",
			},
		},
	}
	for _, t := range ts {
		ra, dec, ok := t.Position()
		if !ok {
			continue
		}
		at, ok := planTime(t)
		if !ok {
			continue
		}
		o := adesOptical{
			TrkSub:  t.Designation,
			Mode:    "CCD",
			Stn:     stationCode(p),
			ObsTime: at.UTC().Format("2006-01-02T15:04:05.000") + "Z",
			RA:      strconv.FormatFloat(ra, 'f', 6, 64),
			Dec:     strconv.FormatFloat(dec, 'f', 6, 64),
		}
		if m := exportMag(t); m != nil {
			o.Mag = strconv.FormatFloat(*m, 'f', 2, 64)
			o.Band = "V"
		}
		doc.ObsData.Optical = append(doc.ObsData.Optical, o)
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// csvColumns is the flat column set for spreadsheet export.
var csvColumns = []string{
	"designation", "source", "ra_deg", "dec_deg", "mag_v", "mag_h",
	"n_obs", "arc_days", "not_seen_days", "neo_score", "pha_score",
	"impact_prob", "observable", "obs_window_start", "obs_window_end",
	"obs_window_hours", "best_altitude_deg", "best_airmass",
	"moon_sep_deg", "transit_time", "priority_score",
}

func toCSV(ts []*neo.Target) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, err
	}
	for _, t := range ts {
		row := []string{
			t.Designation,
			t.Source,
			fmtFloat(t.RADeg),
			fmtFloat(t.DecDeg),
			fmtFloat(t.MagV),
			fmtFloat(t.MagH),
			strconv.Itoa(t.NObs),
			strconv.FormatFloat(t.ArcDays, 'g', -1, 64),
			strconv.FormatFloat(t.NotSeenDays, 'g', -1, 64),
			fmtFloat(t.NEOScore),
			fmtFloat(t.PHAScore),
			fmtFloat(t.ImpactProb),
			fmtBool(t.Observable),
			fmtTime(t.ObsWindowStart),
			fmtTime(t.ObsWindowEnd),
			fmtFloat(t.ObsWindowHours),
			fmtFloat(t.BestAltitudeDeg),
			fmtFloat(t.BestAirmass),
			fmtFloat(t.MoonSepDeg),
			fmtTime(t.TransitTime),
			fmtFloat(t.PriorityScore),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func fmtFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}

func fmtBool(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

func fmtTime(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.UTC().Format(time.RFC3339)
}
