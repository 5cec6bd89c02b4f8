// Package usgs builds and fetches USGS earthquake summary feeds.
//
// API documentation: https://earthquake.usgs.gov/earthquakes/feed/v1.0/geojson.php
package usgs

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// DefaultBaseURL is the summary feed root.
const DefaultBaseURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/"

// Format is the feed encoding, including the leading dot.
type Format string

// Period is the feed lookback window.
type Period string

// Magnitude is the feed magnitude threshold.
type Magnitude string

// Feed encodings.
const (
	FormatGeoJSON Format = ".geojson"
	FormatCSV     Format = ".csv"
	FormatQuakeML Format = ".quakeml"
)

// Lookback windows.
const (
	PeriodMonth Period = "month"
	PeriodWeek  Period = "week"
	PeriodDay   Period = "day"
	PeriodHour  Period = "hour"
)

// Magnitude thresholds.
const (
	MagnitudeAll         Magnitude = "all"
	Magnitude1           Magnitude = "1.0"
	Magnitude25          Magnitude = "2.5"
	Magnitude45         Magnitude = "4.5"
	MagnitudeSignificant Magnitude = "significant"
)

// Formats returns the supported encodings in documentation order.
func Formats() []Format { return []Format{FormatGeoJSON, FormatCSV, FormatQuakeML} }

// Periods returns the supported lookback windows.
func Periods() []Period { return []Period{PeriodMonth, PeriodWeek, PeriodDay, PeriodHour} }

// Magnitudes returns the supported thresholds.
func Magnitudes() []Magnitude {
	return []Magnitude{MagnitudeAll, Magnitude1, Magnitude25, Magnitude45, MagnitudeSignificant}
}

// Request identifies one summary feed.
type Request struct {
	Format    Format
	Period    Period
	Magnitude Magnitude
}

// DefaultRequest is the all-magnitude GeoJSON feed for the past month.
func DefaultRequest() Request {
	return Request{Format: FormatGeoJSON, Period: PeriodMonth, Magnitude: MagnitudeAll}
}

// Validate rejects values outside the enumerated sets. The error names the
// valid values.
func (r Request) Validate() error {
	if !slices.Contains(Formats(), r.Format) {
		return invalid("format", string(r.Format), Formats())
	}
	if !slices.Contains(Periods(), r.Period) {
		return invalid("time period", string(r.Period), Periods())
	}
	if !slices.Contains(Magnitudes(), r.Magnitude) {
		return invalid("magnitude", string(r.Magnitude), Magnitudes())
	}
	return nil
}

// URL renders {base}{magnitude}_{period}{format}. An empty base uses
// DefaultBaseURL.
func (r Request) URL(base string) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + string(r.Magnitude) + "_" + string(r.Period) + string(r.Format), nil
}

func invalid[T ~string](field, got string, valid []T) error {
	names := make([]string, len(valid))
	for i, v := range valid {
		names[i] = string(v)
	}
	return apperr.Configuration(eris.Errorf("usgs: invalid %s requested %q (%s)", field, got, strings.Join(names, ", ")))
}
