package usgs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quake-cli/internal/apperr"
)

func TestURL_AllValidCombinations(t *testing.T) {
	for _, f := range Formats() {
		for _, p := range Periods() {
			for _, m := range Magnitudes() {
				r := Request{Format: f, Period: p, Magnitude: m}
				u, err := r.URL("")
				require.NoError(t, err, "%+v", r)
				assert.Equal(t, fmt.Sprintf("%s%s_%s%s", DefaultBaseURL, m, p, f), u)
			}
		}
	}
}

func TestURL_Default(t *testing.T) {
	u, err := DefaultRequest().URL("")
	require.NoError(t, err)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_month.geojson", u)
}

func TestURL_BaseWithoutSlash(t *testing.T) {
	u, err := Request{Format: FormatCSV, Period: PeriodHour, Magnitude: Magnitude45}.URL("http://localhost:8080/feed")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/feed/4.5_hour.csv", u)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantMsg string
	}{
		{
			name:    "magnitude",
			req:     Request{Format: FormatGeoJSON, Period: PeriodDay, Magnitude: "9.9"},
			wantMsg: `invalid magnitude requested "9.9" (all, 1.0, 2.5, 4.5, significant)`,
		},
		{
			name:    "format",
			req:     Request{Format: "geojson", Period: PeriodDay, Magnitude: MagnitudeAll},
			wantMsg: `invalid format requested "geojson" (.geojson, .csv, .quakeml)`,
		},
		{
			name:    "period",
			req:     Request{Format: FormatGeoJSON, Period: "year", Magnitude: MagnitudeAll},
			wantMsg: `invalid time period requested "year" (month, week, day, hour)`,
		},
		{
			name:    "empty",
			req:     Request{},
			wantMsg: "invalid format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

			_, err = tt.req.URL("")
			assert.Error(t, err)
		})
	}
}
