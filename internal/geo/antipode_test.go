package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/quake-cli/internal/apperr"
)

func TestAntipode(t *testing.T) {
	tests := []struct {
		name             string
		lon, lat         float64
		wantLon, wantLat float64
	}{
		{"western hemisphere", -122.4, 37.8, 57.6, -37.8},
		{"eastern hemisphere", 139.7, 35.7, -40.3, -35.7},
		{"prime meridian", 0, 51.5, -180, -51.5},
		{"antimeridian east", 180, 0, 0, 0},
		{"antimeridian west", -180, -10, 0, 10},
		{"south pole", 45, -90, -135, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lon, lat, err := Antipode(tt.lon, tt.lat)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantLon, lon, 1e-9)
			assert.InDelta(t, tt.wantLat, lat, 1e-9)
		})
	}
}

func TestAntipode_Twice(t *testing.T) {
	lon, lat, err := Antipode(-70.5, 12.25)
	require.NoError(t, err)
	lon, lat, err = Antipode(lon, lat)
	require.NoError(t, err)
	assert.InDelta(t, -70.5, lon, 1e-9)
	assert.InDelta(t, 12.25, lat, 1e-9)
}

func TestAntipode_OutOfRange(t *testing.T) {
	for _, c := range [][2]float64{{181, 0}, {0, 91}, {math.NaN(), 0}, {0, math.Inf(-1)}} {
		_, _, err := Antipode(c[0], c[1])
		require.Error(t, err, "%v", c)
		assert.Equal(t, apperr.KindLookup, apperr.KindOf(err))
	}
}

func TestAntipodePoint(t *testing.T) {
	p, err := AntipodePoint(Point(10, 20))
	require.NoError(t, err)
	assert.Equal(t, SRID, p.SRID())
	assert.InDelta(t, -170.0, p.X(), 1e-9)
	assert.InDelta(t, -20.0, p.Y(), 1e-9)

	_, err = AntipodePoint(geom.NewPointEmpty(geom.XY))
	require.Error(t, err)
	_, err = AntipodePoint(nil)
	require.Error(t, err)
}
