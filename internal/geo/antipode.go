// Package geo provides point helpers for earthquake coordinates.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// SRID is the spatial reference of every stored point (WGS 84).
const SRID = 4326

// Point builds a WGS 84 point from longitude and latitude.
func Point(lon, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRID)
}

// ValidateCoord checks that lon and lat are finite and within range.
func ValidateCoord(lon, lat float64) error {
	switch {
	case math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180:
		return apperr.Lookup(eris.Errorf("geo: longitude %v out of range [-180, 180]", lon))
	case math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90:
		return apperr.Lookup(eris.Errorf("geo: latitude %v out of range [-90, 90]", lat))
	}
	return nil
}

// Antipode returns the point on the opposite side of the globe. Latitude is
// negated; longitude shifts by 180 degrees toward the prime meridian, so a
// longitude of exactly 0 maps to -180.
func Antipode(lon, lat float64) (float64, float64, error) {
	if err := ValidateCoord(lon, lat); err != nil {
		return 0, 0, err
	}
	if lon < 0 {
		return lon + 180, -lat, nil
	}
	return lon - 180, -lat, nil
}

// AntipodePoint is Antipode over a go-geom point.
func AntipodePoint(p *geom.Point) (*geom.Point, error) {
	if p == nil || p.Empty() {
		return nil, apperr.Lookup(eris.New("geo: empty point"))
	}
	lon, lat, err := Antipode(p.X(), p.Y())
	if err != nil {
		return nil, err
	}
	return Point(lon, lat), nil
}
