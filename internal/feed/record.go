// Package feed normalizes USGS GeoJSON feature collections into ingestion
// records.
package feed

import (
	"iter"
	"maps"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// Injected attribute keys.
const (
	KeyUSGSID    = "usgs_id"
	KeyLongitude = "longitude"
	KeyLatitude  = "latitude"
)

// Record is one feature lifted into flat attributes.
type Record struct {
	USGSID     string
	Longitude  float64
	Latitude   float64
	Properties map[string]any
}

// Attributes returns the feature properties plus usgs_id, longitude and
// latitude. The injected keys win over same-named properties.
func (r Record) Attributes() map[string]any {
	attrs := make(map[string]any, len(r.Properties)+3)
	maps.Copy(attrs, r.Properties)
	attrs[KeyUSGSID] = r.USGSID
	attrs[KeyLongitude] = r.Longitude
	attrs[KeyLatitude] = r.Latitude
	return attrs
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(data []byte) (*geojson.FeatureCollection, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, apperr.Lookup(eris.Wrap(err, "feed: decode feature collection"))
	}
	return &fc, nil
}

// Records yields one Record per feature in feed order. A feature without an
// id or a point geometry yields a lookup error in its place; the consumer
// decides whether to stop.
func Records(fc *geojson.FeatureCollection) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if fc == nil {
			return
		}
		for i, f := range fc.Features {
			rec, err := FromFeature(f)
			if err != nil {
				err = eris.Wrapf(err, "feed: feature %d", i)
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

// FromFeature lifts a single feature. The depth coordinate, when present, is
// ignored.
func FromFeature(f *geojson.Feature) (Record, error) {
	if f == nil {
		return Record{}, apperr.Lookup(eris.New("feed: nil feature"))
	}
	if f.ID == "" {
		return Record{}, apperr.Lookup(eris.New("feed: feature has no id"))
	}
	if f.Geometry == nil {
		return Record{}, apperr.Lookup(eris.Errorf("feed: feature %s has no geometry", f.ID))
	}
	pt, ok := f.Geometry.(*geom.Point)
	if !ok {
		return Record{}, apperr.Lookup(eris.Errorf("feed: feature %s geometry is %T, not a point", f.ID, f.Geometry))
	}
	if pt.Empty() {
		return Record{}, apperr.Lookup(eris.Errorf("feed: feature %s has an empty coordinate pair", f.ID))
	}

	props := f.Properties
	if props == nil {
		props = map[string]any{}
	}
	return Record{
		USGSID:     f.ID,
		Longitude:  pt.X(),
		Latitude:   pt.Y(),
		Properties: props,
	}, nil
}
