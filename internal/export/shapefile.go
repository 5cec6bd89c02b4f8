package export

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/store"
)

// dBase limits.
const (
	maxFieldName = 10
	maxText      = 254
)

// WriteShapefile writes a point shapefile (path plus its .shx and .dbf
// siblings). Each row's longitude and latitude become the point; the
// remaining columns become attributes typed by kinds.
func WriteShapefile(path string, cols []string, kinds store.Columns, rows Rows) (int, error) {
	if !slices.Contains(cols, store.LongitudeColumn) || !slices.Contains(cols, store.LatitudeColumn) {
		return 0, apperr.Lookup(eris.New("export: shapefile needs longitude and latitude columns"))
	}

	var attrCols []string
	for _, c := range cols {
		if c != store.LongitudeColumn && c != store.LatitudeColumn {
			attrCols = append(attrCols, c)
		}
	}
	fields, err := shpFields(attrCols, kinds)
	if err != nil {
		return 0, err
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "export: shapefile: create %s", path)
	}
	n, werr := writePoints(w, attrCols, fields, rows)
	w.Close()
	if err := fixDBFName(path); err != nil && werr == nil {
		werr = err
	}
	return n, werr
}

func writePoints(w *shp.Writer, attrCols []string, fields []shp.Field, rows Rows) (int, error) {
	if len(fields) > 0 {
		if err := w.SetFields(fields); err != nil {
			return 0, eris.Wrap(err, "export: shapefile: set fields")
		}
	}

	n := 0
	for rec, err := range rows {
		if err != nil {
			return n, err
		}
		lon, okLon := toFloat(rec[store.LongitudeColumn])
		lat, okLat := toFloat(rec[store.LatitudeColumn])
		if !okLon || !okLat {
			return n, apperr.Lookup(eris.Errorf("export: shapefile: row %v has no coordinates", rec[store.KeyColumn]))
		}

		idx := int(w.Write(&shp.Point{X: lon, Y: lat}))
		for i, c := range attrCols {
			v := shpValue(rec[c], fields[i])
			if v == nil {
				continue
			}
			if err := w.WriteAttribute(idx, i, v); err != nil {
				return n, eris.Wrapf(err, "export: shapefile: attribute %s", c)
			}
		}
		n++
	}
	return n, nil
}

// fixDBFName renames the attribute table go-shp creates as "<base>dbf" to
// "<base>.dbf" so readers find it next to the .shp.
func fixDBFName(path string) error {
	base := path
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		base = strings.TrimSuffix(path, filepath.Ext(path))
	}
	if _, err := os.Stat(base + "dbf"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrap(err, "export: shapefile: rename dbf")
	}
	return nil
}

func shpFields(cols []string, kinds store.Columns) ([]shp.Field, error) {
	fields := make([]shp.Field, len(cols))
	seen := make(map[string]string, len(cols))
	for i, c := range cols {
		name := c
		if len(name) > maxFieldName {
			name = name[:maxFieldName]
		}
		if prev, dup := seen[name]; dup {
			return nil, apperr.Lookup(eris.Errorf("export: shapefile: columns %s and %s truncate to the same field name", prev, c))
		}
		seen[name] = c

		switch kinds[c] {
		case store.ColumnInteger:
			fields[i] = shp.NumberField(name, 18)
		case store.ColumnFloat:
			fields[i] = shp.FloatField(name, 24, 8)
		default:
			fields[i] = shp.StringField(name, maxText)
		}
	}
	return fields, nil
}

// shpValue converts v into one of the types WriteAttribute accepts, sized to
// fit the field. Nil leaves the attribute blank.
func shpValue(v any, f shp.Field) any {
	if v == nil {
		return nil
	}
	switch f.Fieldtype {
	case 'N':
		if x, ok := toFloat(v); ok {
			return int(x)
		}
	case 'F':
		if x, ok := toFloat(v); ok {
			return x
		}
	}
	return truncate(cellString(v), int(f.Size))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
