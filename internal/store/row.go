package store

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// Row is an ingestion record mapped onto the target table's columns.
// Columns are sorted and lower-case; Values line up with Columns.
type Row struct {
	Columns []string
	Values  []any
}

// ID returns the row's usgs_id, or "" when absent.
func (r Row) ID() string {
	v, _ := r.Get(KeyColumn)
	id, _ := v.(string)
	return id
}

// Get returns the value for a column.
func (r Row) Get(col string) (any, bool) {
	if i := slices.Index(r.Columns, col); i >= 0 {
		return r.Values[i], true
	}
	return nil, false
}

// BuildRow maps attrs onto cols. Keys are lower-cased to match column names
// (magType becomes magtype); two keys that differ only in case are a lookup
// error. A key with no matching column is a lookup error
// when strict is set and is dropped otherwise. Values are coerced to the
// column kind where the feed's JSON typing differs (whole floats for integer
// columns, numbers for text columns).
func BuildRow(attrs map[string]any, cols Columns, strict bool) (Row, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	byCol := make(map[string]any, len(keys))
	source := make(map[string]string, len(keys))
	var dropped []string
	for _, k := range keys {
		col := strings.ToLower(k)
		if prev, ok := source[col]; ok {
			return Row{}, apperr.Lookup(eris.Errorf("store: attributes %s and %s both map to column %s", prev, k, col))
		}
		source[col] = k

		kind, ok := cols[col]
		if !ok {
			if strict {
				return Row{}, apperr.Lookup(eris.Errorf("store: Column (%s) not in table", col))
			}
			dropped = append(dropped, col)
			continue
		}
		v, err := coerce(attrs[k], kind)
		if err != nil {
			return Row{}, eris.Wrapf(err, "store: column %s", col)
		}
		byCol[col] = v
	}

	if _, ok := byCol[KeyColumn]; !ok {
		return Row{}, apperr.Lookup(eris.Errorf("store: record has no %s", KeyColumn))
	}

	if len(dropped) > 0 {
		zap.L().Warn("store: dropping attributes with no matching column",
			zap.Any("usgs_id", byCol[KeyColumn]),
			zap.Strings("columns", dropped),
		)
	}

	row := Row{
		Columns: make([]string, 0, len(byCol)),
		Values:  make([]any, 0, len(byCol)),
	}
	for _, col := range slices.Sorted(maps.Keys(byCol)) {
		row.Columns = append(row.Columns, col)
		row.Values = append(row.Values, byCol[col])
	}
	return row, nil
}

func coerce(v any, kind ColumnType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case ColumnInteger:
		if f, ok := v.(float64); ok {
			if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, apperr.Lookup(eris.Errorf("store: %v is not a whole number", f))
			}
			return int64(f), nil
		}
	case ColumnText:
		switch t := v.(type) {
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(t), nil
		}
	}
	return v, nil
}
