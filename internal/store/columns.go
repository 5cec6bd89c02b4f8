package store

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// ColumnType is the coarse kind of a table column.
type ColumnType int

// Column kinds.
const (
	ColumnOther ColumnType = iota
	ColumnText
	ColumnInteger
	ColumnFloat
	ColumnBoolean
	ColumnTimestamp
	ColumnGeometry
)

func (c ColumnType) String() string {
	switch c {
	case ColumnText:
		return "text"
	case ColumnInteger:
		return "integer"
	case ColumnFloat:
		return "float"
	case ColumnBoolean:
		return "boolean"
	case ColumnTimestamp:
		return "timestamp"
	case ColumnGeometry:
		return "geometry"
	default:
		return "other"
	}
}

// ClassifyType maps a declared SQL type (Postgres format_type output or a
// SQLite declared type) to a ColumnType.
func ClassifyType(sqlType string) ColumnType {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	switch {
	case strings.HasPrefix(t, "geometry"), strings.HasPrefix(t, "geography"):
		return ColumnGeometry
	case strings.HasPrefix(t, "timestamp"), t == "date", t == "datetime":
		return ColumnTimestamp
	case strings.HasPrefix(t, "interval"), strings.HasPrefix(t, "point"):
		return ColumnOther
	case strings.Contains(t, "int"), t == "serial", t == "bigserial":
		return ColumnInteger
	case strings.HasPrefix(t, "double"), strings.HasPrefix(t, "real"), strings.HasPrefix(t, "float"),
		strings.HasPrefix(t, "numeric"), strings.HasPrefix(t, "decimal"):
		return ColumnFloat
	case strings.HasPrefix(t, "bool"):
		return ColumnBoolean
	case strings.Contains(t, "char"), strings.Contains(t, "text"), strings.Contains(t, "clob"):
		return ColumnText
	default:
		return ColumnOther
	}
}

// Columns maps lower-case column names to their kinds.
type Columns map[string]ColumnType

// Has reports whether the table has the named column.
func (c Columns) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Names returns the column names in sorted order.
func (c Columns) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Require fails with a lookup error for the first name the table lacks.
func (c Columns) Require(names ...string) error {
	for _, n := range names {
		if !c.Has(n) {
			return apperr.Lookup(eris.Errorf("store: Column (%s) not in table", n))
		}
	}
	return nil
}

// Selectable resolves the Search column list: the requested names after
// validation, or every non-geometry column.
func (c Columns) Selectable(requested []string) ([]string, error) {
	if len(requested) == 0 {
		var out []string
		for _, n := range c.Names() {
			if c[n] != ColumnGeometry {
				out = append(out, n)
			}
		}
		return out, nil
	}
	out := make([]string, len(requested))
	for i, n := range requested {
		out[i] = strings.ToLower(n)
	}
	if err := c.Require(out...); err != nil {
		return nil, err
	}
	return out, nil
}
