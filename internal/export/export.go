// Package export writes search results to csv, xlsx, or point shapefiles.
package export

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV       Format = "csv"
	FormatXLSX      Format = "xlsx"
	FormatShapefile Format = "shp"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatShapefile}
}

// ParseFormat resolves a format name, accepting a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case FormatCSV, FormatXLSX, FormatShapefile:
		return f, nil
	}
	return "", apperr.Configuration(eris.Errorf("export: unknown format %q (csv, xlsx, shp)", s))
}

// Rows is a stream of search results keyed by column.
type Rows = iter.Seq2[map[string]any, error]

// cellString renders a value for text formats. Nil renders empty.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// toFloat reports v as a float64 when it is numeric.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int:
		return float64(t), true
	}
	return 0, false
}
