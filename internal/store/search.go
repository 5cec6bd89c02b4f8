package store

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sells-group/quake-cli/internal/db"
)

// buildSearch renders the Search statement for either backend.
func buildSearch(table string, cols Columns, selected []string, opts SearchOpts, ph db.Placeholder) (string, []any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", db.QuoteAndJoin(selected), db.SanitizeTable(table))

	var args []any
	if opts.MinMagnitude != nil {
		if err := cols.Require(MagColumn); err != nil {
			return "", nil, err
		}
		args = append(args, *opts.MinMagnitude)
		fmt.Fprintf(&b, " WHERE %s >= %s", db.QuoteAndJoin([]string{MagColumn}), ph(len(args)))
	}
	if cols.Has(TimeColumn) {
		fmt.Fprintf(&b, " ORDER BY %s DESC", db.QuoteAndJoin([]string{TimeColumn}))
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, " LIMIT %s", ph(len(args)))
	}
	return b.String(), args, nil
}

// normalizeValue converts driver-specific values into plain Go scalars.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case []byte:
		return string(t)
	default:
		return v
	}
}
