package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Placeholder renders the bind parameter for the 1-based argument n.
type Placeholder func(n int) string

// Dollar renders Postgres-style placeholders ($1, $2, ...).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question renders SQLite-style placeholders.
func Question(int) string { return "?" }

// InsertConfig defines the parameters for a conflict-skip insert.
type InsertConfig struct {
	Table        string   // target table (e.g., "earthquakes" or "public.earthquakes")
	Columns      []string // columns being inserted, in argument order
	ConflictKeys []string // optional conflict target; empty skips on any unique constraint
	Placeholder  Placeholder
}

// InsertIgnoreSQL builds INSERT ... ON CONFLICT DO NOTHING for one row. With
// ConflictKeys set the clause targets that constraint only.
// Both Postgres and SQLite (3.24+) accept the generated statement.
func InsertIgnoreSQL(cfg InsertConfig) (string, error) {
	if len(cfg.Columns) == 0 {
		return "", eris.New("db: insert: no columns specified")
	}
	ph := cfg.Placeholder
	if ph == nil {
		ph = Dollar
	}

	params := make([]string, len(cfg.Columns))
	for i := range cfg.Columns {
		params[i] = ph(i + 1)
	}

	target := ""
	if len(cfg.ConflictKeys) > 0 {
		target = " (" + QuoteAndJoin(cfg.ConflictKeys) + ")"
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT%s DO NOTHING",
		SanitizeTable(cfg.Table),
		QuoteAndJoin(cfg.Columns),
		strings.Join(params, ", "),
		target,
	), nil
}

// InsertIgnore inserts one row and reports whether it was written. A row that
// collides with the unique constraint is skipped without error.
func InsertIgnore(ctx context.Context, q Execer, cfg InsertConfig, values []any) (bool, error) {
	if len(values) != len(cfg.Columns) {
		return false, eris.Errorf("db: insert: %d values for %d columns", len(values), len(cfg.Columns))
	}
	stmt, err := InsertIgnoreSQL(cfg)
	if err != nil {
		return false, err
	}
	tag, err := q.Exec(ctx, stmt, values...)
	if err != nil {
		return false, eris.Wrapf(err, "db: insert into %s", cfg.Table)
	}
	return tag.RowsAffected() == 1, nil
}

// SanitizeTable handles schema-qualified table names like "public.earthquakes".
func SanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// QuoteAndJoin quotes each column name and joins with commas.
func QuoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
