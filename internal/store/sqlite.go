package store

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/db"
)

// SQLiteStore implements Store using modernc.org/sqlite for local runs
// without a PostGIS server. Geometry is stored as EWKT text.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(ctx context.Context, dsn, table string) (*SQLiteStore, error) {
	if table == "" {
		return nil, apperr.Configuration(eris.New("sqlite: table name is required"))
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperr.Connection(eris.Wrap(err, "sqlite: open"))
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, apperr.Connection(eris.Wrapf(err, "sqlite: exec %s", pragma))
		}
	}
	return &SQLiteStore{db: conn, table: table}, nil
}

// DB returns the underlying handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Table() string { return s.table }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperr.Connection(eris.Wrap(err, "sqlite: ping"))
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+db.SanitizeTable(s.table)).Scan(&n)
	if err != nil {
		return 0, apperr.Query(eris.Wrapf(err, "sqlite: count %s", s.table))
	}
	return n, nil
}

// EstimateCount is exact on SQLite, which keeps no planner statistics.
func (s *SQLiteStore) EstimateCount(ctx context.Context) (int64, error) {
	return s.Count(ctx)
}

func (s *SQLiteStore) Columns(ctx context.Context) (Columns, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", s.table)
	if err != nil {
		return nil, apperr.Query(eris.Wrapf(err, "sqlite: columns of %s", s.table))
	}
	defer rows.Close() //nolint:errcheck

	cols := make(Columns)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, apperr.Query(eris.Wrap(err, "sqlite: scan column"))
		}
		cols[name] = ClassifyType(typ)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query(eris.Wrap(err, "sqlite: iterate columns"))
	}
	if len(cols) == 0 {
		return nil, apperr.Lookup(eris.Errorf("sqlite: table %s not found", s.table))
	}
	return cols, nil
}

func (s *SQLiteStore) InsertBatch(ctx context.Context, rows []Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Query(eris.Wrap(err, "sqlite: insert: begin tx"))
	}
	defer tx.Rollback() //nolint:errcheck

	var inserted []string
	for _, r := range rows {
		stmt, err := db.InsertIgnoreSQL(db.InsertConfig{
			Table:       s.table,
			Columns:     r.Columns,
			Placeholder: db.Question,
		})
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, stmt, r.Values...)
		if err != nil {
			return nil, apperr.Query(eris.Wrapf(err, "sqlite: insert %s", r.ID()))
		}
		if n, _ := res.RowsAffected(); n == 1 {
			inserted = append(inserted, r.ID())
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Query(eris.Wrap(err, "sqlite: insert: commit tx"))
	}
	return inserted, nil
}

func (s *SQLiteStore) UpdatePointGeometry(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE "+db.SanitizeTable(s.table)+
		` SET "geometry" = 'SRID=4326;POINT(' || "longitude" || ' ' || "latitude" || ')'`)
	if err != nil {
		return 0, apperr.Query(eris.Wrapf(err, "sqlite: update point geometry on %s", s.table))
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) UpdateUTCTime(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE "+db.SanitizeTable(s.table)+
		` SET "utc_time" = strftime('%Y-%m-%dT%H:%M:%SZ', "time" / 1000, 'unixepoch')`)
	if err != nil {
		return 0, apperr.Query(eris.Wrapf(err, "sqlite: update utc time on %s", s.table))
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) Search(ctx context.Context, opts SearchOpts) (iter.Seq2[map[string]any, error], error) {
	cols, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := cols.Selectable(opts.Columns)
	if err != nil {
		return nil, err
	}
	query, args, err := buildSearch(s.table, cols, selected, opts, db.Question)
	if err != nil {
		return nil, err
	}

	return func(yield func(map[string]any, error) bool) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, apperr.Query(eris.Wrapf(err, "sqlite: search %s", s.table)))
			return
		}
		defer rows.Close() //nolint:errcheck

		for rows.Next() {
			vals := make([]any, len(selected))
			ptrs := make([]any, len(selected))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				yield(nil, apperr.Query(eris.Wrap(err, "sqlite: search: scan row")))
				return
			}
			rec := make(map[string]any, len(selected))
			for i, c := range selected {
				rec[c] = normalizeValue(vals[i])
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, apperr.Query(eris.Wrap(err, "sqlite: search: iterate")))
		}
	}, nil
}

func (s *SQLiteStore) StartRun(ctx context.Context, run RunEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quake_sync_log (id, table_name, status, started_at, initial_count)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Table, string(RunRunning), run.StartedAt.UTC(), run.InitialCount,
	)
	if err != nil {
		return apperr.Query(eris.Wrapf(err, "synclog: start run %s", run.ID))
	}
	return nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, result RunResult) error {
	metaJSON, err := marshalMetadata(result.Metadata)
	if err != nil {
		return err
	}
	var meta any
	if metaJSON != nil {
		meta = string(metaJSON)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE quake_sync_log
		 SET status = ?, completed_at = ?, final_count = ?, rows_inserted = ?, metadata = ?
		 WHERE id = ?`,
		string(RunComplete), result.CompletedAt.UTC(), result.FinalCount, result.RowsInserted, meta, id,
	)
	if err != nil {
		return apperr.Query(eris.Wrapf(err, "synclog: complete run %s", id))
	}
	return nil
}

func (s *SQLiteStore) FailRun(ctx context.Context, id string, completedAt time.Time, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE quake_sync_log SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(RunFailed), completedAt.UTC(), errMsg, id,
	)
	if err != nil {
		return apperr.Query(eris.Wrapf(err, "synclog: fail run %s", id))
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, table_name, status, started_at, completed_at, initial_count, final_count, rows_inserted, error, metadata
		 FROM quake_sync_log WHERE table_name = ? ORDER BY started_at DESC LIMIT ?`,
		s.table, limit,
	)
	if err != nil {
		return nil, apperr.Query(eris.Wrap(err, "synclog: list runs"))
	}
	defer rows.Close() //nolint:errcheck

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var status string
		var completedAt sql.NullTime
		var finalCount, inserted sql.NullInt64
		var errStr, metaJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.Table, &status, &e.StartedAt, &completedAt,
			&e.InitialCount, &finalCount, &inserted, &errStr, &metaJSON); err != nil {
			return nil, apperr.Query(eris.Wrap(err, "synclog: scan run"))
		}
		e.Status = RunStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		var fc, ins *int64
		if finalCount.Valid {
			fc = &finalCount.Int64
		}
		if inserted.Valid {
			ins = &inserted.Int64
		}
		var es *string
		if errStr.Valid {
			es = &errStr.String
		}
		var meta []byte
		if metaJSON.Valid {
			meta = []byte(metaJSON.String)
		}
		fillRun(&e, fc, ins, es, meta)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query(eris.Wrap(err, "synclog: iterate runs"))
	}
	return entries, nil
}

func (s *SQLiteStore) LastSuccess(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at FROM quake_sync_log
		 WHERE table_name = ? AND status = 'complete'
		 ORDER BY started_at DESC LIMIT 1`,
		s.table,
	).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Query(eris.Wrapf(err, "synclog: last success for %s", s.table))
	}
	return &t, nil
}
