package store

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/db"
)

// PostgresStore implements Store using pgxpool against a PostGIS database.
type PostgresStore struct {
	pool    db.Pool
	table   string
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgColumnsSQL = `SELECT a.attname, format_type(a.atttypid, a.atttypmod)
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1) AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`
	pgEstimateSQL = `SELECT reltuples::bigint FROM pg_class WHERE oid = to_regclass($1)`
)

// NewPostgres opens a pool for the given libpq connection string and pings
// it. Any failure here is a connection error; nothing else runs until the
// store is reachable.
func NewPostgres(ctx context.Context, connString, table string, poolCfg *PoolConfig) (*PostgresStore, error) {
	if table == "" {
		return nil, apperr.Configuration(eris.New("postgres: table name is required"))
	}
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, apperr.Connection(eris.Wrap(err, "postgres: parse config"))
	}

	maxConns := int32(4)
	var minConns int32
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, apperr.Connection(eris.Wrap(err, "postgres: create pool"))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.Connection(eris.Wrap(err, "postgres: ping"))
	}
	return &PostgresStore{pool: pool, table: table, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Table() string { return s.table }

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	if err != nil {
		return apperr.Connection(eris.Wrap(err, "postgres: ping"))
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+db.SanitizeTable(s.table)).Scan(&n)
	if err != nil {
		return 0, apperr.Query(eris.Wrapf(err, "postgres: count %s", s.table))
	}
	return n, nil
}

func (s *PostgresStore) EstimateCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, pgEstimateSQL, s.table).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.Lookup(eris.Errorf("postgres: table %s not found", s.table))
		}
		return 0, apperr.Query(eris.Wrapf(err, "postgres: estimate count %s", s.table))
	}
	// reltuples is -1 until the table is first analyzed.
	return max(n, 0), nil
}

func (s *PostgresStore) Columns(ctx context.Context) (Columns, error) {
	rows, err := s.pool.Query(ctx, pgColumnsSQL, s.table)
	if err != nil {
		return nil, apperr.Query(eris.Wrapf(err, "postgres: columns of %s", s.table))
	}
	defer rows.Close()

	cols := make(Columns)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, apperr.Query(eris.Wrap(err, "postgres: scan column"))
		}
		cols[name] = ClassifyType(typ)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query(eris.Wrap(err, "postgres: iterate columns"))
	}
	if len(cols) == 0 {
		return nil, apperr.Lookup(eris.Errorf("postgres: table %s not found", s.table))
	}
	return cols, nil
}

func (s *PostgresStore) InsertBatch(ctx context.Context, rows []Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Query(eris.Wrap(err, "postgres: insert: begin tx"))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var inserted []string
	for _, r := range rows {
		ok, err := db.InsertIgnore(ctx, tx, db.InsertConfig{
			Table:       s.table,
			Columns:     r.Columns,
			Placeholder: db.Dollar,
		}, r.Values)
		if err != nil {
			return nil, apperr.Query(eris.Wrapf(err, "postgres: insert %s", r.ID()))
		}
		if ok {
			inserted = append(inserted, r.ID())
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Query(eris.Wrap(err, "postgres: insert: commit tx"))
	}
	return inserted, nil
}

func (s *PostgresStore) UpdatePointGeometry(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "UPDATE "+db.SanitizeTable(s.table)+
		` SET "geometry" = ST_SetSRID(ST_MakePoint("longitude", "latitude"), 4326)`)
	if err != nil {
		return 0, apperr.Query(eris.Wrapf(err, "postgres: update point geometry on %s", s.table))
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) UpdateUTCTime(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "UPDATE "+db.SanitizeTable(s.table)+
		` SET "utc_time" = to_timestamp("time" / 1000)`)
	if err != nil {
		return 0, apperr.Query(eris.Wrapf(err, "postgres: update utc time on %s", s.table))
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Search(ctx context.Context, opts SearchOpts) (iter.Seq2[map[string]any, error], error) {
	cols, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := cols.Selectable(opts.Columns)
	if err != nil {
		return nil, err
	}
	query, args, err := buildSearch(s.table, cols, selected, opts, db.Dollar)
	if err != nil {
		return nil, err
	}

	return func(yield func(map[string]any, error) bool) {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			yield(nil, apperr.Query(eris.Wrapf(err, "postgres: search %s", s.table)))
			return
		}
		defer rows.Close()

		for rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				yield(nil, apperr.Query(eris.Wrap(err, "postgres: search: read row")))
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
			yield(nil, apperr.Query(eris.Wrap(err, "postgres: search: iterate")))
		}
	}, nil
}

func (s *PostgresStore) StartRun(ctx context.Context, run RunEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quake_sync_log (id, table_name, status, started_at, initial_count)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Table, string(RunRunning), run.StartedAt, run.InitialCount,
	)
	if err != nil {
		return apperr.Query(eris.Wrapf(err, "synclog: start run %s", run.ID))
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, id string, result RunResult) error {
	metaJSON, err := marshalMetadata(result.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE quake_sync_log
		 SET status = $1, completed_at = $2, final_count = $3, rows_inserted = $4, metadata = $5
		 WHERE id = $6`,
		string(RunComplete), result.CompletedAt, result.FinalCount, result.RowsInserted, metaJSON, id,
	)
	if err != nil {
		return apperr.Query(eris.Wrapf(err, "synclog: complete run %s", id))
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, id string, completedAt time.Time, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE quake_sync_log
		 SET status = $1, completed_at = $2, error = $3
		 WHERE id = $4`,
		string(RunFailed), completedAt, errMsg, id,
	)
	if err != nil {
		return apperr.Query(eris.Wrapf(err, "synclog: fail run %s", id))
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, table_name, status, started_at, completed_at, initial_count, final_count, rows_inserted, error, metadata
		 FROM quake_sync_log WHERE table_name = $1 ORDER BY started_at DESC LIMIT $2`,
		s.table, limit,
	)
	if err != nil {
		return nil, apperr.Query(eris.Wrap(err, "synclog: list runs"))
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var status string
		var finalCount, inserted *int64
		var errStr *string
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Table, &status, &e.StartedAt, &e.CompletedAt,
			&e.InitialCount, &finalCount, &inserted, &errStr, &metaJSON); err != nil {
			return nil, apperr.Query(eris.Wrap(err, "synclog: scan run"))
		}
		e.Status = RunStatus(status)
		fillRun(&e, finalCount, inserted, errStr, metaJSON)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query(eris.Wrap(err, "synclog: iterate runs"))
	}
	return entries, nil
}

func (s *PostgresStore) LastSuccess(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT started_at FROM quake_sync_log
		 WHERE table_name = $1 AND status = 'complete'
		 ORDER BY started_at DESC LIMIT 1`,
		s.table,
	).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Query(eris.Wrapf(err, "synclog: last success for %s", s.table))
	}
	return &t, nil
}

func marshalMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, eris.Wrap(err, "synclog: marshal metadata")
	}
	return b, nil
}

// fillRun copies nullable sync log columns into e.
func fillRun(e *RunEntry, finalCount, inserted *int64, errStr *string, metaJSON []byte) {
	if finalCount != nil {
		e.FinalCount = *finalCount
	}
	if inserted != nil {
		e.RowsInserted = *inserted
	}
	if errStr != nil {
		e.Error = *errStr
	}
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &e.Metadata)
	}
}
