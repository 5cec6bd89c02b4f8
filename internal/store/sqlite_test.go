package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// newTestSQLite opens a temp-file database loaded with the reference schema.
func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "quake.db"), "earthquakes")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ddl, err := os.ReadFile(filepath.Join("..", "..", "schema", "sqlite.sql"))
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx, string(ddl))
	require.NoError(t, err)
	return s
}

func twoQuakes() []Row {
	return []Row{
		{Columns: []string{"latitude", "longitude", "mag", "time", "usgs_id"}, Values: []any{20.0, 10.0, 2.5, int64(1700000000000), "a"}},
		{Columns: []string{"latitude", "longitude", "mag", "time", "usgs_id"}, Values: []any{40.0, 30.0, 4.7, int64(1700000360000), "b"}},
	}
}

func TestSQLiteStore_InsertBatch_Idempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	inserted, err := s.InsertBatch(ctx, twoQuakes())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, inserted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	inserted, err = s.InsertBatch(ctx, twoQuakes())
	require.NoError(t, err)
	assert.Empty(t, inserted)

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLiteStore_InsertBatch_DuplicateWithinBatch(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rows := append(twoQuakes(), twoQuakes()[0])
	inserted, err := s.InsertBatch(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, inserted)
}

func TestSQLiteStore_InsertBatch_CompositeUniqueKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "quake.db"), "quake_events")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.DB().ExecContext(ctx, `CREATE TABLE quake_events (
		usgs_id   TEXT NOT NULL,
		longitude REAL NOT NULL,
		latitude  REAL NOT NULL,
		mag       REAL,
		time      INTEGER NOT NULL,
		UNIQUE (usgs_id, time)
	)`)
	require.NoError(t, err)

	inserted, err := s.InsertBatch(ctx, twoQuakes())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, inserted)

	// A revised event keeps its id under a new time and is a distinct row.
	revised := twoQuakes()[:1]
	revised[0].Values[3] = int64(1700000900000)
	inserted, err = s.InsertBatch(ctx, append(twoQuakes(), revised...))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, inserted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSQLiteStore_InsertBatch_FailureRollsBackBatch(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rows := []Row{
		twoQuakes()[0],
		{Columns: []string{"depth", "usgs_id"}, Values: []any{10.0, "c"}},
	}
	_, err := s.InsertBatch(ctx, rows)
	require.Error(t, err)
	assert.Equal(t, apperr.KindQuery, apperr.KindOf(err))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSQLiteStore_Columns(t *testing.T) {
	s := newTestSQLite(t)

	cols, err := s.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ColumnText, cols["usgs_id"])
	assert.Equal(t, ColumnFloat, cols["longitude"])
	assert.Equal(t, ColumnInteger, cols["time"])
	assert.Equal(t, ColumnGeometry, cols["geometry"])
	assert.Equal(t, ColumnText, cols["magtype"])
}

func TestSQLiteStore_Columns_MissingTable(t *testing.T) {
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "empty.db"), "earthquakes")
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	_, err = s.Columns(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindLookup, apperr.KindOf(err))
}

func TestSQLiteStore_DerivedPasses(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.InsertBatch(ctx, twoQuakes())
	require.NoError(t, err)

	for range 2 {
		n, err := s.UpdatePointGeometry(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = s.UpdateUTCTime(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		var geom, utc string
		err = s.DB().QueryRowContext(ctx,
			`SELECT geometry, utc_time FROM earthquakes WHERE usgs_id = 'a'`).Scan(&geom, &utc)
		require.NoError(t, err)
		assert.Equal(t, "SRID=4326;POINT(10.0 20.0)", geom)
		assert.Equal(t, "2023-11-14T22:13:20Z", utc)
	}
}

func TestSQLiteStore_Search(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.InsertBatch(ctx, twoQuakes())
	require.NoError(t, err)

	minMag := 4.5
	seq, err := s.Search(ctx, SearchOpts{Columns: []string{"USGS_ID", "mag"}, MinMagnitude: &minMag})
	require.NoError(t, err)

	var got []map[string]any
	for rec, err := range seq {
		require.NoError(t, err)
		got = append(got, rec)
	}
	assert.Equal(t, []map[string]any{{"usgs_id": "b", "mag": 4.7}}, got)
}

func TestSQLiteStore_Search_DefaultColumnsNewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.InsertBatch(ctx, twoQuakes())
	require.NoError(t, err)

	seq, err := s.Search(ctx, SearchOpts{Limit: 1})
	require.NoError(t, err)

	var got []map[string]any
	for rec, err := range seq {
		require.NoError(t, err)
		got = append(got, rec)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0]["usgs_id"])
	assert.NotContains(t, got[0], "geometry")
	assert.Contains(t, got[0], "utc_time")
}

func TestSQLiteStore_Search_UnknownColumn(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.Search(context.Background(), SearchOpts{Columns: []string{"depth"}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindLookup, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Column (depth) not in table")
}

func TestSQLiteStore_SyncLog(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	last, err := s.LastSuccess(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, s.StartRun(ctx, RunEntry{ID: "run-1", Table: "earthquakes", StartedAt: t0, InitialCount: 0}))
	require.NoError(t, s.CompleteRun(ctx, "run-1", RunResult{
		CompletedAt:  t0.Add(time.Second),
		FinalCount:   2,
		RowsInserted: 2,
		Metadata:     map[string]any{"skipped": 0},
	}))

	t1 := t0.Add(time.Hour)
	require.NoError(t, s.StartRun(ctx, RunEntry{ID: "run-2", Table: "earthquakes", StartedAt: t1, InitialCount: 2}))
	require.NoError(t, s.FailRun(ctx, "run-2", t1.Add(time.Second), "fetch failed"))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, RunFailed, runs[0].Status)
	assert.Equal(t, "fetch failed", runs[0].Error)
	assert.Equal(t, int64(2), runs[0].InitialCount)

	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, RunComplete, runs[1].Status)
	assert.Equal(t, int64(2), runs[1].FinalCount)
	assert.Equal(t, int64(2), runs[1].RowsInserted)
	require.NotNil(t, runs[1].CompletedAt)
	assert.True(t, t0.Add(time.Second).Equal(*runs[1].CompletedAt))
	assert.Contains(t, runs[1].Metadata, "skipped")

	last, err = s.LastSuccess(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, t0.Equal(*last))
}
