package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIgnoreSQL(t *testing.T) {
	stmt, err := InsertIgnoreSQL(InsertConfig{
		Table:        "earthquakes",
		Columns:      []string{"usgs_id", "mag"},
		ConflictKeys: []string{"usgs_id"},
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "earthquakes" ("usgs_id", "mag") VALUES ($1, $2) ON CONFLICT ("usgs_id") DO NOTHING`, stmt)
}

func TestInsertIgnoreSQL_QuestionPlaceholders(t *testing.T) {
	stmt, err := InsertIgnoreSQL(InsertConfig{
		Table:        "earthquakes",
		Columns:      []string{"usgs_id", "time"},
		ConflictKeys: []string{"usgs_id"},
		Placeholder:  Question,
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "earthquakes" ("usgs_id", "time") VALUES (?, ?) ON CONFLICT ("usgs_id") DO NOTHING`, stmt)
}

func TestInsertIgnoreSQL_NoColumns(t *testing.T) {
	_, err := InsertIgnoreSQL(InsertConfig{Table: "earthquakes", ConflictKeys: []string{"usgs_id"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestInsertIgnoreSQL_NoConflictTarget(t *testing.T) {
	stmt, err := InsertIgnoreSQL(InsertConfig{Table: "public.earthquakes", Columns: []string{"usgs_id", "time"}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "public"."earthquakes" ("usgs_id", "time") VALUES ($1, $2) ON CONFLICT DO NOTHING`, stmt)
}

func TestInsertIgnore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cfg := InsertConfig{
		Table:        "earthquakes",
		Columns:      []string{"usgs_id", "mag"},
		ConflictKeys: []string{"usgs_id"},
	}
	stmt, err := InsertIgnoreSQL(cfg)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(stmt)).
		WithArgs("a", 2.5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(stmt)).
		WithArgs("a", 2.5).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := InsertIgnore(context.Background(), mock, cfg, []any{"a", 2.5})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = InsertIgnore(context.Background(), mock, cfg, []any{"a", 2.5})
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate should be skipped")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIgnore_ExecError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "earthquakes"`).
		WillReturnError(errors.New("relation does not exist"))

	_, err = InsertIgnore(context.Background(), mock, InsertConfig{
		Table:        "earthquakes",
		Columns:      []string{"usgs_id"},
		ConflictKeys: []string{"usgs_id"},
	}, []any{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: insert into earthquakes")
}

func TestInsertIgnore_ArgCountMismatch(t *testing.T) {
	_, err := InsertIgnore(context.Background(), nil, InsertConfig{
		Table:        "earthquakes",
		Columns:      []string{"usgs_id", "mag"},
		ConflictKeys: []string{"usgs_id"},
	}, []any{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 values for 2 columns")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"earthquakes", `"earthquakes"`},
		{"public.earthquakes", `"public"."earthquakes"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"usgs_id", "magtype", "time"`, QuoteAndJoin([]string{"usgs_id", "magtype", "time"}))
}
