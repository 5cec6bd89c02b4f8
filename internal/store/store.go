// Package store persists earthquake rows and the ingestion sync log.
package store

import (
	"context"
	"iter"
	"time"
)

// Fixed column names the ingestion cycle relies on.
const (
	KeyColumn       = "usgs_id"
	LongitudeColumn = "longitude"
	LatitudeColumn  = "latitude"
	TimeColumn      = "time"
	MagColumn       = "mag"
	GeometryColumn  = "geometry"
	UTCTimeColumn   = "utc_time"
)

// SyncLogTable records one row per ingestion cycle.
const SyncLogTable = "quake_sync_log"

// RunStatus is the lifecycle state of a sync log entry.
type RunStatus string

// Run states.
const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// RunEntry is one row of the sync log.
type RunEntry struct {
	ID           string         `json:"id" yaml:"id"`
	Table        string         `json:"table" yaml:"table"`
	Status       RunStatus      `json:"status" yaml:"status"`
	StartedAt    time.Time      `json:"started_at" yaml:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	InitialCount int64          `json:"initial_count" yaml:"initial_count"`
	FinalCount   int64          `json:"final_count" yaml:"final_count"`
	RowsInserted int64          `json:"rows_inserted" yaml:"rows_inserted"`
	Error        string         `json:"error,omitempty" yaml:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// RunResult closes out a successful run.
type RunResult struct {
	CompletedAt  time.Time
	FinalCount   int64
	RowsInserted int64
	Metadata     map[string]any
}

// SearchOpts filters a Search.
type SearchOpts struct {
	// Columns to select; empty selects every non-geometry column.
	Columns []string
	// MinMagnitude keeps rows with mag >= the value when set.
	MinMagnitude *float64
	// Limit caps the result size when > 0.
	Limit int
}

// Store is the data-store adapter for one target table.
//
// InsertBatch is the conflict-skip contract: rows whose usgs_id already exists
// are silently discarded, never updated and never reported as errors. Each
// call runs in one transaction; a failure rolls back that batch only.
type Store interface {
	// Table returns the target table name.
	Table() string
	// Ping verifies the connection is usable.
	Ping(ctx context.Context) error

	// Count returns the exact row count of the target table.
	Count(ctx context.Context) (int64, error)
	// EstimateCount returns the planner's row estimate without a scan.
	EstimateCount(ctx context.Context) (int64, error)
	// Columns discovers the target table's columns and their kinds.
	Columns(ctx context.Context) (Columns, error)

	// InsertBatch inserts rows with conflict-skip semantics in one
	// transaction and returns the usgs_ids actually written.
	InsertBatch(ctx context.Context, rows []Row) ([]string, error)
	// UpdatePointGeometry sets geometry from longitude/latitude for every row.
	UpdatePointGeometry(ctx context.Context) (int64, error)
	// UpdateUTCTime sets utc_time from the epoch-millisecond time column.
	UpdateUTCTime(ctx context.Context) (int64, error)

	// Search selects validated columns. The query runs when the sequence is
	// first iterated; column validation happens up front.
	Search(ctx context.Context, opts SearchOpts) (iter.Seq2[map[string]any, error], error)

	// Sync log
	StartRun(ctx context.Context, run RunEntry) error
	CompleteRun(ctx context.Context, id string, result RunResult) error
	FailRun(ctx context.Context, id string, completedAt time.Time, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]RunEntry, error)
	LastSuccess(ctx context.Context) (*time.Time, error)

	Close() error
}
