// Package ingest drives one ingestion cycle: count, insert with conflict-skip,
// recount, and the derived-column passes.
package ingest

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/feed"
	"github.com/sells-group/quake-cli/internal/metrics"
	"github.com/sells-group/quake-cli/internal/notify"
	"github.com/sells-group/quake-cli/internal/store"
)

// Options configures an Ingester. Zero values fall back to defaults.
type Options struct {
	// BatchSize is the number of records per transaction. Default 1.
	BatchSize int
	// Strict fails on attributes with no matching column instead of
	// dropping them.
	Strict bool
	// Publisher receives inserted records after each commit.
	Publisher notify.Publisher
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock
	// Progress receives one human-readable line per phase.
	Progress io.Writer
}

// Result summarizes an ingestion cycle.
type Result struct {
	RunID    string        `json:"run_id"`
	Initial  int64         `json:"initial"`
	Final    int64         `json:"final"`
	Added    int64         `json:"added"`
	Records  int           `json:"records"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Elapsed  time.Duration `json:"elapsed"`

	// logged is set once the run has a sync log entry.
	logged bool
}

// Ingester writes normalized feed records into a store.
type Ingester struct {
	store store.Store
	opts  Options
}

// New creates an Ingester over s.
func New(s store.Store, opts Options) *Ingester {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.Publisher == nil {
		opts.Publisher = notify.Nop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewUnregistered()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Ingester{store: s, opts: opts}
}

// Run inserts every record in feed order. Each batch commits on its own, so a
// failure leaves earlier batches in place. The cycle is recorded in the sync
// log as complete or failed when the log is available; sync log errors never
// stop ingestion.
func (in *Ingester) Run(ctx context.Context, records iter.Seq2[feed.Record, error]) (*Result, error) {
	log := zap.L().With(zap.String("component", "ingest"), zap.String("table", in.store.Table()))
	start := in.opts.Clock.Now()

	if err := in.store.Ping(ctx); err != nil {
		return nil, err
	}
	cols, err := in.store.Columns(ctx)
	if err != nil {
		return nil, err
	}
	initial, err := in.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Initial: initial}
	if err := in.store.StartRun(ctx, store.RunEntry{
		ID:           res.RunID,
		Table:        in.store.Table(),
		StartedAt:    start.UTC(),
		InitialCount: initial,
	}); err != nil {
		log.Warn("sync log unavailable, continuing without run history", zap.Error(err))
	} else {
		res.logged = true
	}
	log = log.With(zap.String("run_id", res.RunID))
	log.Info("ingestion started", zap.Int64("initial", initial), zap.Int("batch_size", in.opts.BatchSize))

	if err := in.insertAll(ctx, log, cols, records, res); err != nil {
		return nil, in.fail(ctx, log, res, start, err)
	}

	final, err := in.store.Count(ctx)
	if err != nil {
		return nil, in.fail(ctx, log, res, start, err)
	}
	res.Final = final
	res.Added = final - initial
	res.Elapsed = in.opts.Clock.Since(start)

	fmt.Fprintf(in.opts.Progress, "   - %d rows added (%d -> %d)\n", res.Added, initial, final)

	done := in.opts.Clock.Now().UTC()
	if res.logged {
		if err := in.store.CompleteRun(ctx, res.RunID, store.RunResult{
			CompletedAt:  done,
			FinalCount:   final,
			RowsInserted: int64(res.Inserted),
			Metadata: map[string]any{
				"records":    res.Records,
				"skipped":    res.Skipped,
				"batch_size": in.opts.BatchSize,
			},
		}); err != nil {
			log.Warn("failed to record run completion", zap.Error(err))
		}
	}

	in.opts.Metrics.RunsTotal.WithLabelValues(string(store.RunComplete)).Inc()
	in.opts.Metrics.RunDuration.Observe(res.Elapsed.Seconds())
	in.opts.Metrics.TableRows.Set(float64(final))
	in.opts.Metrics.LastSuccessUnix.Set(float64(done.Unix()))

	log.Info("ingestion complete",
		zap.Int64("added", res.Added),
		zap.Int("records", res.Records),
		zap.Int("skipped", res.Skipped),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (in *Ingester) insertAll(ctx context.Context, log *zap.Logger, cols store.Columns, records iter.Seq2[feed.Record, error], res *Result) error {
	batch := make([]store.Row, 0, in.opts.BatchSize)
	attrs := make(map[string]map[string]any, in.opts.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		ids, err := in.store.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		res.Inserted += len(ids)
		res.Skipped += len(batch) - len(ids)
		in.opts.Metrics.RowsInserted.Add(float64(len(ids)))
		in.opts.Metrics.RowsSkipped.Add(float64(len(batch) - len(ids)))
		in.publish(ctx, log, ids, attrs)

		batch = batch[:0]
		clear(attrs)
		return nil
	}

	for rec, err := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			in.opts.Metrics.RecordErrors.Inc()
			return err
		}
		res.Records++
		in.opts.Metrics.RecordsSeen.Inc()

		a := rec.Attributes()
		row, err := store.BuildRow(a, cols, in.opts.Strict)
		if err != nil {
			in.opts.Metrics.RecordErrors.Inc()
			return eris.Wrapf(err, "ingest: record %s", rec.USGSID)
		}
		batch = append(batch, row)
		attrs[rec.USGSID] = a

		if len(batch) >= in.opts.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// publish hands inserted records to the publisher. Rows are already
// committed, so a publish failure is logged and the run continues.
func (in *Ingester) publish(ctx context.Context, log *zap.Logger, ids []string, attrs map[string]map[string]any) {
	if len(ids) == 0 {
		return
	}
	now := in.opts.Clock.Now().UTC()
	events := make([]notify.Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, notify.Event{
			USGSID:     id,
			Table:      in.store.Table(),
			IngestedAt: now,
			Attributes: attrs[id],
		})
	}
	if err := in.opts.Publisher.Publish(ctx, events); err != nil {
		log.Warn("publish inserted records failed", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (in *Ingester) fail(ctx context.Context, log *zap.Logger, res *Result, start time.Time, cause error) error {
	elapsed := in.opts.Clock.Since(start)
	log.Error("ingestion failed", zap.Error(cause), zap.Duration("elapsed", elapsed))

	// Record the failure even when ctx is already canceled.
	if res.logged {
		if err := in.store.FailRun(context.WithoutCancel(ctx), res.RunID, in.opts.Clock.Now().UTC(), cause.Error()); err != nil {
			log.Warn("failed to record run failure", zap.Error(err))
		}
	}
	in.opts.Metrics.RunsTotal.WithLabelValues(string(store.RunFailed)).Inc()
	in.opts.Metrics.RunDuration.Observe(elapsed.Seconds())
	return cause
}
