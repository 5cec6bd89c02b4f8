package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Pass names, in the order Derive runs them.
const (
	PassPointGeometry = "update_point_geom"
	PassUTCTime       = "update_utc_time"
)

// PassResult reports the rows one derived-column pass touched.
type PassResult struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// Derive recomputes geometry and utc_time over the whole table. Both passes
// are idempotent and run unconditionally, even when nothing was inserted.
func (in *Ingester) Derive(ctx context.Context) ([]PassResult, error) {
	log := zap.L().With(zap.String("component", "ingest.derive"), zap.String("table", in.store.Table()))

	passes := []struct {
		name  string
		label string
		run   func(context.Context) (int64, error)
	}{
		{PassPointGeometry, "geometry", in.store.UpdatePointGeometry},
		{PassUTCTime, "utc_time", in.store.UpdateUTCTime},
	}

	results := make([]PassResult, 0, len(passes))
	for _, p := range passes {
		fmt.Fprintf(in.opts.Progress, "\n    - %s\n", p.name)

		start := in.opts.Clock.Now()
		n, err := p.run(ctx)
		elapsed := in.opts.Clock.Since(start)
		if err != nil {
			log.Error("pass failed", zap.String("pass", p.name), zap.Error(err))
			return results, err
		}
		in.opts.Metrics.DeriveDuration.WithLabelValues(p.label).Observe(elapsed.Seconds())
		log.Info("pass complete", zap.String("pass", p.name), zap.Int64("rows", n), zap.Duration("elapsed", elapsed))
		results = append(results, PassResult{Name: p.name, Rows: n})
	}
	return results, nil
}
