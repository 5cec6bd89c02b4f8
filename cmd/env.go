package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/fetcher"
	"github.com/sells-group/quake-cli/internal/ingest"
	"github.com/sells-group/quake-cli/internal/metrics"
	"github.com/sells-group/quake-cli/internal/notify"
	"github.com/sells-group/quake-cli/internal/store"
	"github.com/sells-group/quake-cli/pkg/usgs"
)

// openStore connects to the configured backend. Tests replace it.
var openStore = func(ctx context.Context, maxConns int32) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(ctx, cfg.Store.SQLitePath, cfg.Ingest.Table)
	case "postgres":
		dsn, err := cfg.Postgres.ConnString()
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(ctx, dsn, cfg.Ingest.Table, &store.PoolConfig{MaxConns: maxConns})
	default:
		return nil, apperr.Configuration(eris.Errorf("unsupported store driver: %s", cfg.Store.Driver))
	}
}

// newFeedFetcher builds the HTTP fetcher from feed settings. Its per-host
// rate limiters live as long as the fetcher.
func newFeedFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Feed.UserAgent,
		Timeout:    cfg.Feed.Timeout(),
		RatePerSec: cfg.Feed.RatePerSec,
	})
}

// newFeedClient builds the USGS client over f.
func newFeedClient(f fetcher.Fetcher) usgs.Client {
	return usgs.NewClient(f, usgs.WithBaseURL(cfg.Feed.BaseURL))
}

// feedRequest returns the configured request with any non-empty overrides.
func feedRequest(format, period, magnitude string) usgs.Request {
	req := usgs.Request{
		Format:    usgs.Format(cfg.Feed.Format),
		Period:    usgs.Period(cfg.Feed.Period),
		Magnitude: usgs.Magnitude(cfg.Feed.Magnitude),
	}
	if format != "" {
		req.Format = usgs.Format(format)
	}
	if period != "" {
		req.Period = usgs.Period(period)
	}
	if magnitude != "" {
		req.Magnitude = usgs.Magnitude(magnitude)
	}
	return req
}

// newPublisher returns a Kafka publisher when brokers are configured.
func newPublisher() (notify.Publisher, error) {
	if !cfg.Kafka.Enabled() {
		return notify.Nop{}, nil
	}
	return notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

func newIngester(s store.Store, pub notify.Publisher, m *metrics.Metrics, progress io.Writer) *ingest.Ingester {
	return ingest.New(s, ingest.Options{
		BatchSize: cfg.Ingest.BatchSize,
		Strict:    cfg.Ingest.StrictColumns,
		Publisher: pub,
		Metrics:   m,
		Progress:  progress,
	})
}
