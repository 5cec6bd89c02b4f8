package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/feed"
	"github.com/sells-group/quake-cli/internal/ingest"
	"github.com/sells-group/quake-cli/internal/metrics"
	"github.com/sells-group/quake-cli/internal/notify"
	"github.com/sells-group/quake-cli/internal/store"
	"github.com/sells-group/quake-cli/pkg/usgs"
)

// cycleOpts configures one ingestion cycle. Nil dependencies are created
// and released by runCycle itself.
type cycleOpts struct {
	derive    bool
	file      string // read the feed from a local GeoJSON file instead of fetching
	store     store.Store
	publisher notify.Publisher
	metrics   *metrics.Metrics
	feed      usgs.Client
}

type cycleResult struct {
	Ingest *ingest.Result      `json:"ingest"`
	Passes []ingest.PassResult `json:"passes,omitempty"`
}

// runCycle connects to the store, reads the feed, inserts unseen records, and
// optionally runs the derived-column passes. Progress lines go to out.
func runCycle(ctx context.Context, out io.Writer, opts cycleOpts) (*cycleResult, error) {
	if err := cfg.Validate("feed"); err != nil {
		return nil, err
	}
	if opts.file == "" {
		if err := validateFeedRequest(feedRequest("", "", "")); err != nil {
			return nil, err
		}
	}

	st := opts.store
	if st == nil {
		s, err := openStore(ctx, cfg.Store.MaxConns)
		if err != nil {
			return nil, err
		}
		defer s.Close() //nolint:errcheck
		st = s
	}

	pub := opts.publisher
	if pub == nil {
		p, err := newPublisher()
		if err != nil {
			return nil, err
		}
		defer p.Close() //nolint:errcheck
		pub = p
	}

	m := opts.metrics
	if m == nil {
		m = metrics.NewUnregistered()
	}

	fmt.Fprintln(out, "Reading data from USGS, inserting new records")

	data, err := readFeed(ctx, opts)
	if err != nil {
		return nil, err
	}
	m.FeedBytes.Add(float64(len(data)))

	fc, err := feed.Decode(data)
	if err != nil {
		return nil, err
	}

	in := newIngester(st, pub, m, out)
	res := &cycleResult{}
	res.Ingest, err = in.Run(ctx, feed.Records(fc))
	if err != nil {
		return nil, err
	}

	if opts.derive {
		res.Passes, err = in.Derive(ctx)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func readFeed(ctx context.Context, opts cycleOpts) ([]byte, error) {
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, apperr.Configuration(eris.Wrapf(err, "read feed file %s", opts.file))
		}
		zap.L().Info("read feed from file", zap.String("path", opts.file), zap.Int("bytes", len(data)))
		return data, nil
	}

	req := feedRequest("", "", "")
	client := opts.feed
	if client == nil {
		client = newFeedClient(newFeedFetcher())
	}

	var text string
	var err error
	if cfg.Feed.OutFile != "" {
		text, err = client.FetchToFile(ctx, req, cfg.Feed.OutFile)
	} else {
		text, err = client.Fetch(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// validateFeedRequest rejects a configured feed that ingestion cannot read.
func validateFeedRequest(req usgs.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Format != usgs.FormatGeoJSON {
		return apperr.Configuration(eris.Errorf("ingestion reads the %s feed, got feed.format %q", usgs.FormatGeoJSON, req.Format))
	}
	return nil
}
