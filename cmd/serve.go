package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/quake-cli/internal/api"
	"github.com/sells-group/quake-cli/internal/fetcher"
	"github.com/sells-group/quake-cli/internal/metrics"
)

// serveMinConns leaves room for API reads while a cycle holds a connection.
const serveMinConns = 4

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ingest on an interval and serve the read API",
	Long: "Runs one ingestion cycle immediately and then every server.interval, never two at once, " +
		"while serving /healthz, /readyz, /metrics and the /v1 read routes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := openStore(ctx, max(cfg.Store.MaxConns, serveMinConns))
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pub, err := newPublisher()
		if err != nil {
			return err
		}
		defer pub.Close() //nolint:errcheck

		m := metrics.NewMetrics()
		srv := api.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), st)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			f := newFeedFetcher()
			opts := cycleOpts{derive: true, store: st, publisher: pub, metrics: m, feed: newFeedClient(f)}
			return runEvery(gctx, clockwork.NewRealClock(), cfg.Server.Interval, serveCycle(cmd.OutOrStdout(), opts, f))
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// serveCycle returns one scheduled ingestion. opts.feed is built over f once,
// so a 429 in one cycle slows the fetches of the cycles after it.
func serveCycle(out io.Writer, opts cycleOpts, f *fetcher.HTTPFetcher) func(context.Context) {
	return func(ctx context.Context) {
		res, err := runCycle(ctx, out, opts)
		feedRate := zap.Float64("feed_rate", float64(f.Limit(cfg.Feed.BaseURL)))
		if err != nil {
			zap.L().Error("ingestion cycle failed", zap.Error(err), feedRate)
			return
		}
		zap.L().Info("ingestion cycle complete",
			zap.String("run_id", res.Ingest.RunID),
			zap.Int64("added", res.Ingest.Added),
			feedRate,
		)
	}
}

// runEvery calls fn immediately and then on every tick until ctx is done.
// fn runs on the calling goroutine, so calls never overlap; ticks that
// arrive while fn is running are dropped.
func runEvery(ctx context.Context, clock clockwork.Clock, interval time.Duration, fn func(context.Context)) error {
	fn(ctx)

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx)
		}
	}
}
