// Package metrics exposes Prometheus collectors for ingestion cycles.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake"

// Metrics holds the counters, gauges, and histograms for ingestion.
type Metrics struct {
	RecordsSeen     prometheus.Counter
	RowsInserted    prometheus.Counter
	RowsSkipped     prometheus.Counter
	RecordErrors    prometheus.Counter
	RunsTotal       *prometheus.CounterVec // labels: status={complete,failed}
	RunDuration     prometheus.Histogram
	DeriveDuration  *prometheus.HistogramVec // labels: pass={geometry,utc_time}
	TableRows       prometheus.Gauge
	LastSuccessUnix prometheus.Gauge
	FeedBytes       prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_seen_total",
			Help:      "Feed records read by ingestion.",
		}),
		RowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Rows written to the target table.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Records discarded because their usgs_id already existed.",
		}),
		RecordErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Feed records that could not be normalized or mapped to a row.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ingestion cycles by final status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one ingestion cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		DeriveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "derive_duration_seconds",
			Help:      "Duration of a derived-column pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"pass"}),
		TableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Row count of the target table after the last cycle.",
		}),
		LastSuccessUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful cycle finished.",
		}),
		FeedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_bytes_total",
			Help:      "Bytes of feed text fetched.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsSeen,
		m.RowsInserted,
		m.RowsSkipped,
		m.RecordErrors,
		m.RunsTotal,
		m.RunDuration,
		m.DeriveDuration,
		m.TableRows,
		m.LastSuccessUnix,
		m.FeedBytes,
	)

	return m
}

// NewUnregistered creates Metrics outside any registry. Commands that expose
// no /metrics endpoint and tests use it; repeated calls never collide.
func NewUnregistered() *Metrics {
	return &Metrics{
		RecordsSeen:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "records_seen_total"}),
		RowsInserted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rows_inserted_total"}),
		RowsSkipped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rows_skipped_total"}),
		RecordErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "record_errors_total"}),
		RunsTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "runs_total"}, []string{"status"}),
		RunDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "run_duration_seconds"}),
		DeriveDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "derive_duration_seconds"}, []string{"pass"}),
		TableRows:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "table_rows"}),
		LastSuccessUnix: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "last_success_timestamp_seconds"}),
		FeedBytes:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "feed_bytes_total"}),
	}
}
