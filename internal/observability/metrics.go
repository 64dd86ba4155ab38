package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest pipeline and the view refresher.
type Metrics struct {
	RecordsConsumed    prometheus.Counter
	RecordsDropped     *prometheus.CounterVec // labels: reason={schema,validation}
	ObservationsStored prometheus.Counter
	AlertsPublished    prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize           prometheus.Histogram
	IngestBatchDuration prometheus.Histogram

	// View refresh metrics.
	RefreshesTotal  prometheus.Counter
	RefreshFailures prometheus.Counter
	RefreshDuration prometheus.Histogram
	ViewRows        *prometheus.GaugeVec // label: view
	SnapshotsTotal  prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_consumed_total",
			Help:      "Total raw records read from the source topic.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_dropped_total",
			Help:      "Records excluded from the canonical dataset by reason.",
		}, []string{"reason"}),
		ObservationsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "observations_stored_total",
			Help:      "Total canonical observations upserted into storage.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "alerts_published_total",
			Help:      "Total alert records written to the alert topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "pipeline_running",
			Help:      "1 when the ingest pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		IngestBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RefreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "refreshes_total",
			Help:      "Total derived-view refresh attempts.",
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "refresh_failures_total",
			Help:      "Derived-view refreshes that did not complete.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a full derived-view recomputation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ViewRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "view_rows",
			Help:      "Row count per derived view after the last refresh.",
		}, []string{"view"}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "snapshots_total",
			Help:      "Total canonical dataset snapshots captured.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsConsumed,
		m.RecordsDropped,
		m.ObservationsStored,
		m.AlertsPublished,
		m.PipelineRunning,
		m.BatchSize,
		m.IngestBatchDuration,
		m.RefreshesTotal,
		m.RefreshFailures,
		m.RefreshDuration,
		m.ViewRows,
		m.SnapshotsTotal,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsConsumed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "records_consumed_total"}),
		RecordsDropped:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_etl", Name: "records_dropped_total"}, []string{"reason"}),
		ObservationsStored:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "observations_stored_total"}),
		AlertsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "alerts_published_total"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_etl", Name: "pipeline_running"}),
		BatchSize:           prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_etl", Name: "batch_size"}),
		IngestBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_etl", Name: "ingest_batch_duration_seconds"}),
		RefreshesTotal:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "refreshes_total"}),
		RefreshFailures:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "refresh_failures_total"}),
		RefreshDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_etl", Name: "refresh_duration_seconds"}),
		ViewRows:            prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "weather_etl", Name: "view_rows"}, []string{"view"}),
		SnapshotsTotal:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "snapshots_total"}),
	}
}
