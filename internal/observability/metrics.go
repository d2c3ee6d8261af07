package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest loop, the analysis engine, and the satellite data provider.
type Metrics struct {
	ReadingsConsumed prometheus.Counter
	ReadingsRejected prometheus.Counter
	ReadingsClamped  prometheus.Counter
	IngestRunning    prometheus.Gauge

	// Batch ingest metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Analysis metrics.
	AnalysisRequests prometheus.Counter
	AnalysisErrors   prometheus.Counter
	AnalysisDuration prometheus.Histogram
	GapFilledDays    *prometheus.CounterVec // labels: source
	ClampEvents      prometheus.Counter
	AlertsPublished  prometheus.Counter

	// Satellite provider metrics.
	ProviderRequests    *prometheus.CounterVec   // labels: dataset, outcome={success,error,empty}
	ProviderCache       *prometheus.CounterVec   // labels: dataset, result={hit,miss}
	ProviderAPIDuration *prometheus.HistogramVec // labels: dataset
	ProviderEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "readings_consumed_total",
			Help:      "Total telemetry messages read from the source topic.",
		}),
		ReadingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "readings_rejected_total",
			Help:      "Total telemetry messages skipped as unparseable.",
		}),
		ReadingsClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "readings_clamped_total",
			Help:      "Total out-of-range measurements clamped during ingest.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "field_physics",
			Name:      "ingest_running",
			Help:      "1 when the ingest loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "field_physics",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "field_physics",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-parse-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		AnalysisRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "analysis_requests_total",
			Help:      "Total analysis invocations.",
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "analysis_errors_total",
			Help:      "Total analysis invocations that failed.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "field_physics",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of one full analysis (fetch, compose, summarize).",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		GapFilledDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "gap_filled_days_total",
			Help:      "Days default-filled during analysis, by data source.",
		}, []string{"source"}),
		ClampEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "clamp_events_total",
			Help:      "Out-of-domain inputs clamped during analysis.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "alerts_published_total",
			Help:      "Stress alerts published to the alert topic.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "provider_requests_total",
			Help:      "Satellite data requests by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		ProviderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "field_physics",
			Name:      "provider_cache_total",
			Help:      "Satellite series cache lookups by dataset and result.",
		}, []string{"dataset", "result"}),
		ProviderAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "field_physics",
			Name:      "provider_api_duration_seconds",
			Help:      "Satellite data API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"dataset"}),
		ProviderEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "field_physics",
			Name:      "provider_enabled",
			Help:      "1 when the satellite data provider is configured, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsConsumed,
		m.ReadingsRejected,
		m.ReadingsClamped,
		m.IngestRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.AnalysisRequests,
		m.AnalysisErrors,
		m.AnalysisDuration,
		m.GapFilledDays,
		m.ClampEvents,
		m.AlertsPublished,
		m.ProviderRequests,
		m.ProviderCache,
		m.ProviderAPIDuration,
		m.ProviderEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "field_physics", Name: "readings_consumed_total"}),
		ReadingsRejected:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "field_physics", Name: "readings_rejected_total"}),
		ReadingsClamped:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "field_physics", Name: "readings_clamped_total"}),
		IngestRunning:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "field_physics", Name: "ingest_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "field_physics", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "field_physics", Name: "batch_processing_duration_seconds"}),
		AnalysisRequests:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "field_physics", Name: "analysis_requests_total"}),
		AnalysisErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "field_physics", Name: "analysis_errors_total"}),
		AnalysisDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "field_physics", Name: "analysis_duration_seconds"}),
		GapFilledDays:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "field_physics", Name: "gap_filled_days_total"}, []string{"source"}),
		ClampEvents:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "field_physics", Name: "clamp_events_total"}),
		AlertsPublished:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "field_physics", Name: "alerts_published_total"}),
		ProviderRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "field_physics", Name: "provider_requests_total"}, []string{"dataset", "outcome"}),
		ProviderCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "field_physics", Name: "provider_cache_total"}, []string{"dataset", "result"}),
		ProviderAPIDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "field_physics", Name: "provider_api_duration_seconds"}, []string{"dataset"}),
		ProviderEnabled:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "field_physics", Name: "provider_enabled"}),
	}
}
