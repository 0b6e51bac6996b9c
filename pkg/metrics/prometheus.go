package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	documentFetches *prometheus.CounterVec
	parseResults    *prometheus.CounterVec
	cacheEvents     *prometheus.CounterVec
	refreshDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		documentFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpull_document_fetches_total",
				Help: "Report document fetch attempts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		parseResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpull_parse_results_total",
				Help: "Report parse attempts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpull_cache_events_total",
				Help: "Payload cache events (hit, miss, stale, write_error)",
			},
			[]string{"event"},
		),
		refreshDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marketpull_refresh_duration_seconds",
				Help:    "Duration of full pipeline refreshes in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordFetch records a document fetch attempt.
func (r *Recorder) RecordFetch(source, outcome string) {
	r.documentFetches.WithLabelValues(source, outcome).Inc()
}

// RecordParse records a parse attempt.
func (r *Recorder) RecordParse(source, outcome string) {
	r.parseResults.WithLabelValues(source, outcome).Inc()
}

// RecordCacheEvent records a payload cache event.
func (r *Recorder) RecordCacheEvent(event string) {
	r.cacheEvents.WithLabelValues(event).Inc()
}

// RecordRefreshDuration records a full refresh duration in seconds.
func (r *Recorder) RecordRefreshDuration(seconds float64) {
	r.refreshDuration.Observe(seconds)
}
