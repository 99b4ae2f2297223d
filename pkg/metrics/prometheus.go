// Package metrics provides Prometheus metrics for the tatami rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Core business metrics
	matchesRecorded  prometheus.Counter
	matchesRejected  prometheus.Counter
	matchesDuplicate prometheus.Counter
	ratingDelta      prometheus.Histogram

	// Recalculation metrics
	recalcRuns     prometheus.Counter
	recalcDuration prometheus.Histogram
	recalcSkipped  prometheus.Counter
	recalcLastUnix prometheus.Gauge

	// Read-path metrics
	ladderQueries    *prometheus.CounterVec
	ladderBuildMs    prometheus.Histogram
	oddsPreviews     prometheus.Counter
	oddsDegenerate   prometheus.Counter
	totalCompetitors prometheus.Gauge
	totalMatches     prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryBytes prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPauseMs   prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tatami",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_recorded_total",
		Help:      "Total number of matches recorded through the incremental path",
	})

	m.matchesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_rejected_total",
		Help:      "Total number of matches rejected as invalid",
	})

	m.matchesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_duplicate_total",
		Help:      "Total number of duplicate match submissions detected",
	})

	m.ratingDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_delta_points",
		Help:      "Histogram of absolute rating deltas applied per match side",
		Buckets:   []float64{1, 2, 4, 8, 16, 24, 32},
	})

	m.recalcRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculations_total",
		Help:      "Total number of full history replays",
	})

	m.recalcDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculation_duration_milliseconds",
		Help:      "Full replay duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.recalcSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculation_skipped_matches_total",
		Help:      "Total number of matches skipped during replays",
	})

	m.recalcLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculation_last_unix",
		Help:      "Unix timestamp of the last completed replay",
	})

	m.ladderQueries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ladder_queries_total",
			Help:      "Total number of ladder queries by scope kind",
		},
		[]string{"scope"},
	)

	m.ladderBuildMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ladder_build_duration_milliseconds",
		Help:      "Ladder build duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.oddsPreviews = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "odds_previews_total",
		Help:      "Total number of odds previews served",
	})

	m.oddsDegenerate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "odds_degenerate_total",
		Help:      "Total number of previews hitting the infinite-odds sentinel",
	})

	m.totalCompetitors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_competitors",
		Help:      "Total number of competitors tracked",
	})

	m.totalMatches = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_matches",
		Help:      "Total number of matches in the history",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryBytes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers operating on the global manager.

// RecordMatchRecorded increments the recorded-match counter.
func RecordMatchRecorded() {
	globalManager.matchesRecorded.Inc()
}

// RecordMatchRejected increments the rejected-match counter.
func RecordMatchRejected() {
	globalManager.matchesRejected.Inc()
}

// RecordMatchDuplicate increments the duplicate-match counter.
func RecordMatchDuplicate() {
	globalManager.matchesDuplicate.Inc()
}

// RecordRatingDelta observes the absolute rating delta applied to one side.
func RecordRatingDelta(delta float64) {
	if delta < 0 {
		delta = -delta
	}
	globalManager.ratingDelta.Observe(delta)
}

// RecordRecalculation records a completed full replay.
func RecordRecalculation(durationMs float64, skipped int) {
	globalManager.recalcRuns.Inc()
	globalManager.recalcDuration.Observe(durationMs)
	globalManager.recalcSkipped.Add(float64(skipped))
}

// UpdateRecalculationLastUnix sets the timestamp of the last completed replay.
func UpdateRecalculationLastUnix(ts float64) {
	globalManager.recalcLastUnix.Set(ts)
}

// RecordLadderQuery increments the ladder query counter for a scope kind.
func RecordLadderQuery(scope string) {
	globalManager.ladderQueries.WithLabelValues(scope).Inc()
}

// RecordLadderBuildLatency observes a ladder build duration.
func RecordLadderBuildLatency(latencyMs float64) {
	globalManager.ladderBuildMs.Observe(latencyMs)
}

// RecordOddsPreview increments the odds preview counter.
func RecordOddsPreview() {
	globalManager.oddsPreviews.Inc()
}

// RecordOddsDegenerate increments the degenerate-odds counter.
func RecordOddsDegenerate() {
	globalManager.oddsDegenerate.Inc()
}

// UpdateTotalCompetitors sets the competitor count gauge.
func UpdateTotalCompetitors(count int) {
	globalManager.totalCompetitors.Set(float64(count))
}

// UpdateTotalMatches sets the match count gauge.
func UpdateTotalMatches(count int) {
	globalManager.totalMatches.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryBytes.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause duration.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseMs.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
