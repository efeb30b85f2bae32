// Package metrics provides Prometheus metrics for the podium rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Fitting metrics.
	fitsTotal         prometheus.Counter
	fitDuration       prometheus.Histogram
	fitIterations     prometheus.Histogram
	fitLastDelta      prometheus.Gauge
	illPosedTotal     prometheus.Counter
	notConvergedTotal prometheus.Counter

	// Leaderboard state.
	competitorsTracked  prometheus.Gauge
	contestsRecorded    prometheus.Gauge
	leaderboardRebuilds prometheus.Counter

	// Ingestion.
	sourceRowsTotal         prometheus.Counter
	sourceErrorsTotal       prometheus.Counter
	duplicateContestsTotal  prometheus.Counter
	submissionQueueDepth    prometheus.Gauge
	submissionQueueCapacity prometheus.Gauge
	submissionsRejected     prometheus.Counter

	// HTTP.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "rating",
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

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.fitsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fits_total",
		Help:      "Total number of completed fit runs",
	})

	m.fitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_duration_seconds",
		Help:      "Wall-clock duration of a full fit",
		Buckets:   m.histogramBuckets,
	})

	m.fitIterations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_iterations",
		Help:      "MM iterations needed to reach the convergence tolerance",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	m.fitLastDelta = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_last_delta",
		Help:      "L2 norm of the final update step of the last fit",
	})

	m.illPosedTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_ill_posed_total",
		Help:      "Fits rejected because the competitor pool was not strongly connected",
	})

	m.notConvergedTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_not_converged_total",
		Help:      "Fits that exhausted the configured iteration cap",
	})

	m.competitorsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competitors_tracked",
		Help:      "Competitors currently on the leaderboard",
	})

	m.contestsRecorded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "contests_recorded",
		Help:      "Contests in the fitted history",
	})

	m.leaderboardRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_rebuilds_total",
		Help:      "Times the leaderboard snapshot was replaced after a fit",
	})

	m.sourceRowsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_rows_total",
		Help:      "Result rows read from ranking sources",
	})

	m.sourceErrorsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_errors_total",
		Help:      "Malformed rows or read failures in ranking sources",
	})

	m.duplicateContestsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_contests_total",
		Help:      "Contest submissions dropped as duplicates",
	})

	m.submissionQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submission_queue_depth",
		Help:      "Contest submissions waiting for the refit loop",
	})

	m.submissionQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submission_queue_capacity",
		Help:      "Configured capacity of the submission queue",
	})

	m.submissionsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_rejected_total",
		Help:      "Contest submissions rejected due to backpressure",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request latency in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"endpoint", "method", "status"})
}

// RecordFit records a completed fit run.
func RecordFit(durationSeconds float64, iterations int, delta float64) {
	globalManager.fitsTotal.Inc()
	globalManager.fitDuration.Observe(durationSeconds)
	globalManager.fitIterations.Observe(float64(iterations))
	globalManager.fitLastDelta.Set(delta)
}

// RecordIllPosed increments the ill-posed fit counter.
func RecordIllPosed() {
	globalManager.illPosedTotal.Inc()
}

// RecordNotConverged increments the iteration-cap counter.
func RecordNotConverged() {
	globalManager.notConvergedTotal.Inc()
}

// UpdateCompetitorsTracked sets the current leaderboard size.
func UpdateCompetitorsTracked(count int) {
	globalManager.competitorsTracked.Set(float64(count))
}

// UpdateContestsRecorded sets the fitted history size.
func UpdateContestsRecorded(count int) {
	globalManager.contestsRecorded.Set(float64(count))
}

// RecordLeaderboardRebuild increments the snapshot replacement counter.
func RecordLeaderboardRebuild() {
	globalManager.leaderboardRebuilds.Inc()
}

// RecordSourceRows adds to the ingested row counter.
func RecordSourceRows(n int) {
	globalManager.sourceRowsTotal.Add(float64(n))
}

// RecordSourceError increments the source error counter.
func RecordSourceError() {
	globalManager.sourceErrorsTotal.Inc()
}

// RecordDuplicateContest increments the duplicate submission counter.
func RecordDuplicateContest() {
	globalManager.duplicateContestsTotal.Inc()
}

// UpdateSubmissionQueueDepth sets the current submission queue depth.
func UpdateSubmissionQueueDepth(depth int) {
	globalManager.submissionQueueDepth.Set(float64(depth))
}

// UpdateSubmissionQueueCapacity sets the configured queue capacity.
func UpdateSubmissionQueueCapacity(capacity int) {
	globalManager.submissionQueueCapacity.Set(float64(capacity))
}

// RecordSubmissionRejected increments the backpressure counter.
func RecordSubmissionRejected() {
	globalManager.submissionsRejected.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// GetRegistry returns the custom registry used by the global manager,
// for serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
