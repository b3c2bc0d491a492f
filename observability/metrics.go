package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentiment_dashboard"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Upstream sentiment API metrics
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamErrorsTotal   *prometheus.CounterVec
	UpstreamRetriesTotal  *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec

	// View metrics
	ViewLoadsTotal       *prometheus.CounterVec
	ViewLoadDuration     *prometheus.HistogramVec
	StaleSnapshotsServed *prometheus.CounterVec
	DataQualityIssues    *prometheus.CounterVec
	LeaderboardSize      *prometheus.GaugeVec
	LeaderboardIndex     *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// indexBuckets cover the sentiment index range [-1, 1]
var indexBuckets = []float64{-1, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1}

var (
	globalMetrics *Metrics
	metricsMu     sync.Mutex
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of sentiment API requests",
			},
			[]string{"operation"},
		),
		UpstreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Total number of failed sentiment API requests",
			},
			[]string{"operation", "error_type"},
		),
		UpstreamRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "retries_total",
				Help:      "Total number of retried sentiment API requests",
			},
			[]string{"operation"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Duration of sentiment API requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation"},
		),

		ViewLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "view",
				Name:      "loads_total",
				Help:      "Total number of view loads by outcome",
			},
			[]string{"view", "status"},
		),
		ViewLoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "view",
				Name:      "load_duration_seconds",
				Help:      "Duration of view loads including all upstream calls",
				Buckets:   defaultBuckets,
			},
			[]string{"view"},
		),
		StaleSnapshotsServed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "view",
				Name:      "stale_snapshots_served_total",
				Help:      "Total number of times the last good snapshot was served after a failed refresh",
			},
			[]string{"view"},
		),
		DataQualityIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "data_quality",
				Name:      "issues_total",
				Help:      "Total number of upstream records violating the data contract",
			},
			[]string{"kind"},
		),
		LeaderboardSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "leaderboard",
				Name:      "size",
				Help:      "Number of entries in the latest leaderboard",
			},
			[]string{"category"},
		),
		LeaderboardIndex: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "leaderboard",
				Name:      "sentiment_index",
				Help:      "Distribution of sentiment indices on the leaderboard",
				Buckets:   indexBuckets,
			},
			[]string{"category"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}
}

// InitMetrics initializes the global metrics instance on the default registerer
func InitMetrics() *Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = NewMetrics(nil)
	}
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return InitMetrics()
}

// RecordUpstreamRequest records an upstream request attempt
func (m *Metrics) RecordUpstreamRequest(operation string) {
	m.UpstreamRequestsTotal.WithLabelValues(operation).Inc()
}

// RecordUpstreamError records a failed upstream request
func (m *Metrics) RecordUpstreamError(operation, errorType string) {
	m.UpstreamErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordUpstreamRetry records a retried upstream request
func (m *Metrics) RecordUpstreamRetry(operation string) {
	m.UpstreamRetriesTotal.WithLabelValues(operation).Inc()
}

// RecordUpstreamDuration records the duration of an upstream request
func (m *Metrics) RecordUpstreamDuration(operation string, duration time.Duration) {
	m.UpstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordViewLoad records the outcome and duration of a view load
func (m *Metrics) RecordViewLoad(view, status string, duration time.Duration) {
	m.ViewLoadsTotal.WithLabelValues(view, status).Inc()
	m.ViewLoadDuration.WithLabelValues(view).Observe(duration.Seconds())
}

// RecordStaleSnapshot records that a stale snapshot was served
func (m *Metrics) RecordStaleSnapshot(view string) {
	m.StaleSnapshotsServed.WithLabelValues(view).Inc()
}

// RecordDataIssue records a data-quality issue
func (m *Metrics) RecordDataIssue(kind string) {
	m.DataQualityIssues.WithLabelValues(kind).Inc()
}

// RecordLeaderboard records the size and index distribution of a ranked leaderboard
func (m *Metrics) RecordLeaderboard(category string, indices []float64) {
	m.LeaderboardSize.WithLabelValues(category).Set(float64(len(indices)))
	for _, idx := range indices {
		m.LeaderboardIndex.WithLabelValues(category).Observe(idx)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveView records the view load outcome and duration
func (t *Timer) ObserveView(view, status string) {
	t.metrics.RecordViewLoad(view, status, time.Since(t.start))
}
