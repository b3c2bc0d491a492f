package services

import (
	"time"

	"sentiment-dashboard/observability"
)

// RequestEvent describes one attempt against the upstream sentiment API.
type RequestEvent struct {
	Operation  string
	Method     string
	Path       string
	RequestID  string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Observer receives a pair of events for every upstream attempt.
type Observer interface {
	RequestStarted(RequestEvent)
	RequestFinished(RequestEvent)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) RequestStarted(RequestEvent)  {}
func (NopObserver) RequestFinished(RequestEvent) {}

// TelemetryObserver logs attempts through slog and records Prometheus metrics.
type TelemetryObserver struct {
	metrics *observability.Metrics
}

// NewTelemetryObserver creates an observer; metrics may be nil to log only.
func NewTelemetryObserver(metrics *observability.Metrics) *TelemetryObserver {
	return &TelemetryObserver{metrics: metrics}
}

func (o *TelemetryObserver) RequestStarted(e RequestEvent) {
	observability.WithOperation(e.Operation).Debug("upstream request started",
		"method", e.Method,
		"path", e.Path,
		"request_id", e.RequestID,
		"attempt", e.Attempt)

	if o.metrics == nil {
		return
	}
	o.metrics.RecordUpstreamRequest(e.Operation)
	if e.Attempt > 1 {
		o.metrics.RecordUpstreamRetry(e.Operation)
	}
}

func (o *TelemetryObserver) RequestFinished(e RequestEvent) {
	log := observability.WithOperation(e.Operation).With(
		"request_id", e.RequestID,
		"attempt", e.Attempt,
		"status_code", e.StatusCode,
		"duration", e.Duration,
	)
	if e.Err != nil {
		log.Warn("upstream request failed", "error", e.Err, "error_type", ErrorType(e.Err))
	} else {
		log.Debug("upstream request completed")
	}

	if o.metrics == nil {
		return
	}
	o.metrics.RecordUpstreamDuration(e.Operation, e.Duration)
	if e.Err != nil {
		o.metrics.RecordUpstreamError(e.Operation, ErrorType(e.Err))
	}
}
