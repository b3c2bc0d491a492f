package app

import (
	"sentiment-dashboard/config"
	"sentiment-dashboard/observability"
	"sentiment-dashboard/services"
)

// NewGateway builds the sentiment API client from configuration. Every
// attempt is logged at debug level; with metrics set, attempts and breaker
// transitions are also recorded. extra options are applied last.
func NewGateway(cfg *config.Config, metrics *observability.Metrics, extra ...services.Option) *services.SentimentAPIService {
	opts := []services.Option{
		services.WithRetryConfig(cfg.RetryConfig()),
		services.WithRateLimit(cfg.SentimentAPI.RateLimitPerMinute),
		services.WithBreakers(services.NewCircuitBreakerRegistry(cfg.BreakerConfig(), metrics)),
		services.WithObserver(services.NewTelemetryObserver(metrics)),
	}
	return services.NewSentimentAPIService(cfg.ServiceConfig(), append(opts, extra...)...)
}
