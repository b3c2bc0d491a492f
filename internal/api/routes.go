package api

import (
	"net/http"

	"sentiment-dashboard/config"
	"sentiment-dashboard/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes. gatherer
// backs /metrics; nil uses the default registry.
func NewRouter(h *Handler, cfg *config.Config, metrics *observability.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout()))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware(metrics))
	r.Use(ClientIDMiddleware)

	// Metrics endpoint for Prometheus
	if gatherer == nil {
		r.Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", h.HandleHealth)

		// Leaderboards
		r.Get("/dashboard", h.HandleDashboard)

		// Per-ticker views
		r.Route("/stocks/{ticker}", func(r chi.Router) {
			r.Get("/", h.HandleStock)
			r.Get("/history", h.HandleHistory)
			r.Get("/mentions", h.HandleMentions)
		})

		// Upstream jobs
		r.Route("/refresh", func(r chi.Router) {
			r.Post("/reddit", h.HandleRefreshReddit)
			r.Post("/news", h.HandleRefreshNews)
			r.Post("/aggregate", h.HandleRefreshAggregate)
		})
	})

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ClientIDHeader)
			w.Header().Set("Access-Control-Expose-Headers", StaleHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
