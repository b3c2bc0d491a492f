package api

import (
	"net/http"
	"strconv"
	"time"

	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ClientIDHeader identifies the browser tab or client issuing view loads.
// A newer load from the same client supersedes its older load of the same view.
const ClientIDHeader = "X-Client-ID"

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.responseSize += size
	return size, err
}

// MetricsMiddleware records HTTP metrics for each request. nil metrics uses
// the global instance.
func MetricsMiddleware(metrics *observability.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			// Label by route pattern so ticker paths share a series
			routePattern := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				routePattern = rctx.RoutePattern()
			}
			if routePattern == "" {
				routePattern = r.URL.Path
			}

			m := metrics
			if m == nil {
				m = observability.GetMetrics()
			}
			m.RecordHTTPRequest(r.Method, routePattern, strconv.Itoa(wrapped.statusCode), time.Since(start), wrapped.responseSize)
		})
	}
}

// ClientIDMiddleware scopes view loads to the caller. Requests without a
// client id are scoped to their own request id and never supersede others.
func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ClientIDHeader)
		if id == "" {
			id = "req:" + middleware.GetReqID(r.Context())
		}
		next.ServeHTTP(w, r.WithContext(app.WithClientID(r.Context(), id)))
	})
}
