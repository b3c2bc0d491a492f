// Package e2e provides end-to-end testing infrastructure for the sentiment dashboard.
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sentiment-dashboard/config"
	"sentiment-dashboard/e2e/mocks"
	"sentiment-dashboard/internal/api"
	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/observability"
)

// TestHarness provides the infrastructure for running E2E tests.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	registry   *prometheus.Registry
	metrics    *observability.Metrics
	app        *app.App
	router     http.Handler
	config     *config.Config
}

// NewTestHarness creates a new test harness. Call Setup before use.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	return &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup starts the fake sentiment API and wires the dashboard against it.
// configure, if given, may adjust the configuration before the app is built.
func (h *TestHarness) Setup(configure ...func(*config.Config)) error {
	h.mockServer = mocks.NewMockServer()
	h.config = h.createTestConfig()
	for _, fn := range configure {
		fn(h.config)
	}
	if err := h.config.Validate(); err != nil {
		return err
	}

	h.registry = prometheus.NewRegistry()
	h.metrics = observability.NewMetrics(h.registry)

	h.app = app.New(h.config, app.NewGateway(h.config, h.metrics), h.metrics)
	h.app.Startup(h.ctx)

	handler := api.NewHandler(h.app, h.config)
	h.router = api.NewRouter(handler, h.config, h.metrics, h.registry)

	return nil
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.cancel != nil {
		h.cancel()
	}

	if h.app != nil {
		h.app.Shutdown(context.Background())
	}

	if h.mockServer != nil {
		h.mockServer.Close()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// App returns the application instance.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Metrics returns the harness's isolated metrics.
func (h *TestHarness) Metrics() *observability.Metrics {
	return h.metrics
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request and returns the response.
func (h *TestHarness) DoRequest(method, path string, body string) *httptest.ResponseRecorder {
	return h.DoClientRequest("", method, path, body)
}

// DoClientRequest performs an HTTP request on behalf of clientID.
func (h *TestHarness) DoClientRequest(clientID, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = req.WithContext(h.ctx)
	if clientID != "" {
		req.Header.Set(api.ClientIDHeader, clientID)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// DecodeJSON decodes a response body into v, failing the test on error.
func (h *TestHarness) DecodeJSON(w *httptest.ResponseRecorder, v any) {
	h.t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		h.t.Fatalf("failed to decode response: %v (body %q)", err, w.Body.String())
	}
}

func (h *TestHarness) createTestConfig() *config.Config {
	cfg := config.NewTestConfig()
	cfg.SentimentAPI.BaseURL = h.mockServer.URL()
	cfg.SentimentAPI.MaxRetries = 2
	cfg.SentimentAPI.RetryBackoffMs = 1
	return cfg
}
