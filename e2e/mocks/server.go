// Package mocks provides an HTTP fake of the upstream sentiment API for tests.
package mocks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"sentiment-dashboard/models"
)

// MockServer provides configurable responses for every sentiment API route.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server
	router chi.Router

	// Response configurations
	dashboard    models.DashboardData
	current      map[string]models.StockSentiment
	histories    map[string][]models.StockSentiment
	mentions     map[string][]models.StockMention
	scrapeFound  int
	aggregateAck models.AggregateAck
	healthy      bool

	// Fault injection
	errors map[Endpoint]*injectedError
	delays map[Endpoint]time.Duration

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method    string
	Path      string
	Query     string
	RequestID string
	Body      string
}

// NewMockServer creates a new mock server with default fixtures.
func NewMockServer() *MockServer {
	m := &MockServer{
		current:    make(map[string]models.StockSentiment),
		histories:  make(map[string][]models.StockSentiment),
		mentions:   make(map[string][]models.StockMention),
		errors:     make(map[Endpoint]*injectedError),
		delays:     make(map[Endpoint]time.Duration),
		requestLog: make([]RequestLog, 0),
	}
	m.setDefaults()
	m.router = m.routes()
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP logs the request and dispatches it to the route handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := ""
	if r.Body != nil {
		data, _ := io.ReadAll(io.LimitReader(r.Body, 1024))
		body = string(data)
	}

	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		RequestID: r.Header.Get("X-Request-ID"),
		Body:      body,
	})
	m.mu.Unlock()

	m.router.ServeHTTP(w, r)
}

func (m *MockServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/dashboard", m.guard(EndpointDashboard, m.handleDashboard))
	r.Get("/stock/{ticker}", m.guard(EndpointStock, m.handleStock))
	r.Get("/sentiment/{ticker}/history", m.guard(EndpointHistory, m.handleHistory))
	r.Get("/mentions/{ticker}", m.guard(EndpointMentions, m.handleMentions))
	r.Post("/scrape/reddit", m.guard(EndpointScrapeReddit, m.handleScrape("Reddit")))
	r.Post("/scrape/news", m.guard(EndpointScrapeNews, m.handleScrape("News")))
	r.Post("/aggregate", m.guard(EndpointAggregate, m.handleAggregate))
	r.Get("/health", m.guard(EndpointHealth, m.handleHealth))
	return r
}

// guard applies injected delays and errors before calling next.
func (m *MockServer) guard(ep Endpoint, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		delay := m.delays[ep]
		status := 0
		if inj, ok := m.errors[ep]; ok {
			status = inj.status
			if inj.remaining > 0 {
				inj.remaining--
				if inj.remaining == 0 {
					delete(m.errors, ep)
				}
			}
		}
		m.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if status != 0 {
			writeJSON(w, status, ErrorResponse{Detail: http.StatusText(status)})
			return
		}
		next(w, r)
	}
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// CountRequests returns how many requests hit paths starting with prefix.
func (m *MockServer) CountRequests(method, prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, req := range m.requestLog {
		if req.Method == method && strings.HasPrefix(req.Path, prefix) {
			n++
		}
	}
	return n
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = make([]RequestLog, 0)
}

// SetDashboard configures the dashboard response.
func (m *MockServer) SetDashboard(d models.DashboardData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboard = d
}

// SetCurrentSentiment configures the latest aggregate returned for a ticker.
func (m *MockServer) SetCurrentSentiment(s models.StockSentiment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[strings.ToUpper(s.Ticker)] = s
}

// SetHistory configures a ticker's history. history must be newest first.
func (m *MockServer) SetHistory(ticker string, history []models.StockSentiment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[strings.ToUpper(ticker)] = history
}

// SetMentions configures a ticker's mentions, newest first.
func (m *MockServer) SetMentions(ticker string, mentions []models.StockMention) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mentions[strings.ToUpper(ticker)] = mentions
}

// RemoveStock makes the detail endpoint return 404 for ticker.
func (m *MockServer) RemoveStock(ticker string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := strings.ToUpper(ticker)
	delete(m.current, t)
	delete(m.histories, t)
	delete(m.mentions, t)
}

// SetScrapeFound configures total_found in scrape acknowledgements.
func (m *MockServer) SetScrapeFound(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrapeFound = n
}

// SetAggregateAck configures the aggregation acknowledgement.
func (m *MockServer) SetAggregateAck(ack models.AggregateAck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregateAck = ack
}

// SetHealthy configures the health endpoint.
func (m *MockServer) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// SetError makes ep answer with status until ClearErrors is called.
func (m *MockServer) SetError(ep Endpoint, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[ep] = &injectedError{status: status, remaining: -1}
}

// SetTransientError makes the next times requests to ep answer with status.
func (m *MockServer) SetTransientError(ep Endpoint, status, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if times <= 0 {
		delete(m.errors, ep)
		return
	}
	m.errors[ep] = &injectedError{status: status, remaining: times}
}

// SetDelay makes ep wait d before answering, or until the client gives up.
func (m *MockServer) SetDelay(ep Endpoint, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[ep] = d
}

// ClearErrors removes all injected errors and delays.
func (m *MockServer) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = make(map[Endpoint]*injectedError)
	m.delays = make(map[Endpoint]time.Duration)
}

func (m *MockServer) setDefaults() {
	m.dashboard = DefaultDashboard()
	m.healthy = true
	m.scrapeFound = 42

	for _, s := range append(append([]models.TrendingStock{}, m.dashboard.BullishStocks...), m.dashboard.BearishStocks...) {
		history := GenerateHistory(s.Ticker, 30)
		m.histories[s.Ticker] = history
		m.current[s.Ticker] = history[0]
		m.mentions[s.Ticker] = GenerateMentions(s.Ticker, 60)
	}

	m.aggregateAck = models.AggregateAck{
		Message:         "Aggregation completed",
		StocksProcessed: len(m.current),
		BullishStocks:   len(m.dashboard.BullishStocks),
		BearishStocks:   len(m.dashboard.BearishStocks),
	}
}

func (m *MockServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	d := m.dashboard
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, d)
}

func (m *MockServer) handleStock(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	m.mu.RLock()
	current, ok := m.current[ticker]
	history := firstN(m.histories[ticker], 7)
	mentions := firstN(m.mentions[ticker], 20)
	m.mu.RUnlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "No sentiment data found for " + ticker})
		return
	}

	writeJSON(w, http.StatusOK, models.StockDetailData{
		Ticker:              ticker,
		CurrentSentiment:    current,
		HistoricalSentiment: history,
		RecentMentions:      mentions,
	})
}

func (m *MockServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	days := queryInt(r, "days", 7)

	m.mu.RLock()
	history := firstN(m.histories[ticker], days)
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, models.SentimentHistoryData{
		Ticker:  ticker,
		History: history,
		Days:    days,
	})
}

func (m *MockServer) handleMentions(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	limit := queryInt(r, "limit", 50)

	m.mu.RLock()
	mentions := firstN(m.mentions[ticker], limit)
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, models.StockMentionsData{
		Ticker:   ticker,
		Mentions: mentions,
		Count:    len(mentions),
	})
}

func (m *MockServer) handleScrape(source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		found := m.scrapeFound
		m.mu.RUnlock()

		writeJSON(w, http.StatusOK, models.ScrapeAck{
			Message:    source + " scraping completed",
			TotalFound: found,
		})
	}
}

func (m *MockServer) handleAggregate(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	ack := m.aggregateAck
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, ack)
}

func (m *MockServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	healthy := m.healthy
	m.mu.RUnlock()

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Detail: "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:    "healthy",
		Timestamp: models.NewTimestamp(time.Now().UTC()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if val := r.URL.Query().Get(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// firstN returns a copy of at most n leading elements, never nil.
func firstN[T any](in []T, n int) []T {
	if n > len(in) {
		n = len(in)
	}
	out := make([]T, n)
	copy(out, in[:n])
	return out
}
