package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"sentiment-dashboard/models"
)

// Operation names used in errors, observer events and metrics
const (
	OpFetchDashboard        = "fetch_dashboard"
	OpFetchStockDetail      = "fetch_stock_detail"
	OpFetchSentimentHistory = "fetch_sentiment_history"
	OpFetchStockMentions    = "fetch_stock_mentions"
	OpTriggerRedditScrape   = "trigger_reddit_scrape"
	OpTriggerNewsScrape     = "trigger_news_scrape"
	OpTriggerAggregation    = "trigger_aggregation"
	OpHealthCheck           = "health_check"
)

const (
	DefaultSentimentAPIURL = "http://localhost:8000"
	DefaultHistoryDays     = 7
	DefaultMentionsLimit   = 50
	DefaultRequestTimeout  = 10 * time.Second

	// RequestIDHeader carries a per-attempt correlation id to the upstream
	RequestIDHeader = "X-Request-ID"

	maxErrorBodyBytes = 512
)

// SentimentAPIConfig configures the upstream sentiment API client
type SentimentAPIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	HistoryDays   int
	MentionsLimit int
}

// Option customizes a SentimentAPIService
type Option func(*SentimentAPIService)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(s *SentimentAPIService) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithObserver installs a request observer
func WithObserver(observer Observer) Option {
	return func(s *SentimentAPIService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithRetryConfig sets the backoff used for reads
func WithRetryConfig(config RetryConfig) Option {
	return func(s *SentimentAPIService) {
		s.retry = config
	}
}

// WithBreakers shares a circuit breaker registry with the service
func WithBreakers(registry *CircuitBreakerRegistry) Option {
	return func(s *SentimentAPIService) {
		if registry != nil {
			s.breakers = registry
		}
	}
}

// WithRateLimit caps outgoing attempts at requestsPerMinute, with a burst of a
// tenth of that. Zero or negative leaves the client unlimited.
func WithRateLimit(requestsPerMinute int) Option {
	return func(s *SentimentAPIService) {
		if requestsPerMinute <= 0 {
			s.limiter = nil
			return
		}
		burst := max(requestsPerMinute/10, 1)
		s.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

// SentimentAPIService handles communication with the sentiment API
type SentimentAPIService struct {
	baseURL       string
	httpClient    *http.Client
	historyDays   int
	mentionsLimit int
	retry         RetryConfig
	limiter       *rate.Limiter
	breakers      *CircuitBreakerRegistry
	observer      Observer
}

// NewSentimentAPIService creates a new SentimentAPIService instance
func NewSentimentAPIService(cfg SentimentAPIConfig, opts ...Option) *SentimentAPIService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultSentimentAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	historyDays := cfg.HistoryDays
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	mentionsLimit := cfg.MentionsLimit
	if mentionsLimit <= 0 {
		mentionsLimit = DefaultMentionsLimit
	}

	s := &SentimentAPIService{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: timeout},
		historyDays:   historyDays,
		mentionsLimit: mentionsLimit,
		retry:         DefaultRetryConfig,
		breakers:      NewCircuitBreakerRegistry(SentimentBreakerConfig(DefaultCircuitBreakerConfig), nil),
		observer:      NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SentimentBreakerConfig returns base with the sentiment API's failure
// classification: 404s and caller cancellations leave the breaker alone.
func SentimentBreakerConfig(base CircuitBreakerConfig) CircuitBreakerConfig {
	base.IsSuccessful = func(err error) bool {
		return !countsAgainstBreaker(err)
	}
	return base
}

// BaseURL returns the upstream base URL
func (s *SentimentAPIService) BaseURL() string {
	return s.baseURL
}

// Breakers returns the circuit breaker registry in use
func (s *SentimentAPIService) Breakers() *CircuitBreakerRegistry {
	return s.breakers
}

// FetchDashboard retrieves the current bullish and bearish trending lists
func (s *SentimentAPIService) FetchDashboard(ctx context.Context) (*models.DashboardData, error) {
	var data models.DashboardData
	if err := s.read(ctx, OpFetchDashboard, "/dashboard", nil, "dashboard", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FetchStockDetail retrieves the current aggregate, history and recent mentions for one ticker
func (s *SentimentAPIService) FetchStockDetail(ctx context.Context, ticker string) (*models.StockDetailData, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	var data models.StockDetailData
	path := "/stock/" + url.PathEscape(symbol)
	if err := s.read(ctx, OpFetchStockDetail, path, nil, "stock "+symbol, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FetchSentimentHistory retrieves up to days daily aggregates, newest first.
// days <= 0 falls back to the configured default.
func (s *SentimentAPIService) FetchSentimentHistory(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = s.historyDays
	}

	params := url.Values{}
	params.Set("days", strconv.Itoa(days))

	var data models.SentimentHistoryData
	path := "/sentiment/" + url.PathEscape(symbol) + "/history"
	if err := s.read(ctx, OpFetchSentimentHistory, path, params, "history for "+symbol, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FetchStockMentions retrieves up to limit recent mentions, newest first.
// limit <= 0 falls back to the configured default.
func (s *SentimentAPIService) FetchStockMentions(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.mentionsLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var data models.StockMentionsData
	path := "/mentions/" + url.PathEscape(symbol)
	if err := s.read(ctx, OpFetchStockMentions, path, params, "mentions for "+symbol, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// TriggerRedditScrape asks the upstream to collect new Reddit mentions
func (s *SentimentAPIService) TriggerRedditScrape(ctx context.Context) (*models.ScrapeAck, error) {
	var ack models.ScrapeAck
	if err := s.trigger(ctx, OpTriggerRedditScrape, "/scrape/reddit", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// TriggerNewsScrape asks the upstream to collect new news mentions
func (s *SentimentAPIService) TriggerNewsScrape(ctx context.Context) (*models.ScrapeAck, error) {
	var ack models.ScrapeAck
	if err := s.trigger(ctx, OpTriggerNewsScrape, "/scrape/news", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// TriggerAggregation asks the upstream to recompute daily aggregates and trending lists
func (s *SentimentAPIService) TriggerAggregation(ctx context.Context) (*models.AggregateAck, error) {
	var ack models.AggregateAck
	if err := s.trigger(ctx, OpTriggerAggregation, "/aggregate", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// HealthCheck reports upstream liveness. It bypasses retries and the breaker.
func (s *SentimentAPIService) HealthCheck(ctx context.Context) bool {
	var status models.HealthStatus
	return s.attempt(ctx, OpHealthCheck, http.MethodGet, "/health", nil, "health", &status, 1) == nil
}

// NormalizeTicker trims and upper-cases a ticker symbol
func NormalizeTicker(ticker string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return "", fmt.Errorf("ticker is required: %w", ErrInvalidArgument)
	}
	return symbol, nil
}

// read performs an idempotent GET with retries on transport failures
func (s *SentimentAPIService) read(ctx context.Context, op, path string, params url.Values, resource string, out any) error {
	return s.call(ctx, op, http.MethodGet, path, params, resource, out, true)
}

// trigger performs a POST once; triggers are not idempotent
func (s *SentimentAPIService) trigger(ctx context.Context, op, path string, out any) error {
	return s.call(ctx, op, http.MethodPost, path, nil, op, out, false)
}

func (s *SentimentAPIService) call(ctx context.Context, op, method, path string, params url.Values, resource string, out any, retry bool) error {
	_, err := WithCircuitBreaker(ctx, s.breakers, BreakerSentimentAPI, func() (struct{}, error) {
		attempt := 0
		once := func() error {
			attempt++
			return s.attempt(ctx, op, method, path, params, resource, out, attempt)
		}

		if !retry {
			return struct{}{}, once()
		}

		config := s.retry
		config.ShouldRetry = IsRetryable
		return struct{}{}, WithRetry(ctx, config, once)
	})
	return classify(op, err)
}

// attempt sends a single request and reports it to the observer
func (s *SentimentAPIService) attempt(ctx context.Context, op, method, path string, params url.Values, resource string, out any, n int) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("rate limit: %w", waitError(ctx, err))}
		}
	}

	event := RequestEvent{
		Operation: op,
		Method:    method,
		Path:      path,
		RequestID: uuid.NewString(),
		Attempt:   n,
	}
	s.observer.RequestStarted(event)

	start := time.Now()
	status, err := s.roundTrip(ctx, op, method, path, params, event.RequestID, resource, out)

	event.StatusCode = status
	event.Duration = time.Since(start)
	event.Err = err
	s.observer.RequestFinished(event)

	return err
}

// waitError prefers the context's own error so cancellation and deadlines
// stay recognizable; rate.Limiter reports an early deadline miss in its own words.
func waitError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%v: %w", err, context.DeadlineExceeded)
	}
	return err
}

func (s *SentimentAPIService) roundTrip(ctx context.Context, op, method, path string, params url.Values, requestID, resource string, out any) (int, error) {
	reqURL := s.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return 0, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, &NotFoundError{Op: op, Resource: resource}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(msg),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Op: op, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, &DecodeError{Op: op, Err: err}
	}
	if c, ok := out.(contract); ok {
		if err := models.CheckRequired(body, c.RequiredFields()...); err != nil {
			return resp.StatusCode, &DecodeError{Op: op, Err: err}
		}
	}
	return resp.StatusCode, nil
}

// contract is implemented by payloads whose keys must be present and non-null.
type contract interface {
	RequiredFields() []string
}
