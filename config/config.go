package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"sentiment-dashboard/services"
	"sentiment-dashboard/trending"
)

// Config holds all application configuration
type Config struct {
	// Upstream sentiment API
	SentimentAPI SentimentAPIConfig

	// Circuit breaker guarding the upstream
	CircuitBreaker CircuitBreakerConfig

	// Leaderboard classification
	Leaderboard LeaderboardConfig

	// HTTP configuration
	HTTP HTTPConfig

	// Logging configuration
	Logging LoggingConfig
}

// SentimentAPIConfig holds upstream sentiment API configuration
type SentimentAPIConfig struct {
	BaseURL             string
	TimeoutSeconds      int
	HistoryDays         int // default days of history for charts (default: 7)
	MentionsLimit       int // default mentions per request (default: 50)
	DetailMentionsLimit int // mentions shown on the stock page (default: 20)
	MaxRetries          int
	RetryBackoffMs      int
	HealthCacheSeconds  int // how long an upstream liveness result is reused, 0 disables
	RateLimitPerMinute  int // outgoing attempts per minute, 0 is unlimited
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests     int
	IntervalSeconds int
	TimeoutSeconds  int
	MinRequests     int
	FailureRatio    float64
}

// LeaderboardConfig holds leaderboard classification configuration
type LeaderboardConfig struct {
	CategorySource string // server or sign
	BearishOrder   string // highest_score or most_negative
	Limit          int    // entries per board, 0 keeps all
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port                  int
	CORSAllowedOrigins    string
	RequestTimeoutSeconds int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Production bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		SentimentAPI: SentimentAPIConfig{
			BaseURL:             getEnvString("SENTIMENT_API_URL", services.DefaultSentimentAPIURL),
			TimeoutSeconds:      getEnvInt("SENTIMENT_API_TIMEOUT_SECONDS", 10),
			HistoryDays:         getEnvInt("SENTIMENT_HISTORY_DAYS", services.DefaultHistoryDays),
			MentionsLimit:       getEnvInt("SENTIMENT_MENTIONS_LIMIT", services.DefaultMentionsLimit),
			DetailMentionsLimit: getEnvInt("SENTIMENT_DETAIL_MENTIONS_LIMIT", 20),
			MaxRetries:          getEnvIntMin("SENTIMENT_API_MAX_RETRIES", 3, 0),
			RetryBackoffMs:      getEnvInt("SENTIMENT_API_RETRY_BACKOFF_MS", 100),
			HealthCacheSeconds:  getEnvIntMin("SENTIMENT_HEALTH_CACHE_SECONDS", 5, 0),
			RateLimitPerMinute:  getEnvIntMin("SENTIMENT_API_RATE_LIMIT_PER_MINUTE", 0, 0),
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:     getEnvInt("CIRCUIT_BREAKER_MAX_REQUESTS", 5),
			IntervalSeconds: getEnvInt("CIRCUIT_BREAKER_INTERVAL_SECONDS", 60),
			TimeoutSeconds:  getEnvInt("CIRCUIT_BREAKER_TIMEOUT_SECONDS", 30),
			MinRequests:     getEnvInt("CIRCUIT_BREAKER_MIN_REQUESTS", 5),
			FailureRatio:    getEnvFloat("CIRCUIT_BREAKER_FAILURE_RATIO", 0.5),
		},
		Leaderboard: LeaderboardConfig{
			CategorySource: getEnvString("LEADERBOARD_CATEGORY_SOURCE", string(trending.CategoryFromServer)),
			BearishOrder:   getEnvString("LEADERBOARD_BEARISH_ORDER", string(trending.BearishHighestScoreFirst)),
			Limit:          getEnvIntMin("LEADERBOARD_LIMIT", 0, 0),
		},
		HTTP: HTTPConfig{
			Port:                  getEnvInt("HTTP_PORT", 8080),
			CORSAllowedOrigins:    getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSeconds: getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Production: getEnvBool("LOG_JSON", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.SentimentAPI.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SENTIMENT_API_URL must be an absolute http(s) URL, got %q", c.SentimentAPI.BaseURL)
	}

	// Validate positive integers
	if c.SentimentAPI.TimeoutSeconds <= 0 {
		return fmt.Errorf("SENTIMENT_API_TIMEOUT_SECONDS must be positive, got %d", c.SentimentAPI.TimeoutSeconds)
	}
	if c.SentimentAPI.HistoryDays <= 0 {
		return fmt.Errorf("SENTIMENT_HISTORY_DAYS must be positive, got %d", c.SentimentAPI.HistoryDays)
	}
	if c.SentimentAPI.MentionsLimit <= 0 {
		return fmt.Errorf("SENTIMENT_MENTIONS_LIMIT must be positive, got %d", c.SentimentAPI.MentionsLimit)
	}
	if c.SentimentAPI.MaxRetries < 0 {
		return fmt.Errorf("SENTIMENT_API_MAX_RETRIES must not be negative, got %d", c.SentimentAPI.MaxRetries)
	}
	if c.CircuitBreaker.FailureRatio <= 0 || c.CircuitBreaker.FailureRatio > 1 {
		return fmt.Errorf("CIRCUIT_BREAKER_FAILURE_RATIO must be in (0, 1], got %.2f", c.CircuitBreaker.FailureRatio)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	if _, err := trending.ParseCategorySource(c.Leaderboard.CategorySource); err != nil {
		return fmt.Errorf("LEADERBOARD_CATEGORY_SOURCE: %w", err)
	}
	if _, err := trending.ParseBearishOrder(c.Leaderboard.BearishOrder); err != nil {
		return fmt.Errorf("LEADERBOARD_BEARISH_ORDER: %w", err)
	}

	return nil
}

// ServiceConfig returns the gateway configuration
func (c *Config) ServiceConfig() services.SentimentAPIConfig {
	return services.SentimentAPIConfig{
		BaseURL:       c.SentimentAPI.BaseURL,
		Timeout:       time.Duration(c.SentimentAPI.TimeoutSeconds) * time.Second,
		HistoryDays:   c.SentimentAPI.HistoryDays,
		MentionsLimit: c.SentimentAPI.MentionsLimit,
	}
}

// RetryConfig returns the backoff used for upstream reads
func (c *Config) RetryConfig() services.RetryConfig {
	initial := time.Duration(c.SentimentAPI.RetryBackoffMs) * time.Millisecond
	return services.RetryConfig{
		MaxRetries:     c.SentimentAPI.MaxRetries,
		InitialBackoff: initial,
		MaxBackoff:     max(initial, services.DefaultRetryConfig.MaxBackoff),
	}
}

// BreakerConfig returns the circuit breaker settings for the upstream
func (c *Config) BreakerConfig() services.CircuitBreakerConfig {
	return services.SentimentBreakerConfig(services.CircuitBreakerConfig{
		MaxRequests:  uint32(c.CircuitBreaker.MaxRequests),
		Interval:     time.Duration(c.CircuitBreaker.IntervalSeconds) * time.Second,
		Timeout:      time.Duration(c.CircuitBreaker.TimeoutSeconds) * time.Second,
		MinRequests:  uint32(c.CircuitBreaker.MinRequests),
		FailureRatio: c.CircuitBreaker.FailureRatio,
	})
}

// LeaderboardOptions returns the classifier options. Call after Validate.
func (c *Config) LeaderboardOptions() trending.Options {
	src, err := trending.ParseCategorySource(c.Leaderboard.CategorySource)
	if err != nil {
		src = trending.CategoryFromServer
	}
	order, err := trending.ParseBearishOrder(c.Leaderboard.BearishOrder)
	if err != nil {
		order = trending.BearishHighestScoreFirst
	}
	return trending.Options{
		CategorySource: src,
		BearishOrder:   order,
		Limit:          c.Leaderboard.Limit,
	}
}

// HealthCacheTTL returns how long an upstream liveness result is reused
func (c *Config) HealthCacheTTL() time.Duration {
	return time.Duration(c.SentimentAPI.HealthCacheSeconds) * time.Second
}

// RequestTimeout returns the per-request timeout of the view API
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeoutSeconds) * time.Second
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	return getEnvIntMin(key, defaultValue, 1)
}

func getEnvIntMin(key string, defaultValue, minVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= minVal {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= 0 && parsed <= 1 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		SentimentAPI: SentimentAPIConfig{
			BaseURL:             services.DefaultSentimentAPIURL,
			TimeoutSeconds:      10,
			HistoryDays:         7,
			MentionsLimit:       50,
			DetailMentionsLimit: 20,
			MaxRetries:          0,
			RetryBackoffMs:      1,
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:     5,
			IntervalSeconds: 60,
			TimeoutSeconds:  30,
			MinRequests:     5,
			FailureRatio:    0.5,
		},
		Leaderboard: LeaderboardConfig{
			CategorySource: string(trending.CategoryFromServer),
			BearishOrder:   string(trending.BearishHighestScoreFirst),
		},
		HTTP: HTTPConfig{
			Port:                  8080,
			CORSAllowedOrigins:    "*",
			RequestTimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
