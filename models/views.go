package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CheckRequired reports an error when data is not a JSON object or when any of
// fields is absent or null in it.
func CheckRequired(data []byte, fields ...string) error {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return fmt.Errorf("payload is not a JSON object: %w", err)
	}
	if object == nil {
		return fmt.Errorf("payload is null")
	}
	for _, field := range fields {
		raw, ok := object[field]
		if !ok {
			return fmt.Errorf("missing required field %q", field)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("required field %q is null", field)
		}
	}
	return nil
}

// DashboardData is the point-in-time leaderboard snapshot.
type DashboardData struct {
	BullishStocks []TrendingStock `json:"bullish_stocks"`
	BearishStocks []TrendingStock `json:"bearish_stocks"`
	LastUpdated   Timestamp       `json:"last_updated"`
}

// RequiredFields lists the keys every dashboard payload carries.
func (DashboardData) RequiredFields() []string {
	return []string{"bullish_stocks", "bearish_stocks"}
}

// StockDetailData is the per-ticker composite. HistoricalSentiment is newest first.
type StockDetailData struct {
	Ticker              string           `json:"ticker"`
	CurrentSentiment    StockSentiment   `json:"current_sentiment"`
	HistoricalSentiment []StockSentiment `json:"historical_sentiment"`
	RecentMentions      []StockMention   `json:"recent_mentions"`
}

func (StockDetailData) RequiredFields() []string {
	return []string{"ticker", "current_sentiment"}
}

// SentimentHistoryData is the response of the history endpoint. Days echoes the
// request; len(History) may be smaller.
type SentimentHistoryData struct {
	Ticker  string           `json:"ticker"`
	History []StockSentiment `json:"history"`
	Days    int              `json:"days"`
}

func (SentimentHistoryData) RequiredFields() []string {
	return []string{"ticker", "history"}
}

// StockMentionsData is the response of the mentions endpoint.
type StockMentionsData struct {
	Ticker   string         `json:"ticker"`
	Mentions []StockMention `json:"mentions"`
	Count    int            `json:"count"`
}

func (StockMentionsData) RequiredFields() []string {
	return []string{"ticker", "mentions"}
}

// ScrapeAck acknowledges a scrape trigger. The scrape result is not sentiment data.
type ScrapeAck struct {
	Message    string `json:"message"`
	TotalFound int    `json:"total_found"`
}

// AggregateAck acknowledges an aggregation trigger.
type AggregateAck struct {
	Message         string `json:"message"`
	StocksProcessed int    `json:"stocks_processed"`
	BullishStocks   int    `json:"bullish_stocks"`
	BearishStocks   int    `json:"bearish_stocks"`
}

// HealthStatus is the body of the liveness endpoint.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp Timestamp `json:"timestamp"`
}
