package models

import (
	"fmt"
	"math"
)

// StockSentiment is the daily aggregate for one ticker.
type StockSentiment struct {
	ID               int64     `json:"id"`
	Ticker           string    `json:"ticker"`
	Date             Timestamp `json:"date"`
	MentionsCount    int       `json:"mentions_count"`
	PositiveMentions int       `json:"positive_mentions"`
	NegativeMentions int       `json:"negative_mentions"`
	NeutralMentions  int       `json:"neutral_mentions"`
	SentimentIndex   float64   `json:"sentiment_index"`
	BullishScore     float64   `json:"bullish_score"`
	BearishScore     float64   `json:"bearish_score"`
	CreatedAt        Timestamp `json:"created_at"`
}

// BucketTotal returns positive + negative + neutral mentions.
func (s StockSentiment) BucketTotal() int {
	return s.PositiveMentions + s.NegativeMentions + s.NeutralMentions
}

// Issues checks the aggregate's invariants: the mention buckets add up to the
// total and the sentiment index lies in [-1, 1].
func (s StockSentiment) Issues() []DataIssue {
	var issues []DataIssue

	if s.PositiveMentions < 0 || s.NegativeMentions < 0 || s.NeutralMentions < 0 || s.MentionsCount < 0 {
		issues = append(issues, DataIssue{
			Ticker:  s.Ticker,
			Kind:    IssueNegativeCount,
			Field:   "mentions_count",
			Message: "mention counts must not be negative",
		})
	}
	if sum := s.BucketTotal(); sum != s.MentionsCount {
		issues = append(issues, DataIssue{
			Ticker:  s.Ticker,
			Kind:    IssueMentionSum,
			Field:   "mentions_count",
			Message: fmt.Sprintf("mentions_count %d != positive+negative+neutral %d", s.MentionsCount, sum),
		})
	}
	if !IndexInRange(s.SentimentIndex) {
		issues = append(issues, DataIssue{
			Ticker:  s.Ticker,
			Kind:    IssueIndexOutOfRange,
			Field:   "sentiment_index",
			Message: fmt.Sprintf("sentiment_index %v outside [-1, 1]", s.SentimentIndex),
		})
	}
	return issues
}

// IndexInRange reports whether v is a finite value in [-1, 1].
func IndexInRange(v float64) bool {
	return !math.IsNaN(v) && v >= -1 && v <= 1
}

// TrendCategory partitions leaderboard rows.
type TrendCategory string

const (
	CategoryBullish TrendCategory = "bullish"
	CategoryBearish TrendCategory = "bearish"
)

// Valid reports whether c is bullish or bearish.
func (c TrendCategory) Valid() bool {
	return c == CategoryBullish || c == CategoryBearish
}

// TrendingStock is one row of a trending leaderboard.
type TrendingStock struct {
	ID             int64         `json:"id"`
	Ticker         string        `json:"ticker"`
	Rank           int           `json:"rank"`
	Category       TrendCategory `json:"category"`
	Score          float64       `json:"score"`
	MentionsCount  int           `json:"mentions_count"`
	SentimentIndex float64       `json:"sentiment_index"`
	Date           Timestamp     `json:"date"`
	CreatedAt      Timestamp     `json:"created_at"`
}

// Issues reports leaderboard rows the classifier cannot trust.
func (t TrendingStock) Issues() []DataIssue {
	var issues []DataIssue
	if !t.Category.Valid() {
		issues = append(issues, DataIssue{
			Ticker:  t.Ticker,
			Kind:    IssueUnknownCategory,
			Field:   "category",
			Message: "unexpected category " + quote(string(t.Category)),
		})
	}
	if math.IsNaN(t.Score) || math.IsInf(t.Score, 0) {
		issues = append(issues, DataIssue{
			Ticker:  t.Ticker,
			Kind:    IssueNonFinite,
			Field:   "score",
			Message: "score is not a finite number",
		})
	}
	if !IndexInRange(t.SentimentIndex) {
		issues = append(issues, DataIssue{
			Ticker:  t.Ticker,
			Kind:    IssueIndexOutOfRange,
			Field:   "sentiment_index",
			Message: fmt.Sprintf("sentiment_index %v outside [-1, 1]", t.SentimentIndex),
		})
	}
	return issues
}
