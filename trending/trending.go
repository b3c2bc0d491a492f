// Package trending partitions and ranks trending stocks into bullish and
// bearish leaderboards.
package trending

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"sentiment-dashboard/models"
)

// CategorySource selects how a stock's leaderboard is decided.
type CategorySource string

const (
	// CategoryFromServer trusts the category field sent by the API.
	CategoryFromServer CategorySource = "server"
	// CategoryFromSign derives the category from the score: > 0 bullish, otherwise bearish.
	CategoryFromSign CategorySource = "sign"
)

// ParseCategorySource converts a configuration value to a CategorySource.
func ParseCategorySource(s string) (CategorySource, error) {
	switch CategorySource(s) {
	case CategoryFromServer, CategoryFromSign:
		return CategorySource(s), nil
	}
	return "", fmt.Errorf("invalid category source %q: must be server or sign", s)
}

// BearishOrder selects the sort direction of the bearish board.
type BearishOrder string

const (
	// BearishHighestScoreFirst sorts by descending score, for APIs that report
	// bearish scores as positive magnitudes.
	BearishHighestScoreFirst BearishOrder = "highest_score"
	// BearishMostNegativeFirst sorts by ascending score, for signed scores.
	BearishMostNegativeFirst BearishOrder = "most_negative"
)

// ParseBearishOrder converts a configuration value to a BearishOrder.
func ParseBearishOrder(s string) (BearishOrder, error) {
	switch BearishOrder(s) {
	case BearishHighestScoreFirst, BearishMostNegativeFirst:
		return BearishOrder(s), nil
	}
	return "", fmt.Errorf("invalid bearish order %q: must be highest_score or most_negative", s)
}

// Options controls partitioning and ranking.
type Options struct {
	CategorySource CategorySource
	BearishOrder   BearishOrder
	// Limit caps each board in Leaderboard; 0 keeps every entry.
	Limit int
}

// DefaultOptions trusts server categories and ranks bearish magnitudes highest first.
func DefaultOptions() Options {
	return Options{
		CategorySource: CategoryFromServer,
		BearishOrder:   BearishHighestScoreFirst,
	}
}

// Entry is a ranked, display-ready leaderboard row.
type Entry struct {
	Stock         models.TrendingStock `json:"stock"`
	Rank          int                  `json:"rank"`
	Category      models.TrendCategory `json:"category"`
	Label         string               `json:"label"`
	Tone          Tone                 `json:"tone"`
	Color         string               `json:"color"`
	ScoreText     string               `json:"score_text"`
	SentimentText string               `json:"sentiment_text"`
	MentionsText  string               `json:"mentions_text"`
}

// Board holds both ranked leaderboards of a dashboard snapshot.
type Board struct {
	Bullish     []Entry            `json:"bullish"`
	Bearish     []Entry            `json:"bearish"`
	LastUpdated models.Timestamp   `json:"last_updated"`
	Issues      []models.DataIssue `json:"issues,omitempty"`
}

// Partition splits stocks into bullish and bearish lists, preserving input order.
// With CategoryFromServer, stocks with an unknown category land in neither list.
func Partition(stocks []models.TrendingStock, src CategorySource) (bullish, bearish []models.TrendingStock) {
	bullish = make([]models.TrendingStock, 0, len(stocks))
	bearish = make([]models.TrendingStock, 0, len(stocks))

	for _, s := range stocks {
		switch categoryOf(s, src) {
		case models.CategoryBullish:
			bullish = append(bullish, s)
		case models.CategoryBearish:
			bearish = append(bearish, s)
		}
	}
	return bullish, bearish
}

func categoryOf(s models.TrendingStock, src CategorySource) models.TrendCategory {
	if src == CategoryFromSign {
		if s.Score > 0 {
			return models.CategoryBullish
		}
		return models.CategoryBearish
	}
	return s.Category
}

// Rank orders stocks for the given board and assigns ranks 1..N.
// Bullish boards sort by descending score; bearish boards follow opts.BearishOrder.
// Equal scores fall back to ascending ticker. stocks is not modified.
func Rank(stocks []models.TrendingStock, category models.TrendCategory, opts Options) []Entry {
	sorted := make([]models.TrendingStock, len(stocks))
	copy(sorted, stocks)

	descending := category != models.CategoryBearish || opts.BearishOrder != BearishMostNegativeFirst

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j], descending)
	})

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = newEntry(s, i+1, category)
	}
	return entries
}

// less orders by score in the requested direction, non-finite scores last,
// then by ticker.
func less(a, b models.TrendingStock, descending bool) bool {
	aBad, bBad := !finite(a.Score), !finite(b.Score)
	if aBad != bBad {
		return bBad
	}
	if !aBad && a.Score != b.Score {
		if descending {
			return a.Score > b.Score
		}
		return a.Score < b.Score
	}
	return a.Ticker < b.Ticker
}

func newEntry(s models.TrendingStock, rank int, category models.TrendCategory) Entry {
	tone := categoryTone(category)
	return Entry{
		Stock:         s,
		Rank:          rank,
		Category:      category,
		Label:         tone.Label(),
		Tone:          tone,
		Color:         tone.Color(),
		ScoreText:     FormatFixed(s.Score),
		SentimentText: FormatSigned(s.SentimentIndex),
		MentionsText:  FormatMentions(s.MentionsCount),
	}
}

// Leaderboard partitions and ranks both lists of a dashboard payload.
func Leaderboard(d models.DashboardData, opts Options) Board {
	all := make([]models.TrendingStock, 0, len(d.BullishStocks)+len(d.BearishStocks))
	all = append(all, d.BullishStocks...)
	all = append(all, d.BearishStocks...)

	bullish, bearish := Partition(all, opts.CategorySource)

	return Board{
		Bullish:     limit(Rank(bullish, models.CategoryBullish, opts), opts.Limit),
		Bearish:     limit(Rank(bearish, models.CategoryBearish, opts), opts.Limit),
		LastUpdated: d.LastUpdated,
		Issues:      Audit(all),
	}
}

func limit(entries []Entry, n int) []Entry {
	if n > 0 && n < len(entries) {
		return entries[:n]
	}
	return entries
}

// Audit reports stocks with unknown categories, non-finite scores or
// out-of-range sentiment indices.
func Audit(stocks []models.TrendingStock) []models.DataIssue {
	var issues []models.DataIssue
	for _, s := range stocks {
		issues = append(issues, s.Issues()...)
	}
	return issues
}

// FormatFixed renders v with two decimals, or "n/a" when v is not finite.
func FormatFixed(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatSigned is FormatFixed with a leading "+" for positive values.
func FormatSigned(v float64) string {
	s := FormatFixed(v)
	if finite(v) && v > 0 {
		return "+" + s
	}
	return s
}

// FormatMentions renders a mention count, e.g. "12 mentions".
func FormatMentions(n int) string {
	return strconv.Itoa(n) + " mentions"
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
