package mocks

import (
	"fmt"
	"time"

	"sentiment-dashboard/models"
)

// Endpoint identifies one route of the fake sentiment API.
type Endpoint string

const (
	EndpointDashboard    Endpoint = "dashboard"
	EndpointStock        Endpoint = "stock"
	EndpointHistory      Endpoint = "history"
	EndpointMentions     Endpoint = "mentions"
	EndpointScrapeReddit Endpoint = "scrape_reddit"
	EndpointScrapeNews   Endpoint = "scrape_news"
	EndpointAggregate    Endpoint = "aggregate"
	EndpointHealth       Endpoint = "health"
)

// ErrorResponse is the error body shape of the sentiment API.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// injectedError makes an endpoint answer with status. remaining < 0 means forever.
type injectedError struct {
	status    int
	remaining int
}

// FixtureDate is the newest day in the default fixtures.
var FixtureDate = time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

// DefaultDashboard returns a dashboard with three bullish and two bearish stocks.
func DefaultDashboard() models.DashboardData {
	day := models.NewTimestamp(FixtureDate)
	updated := models.NewTimestamp(FixtureDate.Add(10 * time.Hour))

	row := func(id int64, ticker string, rank int, category models.TrendCategory, score float64, mentions int, index float64) models.TrendingStock {
		return models.TrendingStock{
			ID:             id,
			Ticker:         ticker,
			Rank:           rank,
			Category:       category,
			Score:          score,
			MentionsCount:  mentions,
			SentimentIndex: index,
			Date:           day,
			CreatedAt:      updated,
		}
	}

	return models.DashboardData{
		BullishStocks: []models.TrendingStock{
			row(1, "NVDA", 1, models.CategoryBullish, 36, 60, 0.6),
			row(2, "AAPL", 2, models.CategoryBullish, 12.5, 20, 0.625),
			row(3, "MSFT", 3, models.CategoryBullish, 4, 16, 0.25),
		},
		BearishStocks: []models.TrendingStock{
			row(4, "TSLA", 1, models.CategoryBearish, 20, 40, -0.5),
			row(5, "GME", 2, models.CategoryBearish, 3, 10, -0.3),
		},
		LastUpdated: updated,
	}
}

// GenerateHistory builds days of daily aggregates for ticker, newest first,
// ending at FixtureDate. Bucket counts always add up to the total.
func GenerateHistory(ticker string, days int) []models.StockSentiment {
	history := make([]models.StockSentiment, 0, days)
	for i := 0; i < days; i++ {
		positive := 5 + i%3
		negative := 2 + i%2
		neutral := 3
		total := positive + negative + neutral
		index := float64(positive-negative) / float64(total)
		date := FixtureDate.AddDate(0, 0, -i)

		history = append(history, models.StockSentiment{
			ID:               int64(i + 1),
			Ticker:           ticker,
			Date:             models.NewTimestamp(date),
			MentionsCount:    total,
			PositiveMentions: positive,
			NegativeMentions: negative,
			NeutralMentions:  neutral,
			SentimentIndex:   index,
			BullishScore:     float64(total) * max(0, index),
			BearishScore:     float64(total) * max(0, -index),
			CreatedAt:        models.NewTimestamp(date.Add(23 * time.Hour)),
		})
	}
	return history
}

// GenerateMentions builds count mentions for ticker, newest first, cycling
// through positive, negative and neutral labels.
func GenerateMentions(ticker string, count int) []models.StockMention {
	labels := []struct {
		sentiment models.MentionSentiment
		score     float64
	}{
		{models.MentionPositive, 0.8},
		{models.MentionNegative, -0.6},
		{models.MentionNeutral, 0.05},
	}

	mentions := make([]models.StockMention, 0, count)
	for i := 0; i < count; i++ {
		label := labels[i%len(labels)]
		created := FixtureDate.Add(time.Duration(-i) * time.Hour)

		source := models.SourceReddit
		sourceID := fmt.Sprintf("t3_%s%d", ticker, i)
		if i%2 == 1 {
			source = models.SourceNews
			sourceID = ""
		}

		mentions = append(mentions, models.StockMention{
			ID:             int64(i + 1),
			Ticker:         ticker,
			Text:           fmt.Sprintf("$%s mention #%d is %s", ticker, i+1, label.sentiment),
			Sentiment:      label.sentiment,
			SentimentScore: label.score,
			Source:         source,
			SourceID:       sourceID,
			CreatedAt:      models.NewTimestamp(created),
			ProcessedAt:    models.NewTimestamp(created.Add(time.Minute)),
		})
	}
	return mentions
}
