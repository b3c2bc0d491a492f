package app

import (
	"time"

	"sentiment-dashboard/models"
	"sentiment-dashboard/series"
	"sentiment-dashboard/services"
	"sentiment-dashboard/trending"
)

// DashboardView is the ranked bullish and bearish leaderboards.
type DashboardView struct {
	Bullish      []trending.Entry   `json:"bullish"`
	Bearish      []trending.Entry   `json:"bearish"`
	BullishCount int                `json:"bullish_count"`
	BearishCount int                `json:"bearish_count"`
	LastUpdated  models.Timestamp   `json:"last_updated"`
	LoadedAt     time.Time          `json:"loaded_at"`
	Stale        bool               `json:"stale"`
	Warning      string             `json:"warning,omitempty"`
	Issues       []models.DataIssue `json:"issues,omitempty"`
}

// StockStats are the headline numbers of a stock page.
type StockStats struct {
	MentionsCount    int    `json:"mentions_count"`
	PositiveMentions int    `json:"positive_mentions"`
	NegativeMentions int    `json:"negative_mentions"`
	NeutralMentions  int    `json:"neutral_mentions"`
	SentimentIndex   string `json:"sentiment_index"`
	BullishScore     string `json:"bullish_score"`
	BearishScore     string `json:"bearish_score"`
}

// MentionCard is a display-ready mention.
type MentionCard struct {
	ID        int64                   `json:"id"`
	Excerpt   string                  `json:"excerpt"`
	Sentiment models.MentionSentiment `json:"sentiment"`
	Tone      trending.Tone           `json:"tone"`
	Color     string                  `json:"color"`
	Score     string                  `json:"score"`
	Source    models.MentionSource    `json:"source"`
	Permalink string                  `json:"permalink,omitempty"`
	CreatedAt models.Timestamp        `json:"created_at"`
}

// StockView is the per-ticker detail page.
type StockView struct {
	Ticker   string                `json:"ticker"`
	Headline string                `json:"headline"`
	Tone     trending.Tone         `json:"tone"`
	Color    string                `json:"color"`
	Current  models.StockSentiment `json:"current"`
	Stats    StockStats            `json:"stats"`
	History  HistoryView           `json:"history"`
	Mentions []MentionCard         `json:"mentions"`
	Issues   []models.DataIssue    `json:"issues,omitempty"`
}

// HistoryView is a chart-ready sentiment history, oldest first.
type HistoryView struct {
	Ticker string             `json:"ticker"`
	Days   int                `json:"days"`
	Points []series.Point     `json:"points"`
	Line   []series.LinePoint `json:"line"`
	Bars   []series.BarPoint  `json:"bars"`
	Issues []models.DataIssue `json:"issues,omitempty"`
}

// MentionsView lists recent mentions of a ticker, newest first.
type MentionsView struct {
	Ticker   string             `json:"ticker"`
	Count    int                `json:"count"`
	Mentions []MentionCard      `json:"mentions"`
	Issues   []models.DataIssue `json:"issues,omitempty"`
}

// HealthView reports the dashboard's own status and its upstream's.
type HealthView struct {
	Status   string                                   `json:"status"`
	Upstream bool                                     `json:"upstream"`
	Breakers map[string]services.CircuitBreakerStatus `json:"breakers,omitempty"`
	Time     time.Time                                `json:"time"`
}

func newMentionCards(mentions []models.StockMention) []MentionCard {
	cards := make([]MentionCard, len(mentions))
	for i, m := range mentions {
		tone := trending.MentionTone(m.Sentiment)
		cards[i] = MentionCard{
			ID:        m.ID,
			Excerpt:   m.Excerpt(models.DefaultExcerptLength),
			Sentiment: m.Sentiment,
			Tone:      tone,
			Color:     tone.Color(),
			Score:     trending.FormatFixed(m.SentimentScore),
			Source:    m.Source,
			Permalink: m.Permalink(),
			CreatedAt: m.CreatedAt,
		}
	}
	return cards
}

func mentionIssues(mentions []models.StockMention) []models.DataIssue {
	var issues []models.DataIssue
	for _, m := range mentions {
		issues = append(issues, m.Issues()...)
	}
	return issues
}

func newHistoryView(ticker string, days int, history []models.StockSentiment) HistoryView {
	points := series.Shape(history)
	return HistoryView{
		Ticker: ticker,
		Days:   days,
		Points: points,
		Line:   series.SentimentLine(points),
		Bars:   series.MentionBars(points),
		Issues: series.Audit(history),
	}
}

func newStockStats(s models.StockSentiment) StockStats {
	return StockStats{
		MentionsCount:    s.MentionsCount,
		PositiveMentions: s.PositiveMentions,
		NegativeMentions: s.NegativeMentions,
		NeutralMentions:  s.NeutralMentions,
		SentimentIndex:   trending.FormatSigned(s.SentimentIndex),
		BullishScore:     trending.FormatFixed(s.BullishScore),
		BearishScore:     trending.FormatFixed(s.BearishScore),
	}
}
