package models

import "strings"

// MentionSentiment is the per-mention sentiment label assigned upstream.
type MentionSentiment string

const (
	MentionPositive MentionSentiment = "positive"
	MentionNegative MentionSentiment = "negative"
	MentionNeutral  MentionSentiment = "neutral"
)

// Known reports whether s is one of the three labels the API documents.
func (s MentionSentiment) Known() bool {
	switch s {
	case MentionPositive, MentionNegative, MentionNeutral:
		return true
	}
	return false
}

// MentionSource identifies where a mention was scraped from.
type MentionSource string

const (
	SourceReddit MentionSource = "reddit"
	SourceNews   MentionSource = "news"
)

// DefaultExcerptLength is the number of characters shown for a mention before truncation.
const DefaultExcerptLength = 200

// StockMention is a single social or news mention of a ticker.
type StockMention struct {
	ID             int64            `json:"id"`
	Ticker         string           `json:"ticker"`
	Text           string           `json:"text"`
	Sentiment      MentionSentiment `json:"sentiment"`
	SentimentScore float64          `json:"sentiment_score"`
	Source         MentionSource    `json:"source"`
	SourceID       string           `json:"source_id,omitempty"`
	CreatedAt      Timestamp        `json:"created_at"`
	ProcessedAt    Timestamp        `json:"processed_at"`
}

// Permalink returns a link back to the original post, or "" when the source has none.
func (m StockMention) Permalink() string {
	if m.Source != SourceReddit || m.SourceID == "" {
		return ""
	}
	return "https://reddit.com/comments/" + m.SourceID
}

// Excerpt returns the mention text cut to maxLen runes with a trailing "...".
// maxLen <= 0 uses DefaultExcerptLength.
func (m StockMention) Excerpt(maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultExcerptLength
	}
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	return strings.TrimRight(string(runes[:maxLen]), " ") + "..."
}

// Issues reports contract violations that consumers should log rather than reject.
func (m StockMention) Issues() []DataIssue {
	var issues []DataIssue
	if !m.Sentiment.Known() {
		issues = append(issues, DataIssue{
			Ticker:  m.Ticker,
			Kind:    IssueUnknownLabel,
			Field:   "sentiment",
			Message: "unexpected sentiment label " + quote(string(m.Sentiment)),
		})
		return issues
	}
	if (m.Sentiment == MentionPositive && m.SentimentScore < 0) ||
		(m.Sentiment == MentionNegative && m.SentimentScore > 0) {
		issues = append(issues, DataIssue{
			Ticker:  m.Ticker,
			Kind:    IssueSignMismatch,
			Field:   "sentiment_score",
			Message: "sentiment label disagrees with score sign",
		})
	}
	return issues
}
