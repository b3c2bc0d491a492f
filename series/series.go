// Package series turns daily sentiment aggregates into chart-ready series.
//
// The sentiment API returns history newest first; charts plot oldest first.
// Every function here is pure and never mutates its input.
package series

import (
	"time"

	"sentiment-dashboard/models"
)

// LabelLayout renders a point's x-axis label, e.g. "Jan 3".
const LabelLayout = "Jan 2"

// Point is one day of a stock's sentiment, ready for plotting.
type Point struct {
	Date           time.Time `json:"date"`
	Label          string    `json:"label"`
	SentimentIndex float64   `json:"sentiment_index"`
	Positive       int       `json:"positive"`
	Negative       int       `json:"negative"`
	Neutral        int       `json:"neutral"`
	Total          int       `json:"total"`
}

// LinePoint is a projection of Point for the sentiment trend line.
type LinePoint struct {
	Label          string  `json:"label"`
	SentimentIndex float64 `json:"sentiment_index"`
}

// BarPoint is a projection of Point for the stacked mention-volume bars.
type BarPoint struct {
	Label    string `json:"label"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
	Total    int    `json:"total"`
}

// Reverse returns a new slice holding in's elements in reverse order.
func Reverse[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// Shape converts newest-first history into oldest-first points.
// The result has the same length as history and is never nil.
func Shape(history []models.StockSentiment) []Point {
	points := make([]Point, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		points = append(points, pointFrom(history[i]))
	}
	return points
}

func pointFrom(s models.StockSentiment) Point {
	date := s.Date.UTC()
	return Point{
		Date:           date,
		Label:          Label(date),
		SentimentIndex: s.SentimentIndex,
		Positive:       s.PositiveMentions,
		Negative:       s.NegativeMentions,
		Neutral:        s.NeutralMentions,
		Total:          s.MentionsCount,
	}
}

// Label formats a date as a short month and day in UTC. The zero time yields "".
func Label(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(LabelLayout)
}

// SentimentLine projects points onto the trend line chart.
func SentimentLine(points []Point) []LinePoint {
	line := make([]LinePoint, len(points))
	for i, p := range points {
		line[i] = LinePoint{Label: p.Label, SentimentIndex: p.SentimentIndex}
	}
	return line
}

// MentionBars projects points onto the stacked mention bar chart.
func MentionBars(points []Point) []BarPoint {
	bars := make([]BarPoint, len(points))
	for i, p := range points {
		bars[i] = BarPoint{
			Label:    p.Label,
			Positive: p.Positive,
			Negative: p.Negative,
			Neutral:  p.Neutral,
			Total:    p.Total,
		}
	}
	return bars
}
