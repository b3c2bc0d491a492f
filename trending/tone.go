package trending

import "sentiment-dashboard/models"

// Tone is the visual polarity of a value: bullish, bearish or neutral.
type Tone string

const (
	ToneBullish Tone = "bullish"
	ToneBearish Tone = "bearish"
	ToneNeutral Tone = "neutral"
)

// Color returns the display color for the tone.
func (t Tone) Color() string {
	switch t {
	case ToneBullish:
		return "green"
	case ToneBearish:
		return "red"
	default:
		return "gray"
	}
}

// Label returns the capitalized tone name.
func (t Tone) Label() string {
	switch t {
	case ToneBullish:
		return "Bullish"
	case ToneBearish:
		return "Bearish"
	default:
		return "Neutral"
	}
}

// ToneOf classifies a sentiment index: positive is bullish, negative bearish, zero neutral.
func ToneOf(index float64) Tone {
	switch {
	case index > 0:
		return ToneBullish
	case index < 0:
		return ToneBearish
	default:
		return ToneNeutral
	}
}

// HeadlineLabel is the detail page heading for a stock's current index.
// Only a strictly positive index reads as bullish.
func HeadlineLabel(index float64) string {
	if index > 0 {
		return "Bullish Sentiment"
	}
	return "Bearish Sentiment"
}

// MentionTone maps a mention label to a tone. Unexpected labels are neutral.
func MentionTone(label models.MentionSentiment) Tone {
	switch label {
	case models.MentionPositive:
		return ToneBullish
	case models.MentionNegative:
		return ToneBearish
	default:
		return ToneNeutral
	}
}

func categoryTone(c models.TrendCategory) Tone {
	switch c {
	case models.CategoryBullish:
		return ToneBullish
	case models.CategoryBearish:
		return ToneBearish
	default:
		return ToneNeutral
	}
}
