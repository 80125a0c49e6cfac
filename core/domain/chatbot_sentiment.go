package domain

import (
	"strconv"
	"strings"
)

// Sentiment describes the emotional tone of a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists the valid sentiments in label-encoder order.
var Sentiments = []Sentiment{SentimentNegative, SentimentNeutral, SentimentPositive}

// IsValid reports whether s is one of the three sentiments.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

func (s Sentiment) String() string { return string(s) }

// CoerceSentiment maps anything outside the valid set to neutral.
func CoerceSentiment(raw string) Sentiment {
	s := Sentiment(strings.ToLower(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s
	}
	return SentimentNeutral
}

// SentimentFromRating maps a 1-5 star rating: <=2 negative, >=4 positive,
// anything in between neutral.
func SentimentFromRating(rating float64) Sentiment {
	switch {
	case rating <= 2:
		return SentimentNegative
	case rating >= 4:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// ParseRatingSentiment parses a textual rating; unparseable input is neutral.
func ParseRatingSentiment(raw string) Sentiment {
	r, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return SentimentNeutral
	}
	return SentimentFromRating(r)
}

// SentimentFromIntent derives a sentiment for sources that carry none.
func SentimentFromIntent(intent Intent) Sentiment {
	switch intent {
	case IntentPositiveFeedback, IntentThanks:
		return SentimentPositive
	case IntentProductIssue, IntentRefund, IntentWrongOrder,
		IntentCancelOrder, IntentPaymentFailed, IntentMissingItem:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
