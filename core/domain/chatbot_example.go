package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrainingExample is one labeled row of the consolidated intent corpus.
type TrainingExample struct {
	Text      string
	Intent    Intent
	Sentiment Sentiment
}

// RatedText is one row of the rating-labeled sentiment corpus.
type RatedText struct {
	Text   string
	Rating float64
}

// SentimentExample is a RatedText after the rating rule has been applied.
type SentimentExample struct {
	Text      string
	Sentiment Sentiment
}

// Interaction is appended once per served chat request and seeds future corpora.
type Interaction struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Intent    Intent    `json:"intent"`
	Sentiment Sentiment `json:"sentiment"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInteraction stamps a new interaction with an id and the current time.
func NewInteraction(text string, intent Intent, sentiment Sentiment) *Interaction {
	return &Interaction{
		ID:        uuid.New(),
		Text:      text,
		Intent:    intent,
		Sentiment: sentiment,
		Timestamp: time.Now().UTC(),
	}
}

// Order is the customer order returned by order lookups.
type Order struct {
	OrderNumber  int64    `json:"order_number"`
	Status       string   `json:"status"`
	Items        []string `json:"items"`
	Total        float64  `json:"total"`
	CustomerName string   `json:"customer_name"`
	Address      string   `json:"address"`
	OrderDate    string   `json:"order_date"`
}
