package in

import (
	"context"

	"chatbot_server/core/domain"
)

// ChatService defines the inbound port for serving chat messages.
type ChatService interface {
	Reply(ctx context.Context, message string) (*ChatReply, error)
	Predict(ctx context.Context, message string) (*Prediction, error)
}

// Prediction is the classification of a single message.
type Prediction struct {
	Intent    domain.Intent    `json:"intent"`
	Sentiment domain.Sentiment `json:"sentiment"`
	OrderID   *int64           `json:"order_id"`
}

// ChatReply is the answer returned to the customer.
type ChatReply struct {
	Prediction
	Reply string `json:"reply"`
}

// RetrainService defines the inbound port for rebuilding models.
type RetrainService interface {
	Run(ctx context.Context) (*RetrainReport, error)
}

// RetrainReport summarizes one retraining run.
type RetrainReport struct {
	Interactions   int            `json:"interactions"`
	CorpusRows     int            `json:"corpus_rows"`
	IntentCounts   map[string]int `json:"intent_counts"`
	CVMeanAccuracy float64        `json:"cv_mean_accuracy"`
	SentimentRun   bool           `json:"sentiment_trained"`
}
