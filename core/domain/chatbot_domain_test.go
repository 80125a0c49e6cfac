package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentFromRating(t *testing.T) {
	tests := []struct {
		rating float64
		want   Sentiment
	}{
		{1.0, SentimentNegative},
		{2.0, SentimentNegative},
		{2.5, SentimentNeutral},
		{3.0, SentimentNeutral},
		{3.5, SentimentNeutral},
		{4.0, SentimentPositive},
		{4.5, SentimentPositive},
		{5.0, SentimentPositive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SentimentFromRating(tt.rating), "rating %.1f", tt.rating)
	}
}

func TestParseRatingSentiment(t *testing.T) {
	assert.Equal(t, SentimentNegative, ParseRatingSentiment(" 2 "))
	assert.Equal(t, SentimentPositive, ParseRatingSentiment("4.5"))
	assert.Equal(t, SentimentNeutral, ParseRatingSentiment("five"))
	assert.Equal(t, SentimentNeutral, ParseRatingSentiment(""))
}

func TestNormalizeIntent(t *testing.T) {
	tests := []struct {
		raw  string
		want Intent
	}{
		{"refund_request", IntentRefund},
		{"order_tracking", IntentGetOrder},
		{"availability_check", IntentStockInfo},
		{"delivery_query", IntentShippingInfo},
		{" greeting ", IntentGreeting},
		{"made_up", Intent("made_up")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIntent(tt.raw))
		})
	}
}

func TestIntentVocabulary(t *testing.T) {
	assert.True(t, IntentUnknown.IsAllowed())
	assert.True(t, IntentGetOrder.IsAllowed())
	assert.False(t, IntentOutOfScope.IsAllowed())
	assert.False(t, Intent("refund_request").IsAllowed())
	assert.Len(t, AllowedIntents(), 42)
}

func TestSentimentFromIntent(t *testing.T) {
	assert.Equal(t, SentimentPositive, SentimentFromIntent(IntentThanks))
	assert.Equal(t, SentimentNegative, SentimentFromIntent(IntentMissingItem))
	assert.Equal(t, SentimentNeutral, SentimentFromIntent(IntentStoreHours))
}

func TestCoerceSentiment(t *testing.T) {
	assert.Equal(t, SentimentPositive, CoerceSentiment("Positive"))
	assert.Equal(t, SentimentNeutral, CoerceSentiment("angry"))
	assert.Equal(t, SentimentNeutral, CoerceSentiment(""))
}
