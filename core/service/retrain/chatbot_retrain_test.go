package retrain

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chatbot_server/core/domain"
	"chatbot_server/core/ml/logreg"
	"chatbot_server/core/service/corpus"
	"chatbot_server/core/service/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memInteractions struct {
	items []*domain.Interaction
	err   error
}

func (m *memInteractions) Save(_ context.Context, it *domain.Interaction) error {
	m.items = append(m.items, it)
	return nil
}

func (m *memInteractions) List(_ context.Context, fn func(*domain.Interaction) error) error {
	if m.err != nil {
		return m.err
	}
	for _, it := range m.items {
		if err := fn(it); err != nil {
			return err
		}
	}
	return nil
}

func (m *memInteractions) Count(context.Context) (int64, error) { return int64(len(m.items)), nil }

func testConfig(dir string) Config {
	opts := logreg.DefaultOptions()
	opts.MaxIter = 40
	return Config{
		DataDir:    dir,
		Generator:  corpus.GeneratorConfig{PerIntent: 6, Seed: 7},
		Aggregator: corpus.DefaultAggregatorConfig(),
		Intent: training.IntentConfig{
			VectorizerPath: filepath.Join(dir, "vectorizer.json.gz"),
			ModelPath:      filepath.Join(dir, "intent_model.json.gz"),
			Folds:          2,
			Workers:        2,
			LogReg:         opts,
		},
	}
}

func TestRun_NoInteractions(t *testing.T) {
	dir := t.TempDir()
	repo := &memInteractions{items: []*domain.Interaction{
		domain.NewInteraction("hi", domain.IntentGreeting, domain.SentimentNeutral),
	}}
	r := NewRunner(testConfig(dir), repo)

	report, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoInteractions)
	require.NotNil(t, report)
	assert.Zero(t, report.Interactions)

	_, statErr := os.Stat(filepath.Join(dir, corpus.UserContributionFile))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, "intent_model.json.gz"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_ListError(t *testing.T) {
	r := NewRunner(testConfig(t.TempDir()), &memInteractions{err: errors.New("mongo down")})
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo down")
}

func TestExportInteractions(t *testing.T) {
	dir := t.TempDir()
	repo := &memInteractions{items: []*domain.Interaction{
		domain.NewInteraction("ok", domain.IntentUnknown, domain.SentimentNeutral),
		domain.NewInteraction("  hey ", domain.IntentGreeting, domain.SentimentNeutral),
		domain.NewInteraction("where is my parcel", domain.IntentShippingInfo, domain.SentimentNeutral),
		domain.NewInteraction("this, is \"great\"", domain.IntentPositiveFeedback, domain.SentimentPositive),
	}}
	r := NewRunner(testConfig(dir), repo)

	path := filepath.Join(dir, "export", corpus.UserContributionFile)
	n, err := r.ExportInteractions(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"text", "intent", "sentiment"},
		{"where is my parcel", "shipping_info", "neutral"},
		{"this, is \"great\"", "positive_feedback", "positive"},
	}, records)
}

func TestRun_FullRebuild(t *testing.T) {
	if testing.Short() {
		t.Skip("trains a model")
	}
	dir := t.TempDir()
	repo := &memInteractions{items: []*domain.Interaction{
		domain.NewInteraction("can I get a refund for this", domain.IntentRefund, domain.SentimentNegative),
		domain.NewInteraction("thanks so much", domain.IntentThanks, domain.SentimentPositive),
	}}
	cfg := testConfig(dir)
	cfg.Sentiment = &training.SentimentConfig{CorpusPath: filepath.Join(dir, "missing.txt")}
	r := NewRunner(cfg, repo)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Interactions)
	assert.Positive(t, report.CorpusRows)
	assert.False(t, report.SentimentRun)
	assert.GreaterOrEqual(t, report.IntentCounts["refund"], 1)
	assert.Greater(t, report.CVMeanAccuracy, 0.0)

	for _, name := range []string{corpus.SyntheticFile, "consolidated_training_data.csv", "vectorizer.json.gz", "intent_model.json.gz"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
