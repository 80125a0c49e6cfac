package bootstrap

import (
	"path/filepath"
	"testing"

	"chatbot_server/config"

	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	return &config.Config{
		DataDir:             "data",
		ModelDir:            "models",
		CorpusPath:          filepath.Join("data", "corpus.csv"),
		SentimentCorpusPath: filepath.Join("data", "train.ft.txt"),
		PerIntent:           10,
		Seed:                7,
		IntentCap:           50,
		SourceLimit:         5,
		CVFolds:             3,
		LogRegMaxIter:       200,
		SentimentLimit:      100,
		Epochs:              2,
		BatchSize:           16,
		IntentThreshold:     0.2,
		LexiconThreshold:    0.1,
	}
}

func TestRetrainConfig(t *testing.T) {
	cfg := testConfig()
	rc := RetrainConfig(cfg)

	assert.Equal(t, "data", rc.Sources.Dir)
	assert.Equal(t, 5, rc.Sources.Limit)
	assert.Equal(t, 50, rc.Aggregator.IntentCap)
	assert.Equal(t, 10, rc.Generator.PerIntent)
	assert.Equal(t, cfg.CorpusPath, rc.Intent.CorpusPath)
	assert.Equal(t, filepath.Join("models", VectorizerFile), rc.Intent.VectorizerPath)
	assert.Equal(t, 200, rc.Intent.LogReg.MaxIter)
	assert.True(t, rc.Intent.LogReg.Balanced)

	if assert.NotNil(t, rc.Sentiment) {
		assert.Equal(t, 100, rc.Sentiment.Limit)
		assert.Equal(t, 2, rc.Sentiment.Train.Epochs)
		assert.Equal(t, 16, rc.Sentiment.Train.BatchSize)
		assert.Equal(t, int64(7), rc.Sentiment.SplitSeed)
		assert.Equal(t, filepath.Join("models", EncoderFile), rc.Sentiment.EncoderPath)
	}
}

func TestInferenceConfig(t *testing.T) {
	ic := InferenceConfig(testConfig())
	assert.Equal(t, 0.2, ic.IntentThreshold)
	assert.Equal(t, 0.1, ic.LexiconThreshold)
	assert.Equal(t, 100, ic.MaxLen)
}
