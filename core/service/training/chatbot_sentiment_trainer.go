package training

import (
	"context"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/ml/rnn"
	"chatbot_server/pkg/artifact"
	"chatbot_server/pkg/logger"

	"github.com/rs/zerolog"
)

// SentimentConfig configures SentimentTrainer.
type SentimentConfig struct {
	CorpusPath    string
	Limit         int
	NetworkPath   string
	TokenizerPath string
	EncoderPath   string
	NumWords      int
	TestFraction  float64
	SplitSeed     int64
	Network       rnn.Config
	Train         rnn.TrainOptions
}

// DefaultSentimentConfig returns the production hyperparameters.
func DefaultSentimentConfig() SentimentConfig {
	return SentimentConfig{
		Limit:        2000,
		NumWords:     30000,
		TestFraction: 0.2,
		SplitSeed:    42,
		Network:      rnn.DefaultConfig(),
		Train:        rnn.DefaultTrainOptions(),
	}
}

// SentimentReport summarizes a sentiment training run.
type SentimentReport struct {
	Examples      int              `json:"examples"`
	Vocabulary    int              `json:"vocabulary"`
	Classes       []string         `json:"classes"`
	History       []rnn.EpochStats `json:"history"`
	ValAccuracy   float64          `json:"val_accuracy"`
	TrainExamples int              `json:"train_examples"`
	ValExamples   int              `json:"val_examples"`
}

// SentimentModel bundles the three sentiment artifacts.
type SentimentModel struct {
	Network   *rnn.Network
	Tokenizer *rnn.Tokenizer
	Encoder   *rnn.LabelEncoder
}

// SentimentTrainer trains the recurrent sentiment network.
type SentimentTrainer struct {
	cfg SentimentConfig
	log zerolog.Logger
}

// NewSentimentTrainer creates a trainer.
func NewSentimentTrainer(cfg SentimentConfig) *SentimentTrainer {
	def := DefaultSentimentConfig()
	if cfg.NumWords <= 0 {
		cfg.NumWords = def.NumWords
	}
	if cfg.Network.VocabSize == 0 {
		cfg.Network = def.Network
	}
	if cfg.Train.Epochs == 0 {
		cfg.Train = def.Train
	}
	return &SentimentTrainer{cfg: cfg, log: logger.Component("sentiment_trainer")}
}

// Train loads the rated corpus, fits the network and saves all artifacts.
func (t *SentimentTrainer) Train(ctx context.Context) (*SentimentReport, error) {
	examples, err := LoadSentimentCorpus(t.cfg.CorpusPath, t.cfg.Limit)
	if err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, ErrEmptyCorpus
	}
	t.log.Info().Int("examples", len(examples)).Str("path", t.cfg.CorpusPath).Msg("loaded sentiment corpus")

	model, report, err := t.Fit(ctx, examples)
	if err != nil {
		return nil, err
	}
	if err := artifact.Save(t.cfg.NetworkPath, artifact.KindNetwork, model.Network); err != nil {
		return nil, err
	}
	if err := artifact.Save(t.cfg.TokenizerPath, artifact.KindTokenizer, model.Tokenizer); err != nil {
		return nil, err
	}
	if err := artifact.Save(t.cfg.EncoderPath, artifact.KindLabelEncoder, model.Encoder); err != nil {
		return nil, err
	}
	return report, nil
}

// Fit trains on in-memory examples without touching the filesystem.
func (t *SentimentTrainer) Fit(ctx context.Context, examples []domain.SentimentExample) (*SentimentModel, *SentimentReport, error) {
	start := time.Now()
	texts := make([]string, len(examples))
	labels := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
		labels[i] = ex.Sentiment.String()
	}

	tok := rnn.NewTokenizer(t.cfg.NumWords)
	tok.FitOnTexts(texts)
	X := rnn.PadSequences(tok.TextsToSequences(texts), t.cfg.Network.MaxLen)

	enc := rnn.FitLabelEncoder(labels)
	y, err := enc.EncodeAll(labels)
	if err != nil {
		return nil, nil, err
	}

	netCfg := t.cfg.Network
	netCfg.Classes = len(enc.Classes)
	train, val := rnn.Split(rnn.Dataset{X: X, Y: y}, t.cfg.TestFraction, t.cfg.SplitSeed)

	net := rnn.NewNetwork(netCfg, t.cfg.Train.Seed)
	history, err := net.Fit(ctx, train, val, t.cfg.Train, func(s rnn.EpochStats) {
		t.log.Info().
			Int("epoch", s.Epoch).
			Float64("loss", s.Loss).
			Float64("accuracy", s.Accuracy).
			Float64("val_loss", s.ValLoss).
			Float64("val_accuracy", s.ValAccuracy).
			Msg("epoch finished")
	})
	if err != nil {
		return nil, nil, err
	}

	report := &SentimentReport{
		Examples:      len(examples),
		Vocabulary:    len(tok.WordIndex),
		Classes:       enc.Classes,
		History:       history,
		TrainExamples: train.Len(),
		ValExamples:   val.Len(),
	}
	if n := len(history); n > 0 {
		report.ValAccuracy = history[n-1].ValAccuracy
	}
	t.log.Info().
		Int("examples", report.Examples).
		Int("vocabulary", report.Vocabulary).
		Float64("val_accuracy", report.ValAccuracy).
		Dur("took", time.Since(start)).
		Msg("sentiment model trained")
	return &SentimentModel{Network: net, Tokenizer: tok, Encoder: enc}, report, nil
}
