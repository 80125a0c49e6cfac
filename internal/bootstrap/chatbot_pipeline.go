package bootstrap

import (
	"path/filepath"

	"chatbot_server/config"
	"chatbot_server/core/ml/logreg"
	"chatbot_server/core/service/corpus"
	"chatbot_server/core/service/inference"
	"chatbot_server/core/service/retrain"
	"chatbot_server/core/service/training"
)

// Artifact file names inside ModelDir.
const (
	VectorizerFile  = "vectorizer.json.gz"
	IntentModelFile = "intent_model.json.gz"
	NetworkFile     = "sentiment_network.json.gz"
	TokenizerFile   = "tokenizer.json.gz"
	EncoderFile     = "label_encoder.json.gz"
)

// ArtifactPaths locates the model blobs under cfg.ModelDir.
func ArtifactPaths(cfg *config.Config) inference.ArtifactPaths {
	return inference.ArtifactPaths{
		Vectorizer:  cfg.ModelPath(VectorizerFile),
		IntentModel: cfg.ModelPath(IntentModelFile),
		Network:     cfg.ModelPath(NetworkFile),
		Tokenizer:   cfg.ModelPath(TokenizerFile),
		Encoder:     cfg.ModelPath(EncoderFile),
	}
}

func InferenceConfig(cfg *config.Config) inference.Config {
	ic := inference.DefaultConfig()
	ic.IntentThreshold = cfg.IntentThreshold
	ic.LexiconThreshold = cfg.LexiconThreshold
	return ic
}

func GeneratorConfig(cfg *config.Config) corpus.GeneratorConfig {
	return corpus.GeneratorConfig{PerIntent: cfg.PerIntent, Seed: cfg.Seed}
}

func SourceOptions(cfg *config.Config) corpus.SourceOptions {
	return corpus.SourceOptions{Dir: cfg.DataDir, Limit: cfg.SourceLimit, Seed: cfg.Seed}
}

func AggregatorConfig(cfg *config.Config) corpus.AggregatorConfig {
	return corpus.AggregatorConfig{IntentCap: cfg.IntentCap}
}

// SyntheticCorpusPath is where the generator writes inside DataDir.
func SyntheticCorpusPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, corpus.SyntheticFile)
}

func IntentConfig(cfg *config.Config) training.IntentConfig {
	opts := logreg.DefaultOptions()
	if cfg.LogRegMaxIter > 0 {
		opts.MaxIter = cfg.LogRegMaxIter
	}
	return training.IntentConfig{
		CorpusPath:     cfg.CorpusPath,
		VectorizerPath: cfg.ModelPath(VectorizerFile),
		ModelPath:      cfg.ModelPath(IntentModelFile),
		Folds:          cfg.CVFolds,
		Workers:        cfg.TrainWorkers,
		LogReg:         opts,
	}
}

func SentimentConfig(cfg *config.Config) training.SentimentConfig {
	sc := training.DefaultSentimentConfig()
	sc.CorpusPath = cfg.SentimentCorpusPath
	sc.NetworkPath = cfg.ModelPath(NetworkFile)
	sc.TokenizerPath = cfg.ModelPath(TokenizerFile)
	sc.EncoderPath = cfg.ModelPath(EncoderFile)
	if cfg.SentimentLimit > 0 {
		sc.Limit = cfg.SentimentLimit
	}
	sc.SplitSeed = cfg.Seed
	sc.Train.Seed = cfg.Seed
	sc.Train.Workers = cfg.TrainWorkers
	if cfg.Epochs > 0 {
		sc.Train.Epochs = cfg.Epochs
	}
	if cfg.BatchSize > 0 {
		sc.Train.BatchSize = cfg.BatchSize
	}
	return sc
}

// RetrainConfig assembles the full rebuild pipeline from cfg.
func RetrainConfig(cfg *config.Config) retrain.Config {
	sc := SentimentConfig(cfg)
	return retrain.Config{
		DataDir:       cfg.DataDir,
		TemplatesPath: cfg.TemplatesPath,
		CorpusPath:    cfg.CorpusPath,
		Generator:     GeneratorConfig(cfg),
		Sources:       SourceOptions(cfg),
		Aggregator:    AggregatorConfig(cfg),
		Intent:        IntentConfig(cfg),
		Sentiment:     &sc,
	}
}
