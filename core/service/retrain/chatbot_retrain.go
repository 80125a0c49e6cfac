// Package retrain rebuilds the corpus and models from scratch, folding in
// the interactions logged by the serving process.
package retrain

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/in"
	"chatbot_server/core/port/out"
	"chatbot_server/core/service/corpus"
	"chatbot_server/core/service/training"
	"chatbot_server/pkg/logger"
)

var (
	// ErrNoInteractions is returned when there is nothing new to learn from.
	ErrNoInteractions = errors.New("no user interactions to export")
	// ErrAlreadyRunning is returned while another run is in progress.
	ErrAlreadyRunning = errors.New("retraining already in progress")
)

// minInteractionLength excludes one-word noise such as "hi" or "ok".
const minInteractionLength = 3

// Config wires the pipeline stages.
type Config struct {
	// DataDir holds the source datasets; the synthetic corpus and the
	// interaction export are written here.
	DataDir       string
	TemplatesPath string
	CorpusPath    string
	Generator     corpus.GeneratorConfig
	Sources       corpus.SourceOptions
	Aggregator    corpus.AggregatorConfig
	Intent        training.IntentConfig
	// Sentiment is trained only when its corpus file exists.
	Sentiment *training.SentimentConfig
}

// Runner implements in.RetrainService.
type Runner struct {
	cfg          Config
	interactions out.InteractionRepository
	running      atomic.Bool
	log          *logger.Logger
}

var _ in.RetrainService = (*Runner)(nil)

// NewRunner creates a retraining runner.
func NewRunner(cfg Config, interactions out.InteractionRepository) *Runner {
	if cfg.Sources.Dir == "" {
		cfg.Sources.Dir = cfg.DataDir
	}
	if cfg.CorpusPath == "" {
		cfg.CorpusPath = filepath.Join(cfg.DataDir, "consolidated_training_data.csv")
	}
	if cfg.Intent.CorpusPath == "" {
		cfg.Intent.CorpusPath = cfg.CorpusPath
	}
	return &Runner{cfg: cfg, interactions: interactions, log: logger.WithField("component", "retrain")}
}

// Run exports interactions, then regenerates, re-aggregates and retrains.
func (r *Runner) Run(ctx context.Context) (*in.RetrainReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer r.running.Store(false)

	start := time.Now()
	report := &in.RetrainReport{}

	exported, err := r.ExportInteractions(ctx, filepath.Join(r.cfg.Sources.Dir, corpus.UserContributionFile))
	if err != nil {
		return nil, err
	}
	report.Interactions = exported
	if exported == 0 {
		r.log.Info("no user interactions found, skipping retraining")
		return report, ErrNoInteractions
	}

	if err := r.generate(); err != nil {
		return report, err
	}

	c, err := corpus.NewAggregator(r.cfg.Aggregator).Aggregate(ctx, corpus.BuiltinSources(r.cfg.Sources))
	if err != nil {
		return report, fmt.Errorf("aggregate corpus: %w", err)
	}
	if err := c.WriteCSVFile(r.cfg.CorpusPath); err != nil {
		return report, err
	}
	report.CorpusRows = c.Len()
	report.IntentCounts = make(map[string]int)
	for _, ic := range c.Summary() {
		report.IntentCounts[ic.Intent.String()] = ic.Count
	}

	intentReport, err := training.NewIntentTrainer(r.cfg.Intent).Train(ctx)
	if err != nil {
		return report, fmt.Errorf("train intent model: %w", err)
	}
	report.CVMeanAccuracy = intentReport.CVMean

	if sc := r.cfg.Sentiment; sc != nil {
		if _, statErr := os.Stat(sc.CorpusPath); statErr == nil {
			if _, err := training.NewSentimentTrainer(*sc).Train(ctx); err != nil {
				return report, fmt.Errorf("train sentiment model: %w", err)
			}
			report.SentimentRun = true
		} else {
			r.log.WithField("path", sc.CorpusPath).Info("sentiment corpus not found, keeping current sentiment model")
		}
	}

	r.log.WithDuration(time.Since(start)).WithFields(map[string]any{
		"interactions": report.Interactions,
		"corpus_rows":  report.CorpusRows,
		"cv_mean":      report.CVMeanAccuracy,
	}).Info("retraining complete")
	return report, nil
}

func (r *Runner) generate() error {
	set, err := corpus.LoadTemplates(r.cfg.TemplatesPath)
	if err != nil {
		return err
	}
	_, err = corpus.NewGenerator(set, r.cfg.Generator).GenerateFile(filepath.Join(r.cfg.Sources.Dir, corpus.SyntheticFile))
	return err
}

// ExportInteractions writes every logged interaction with meaningful text
// to path as `text,intent,sentiment` and returns how many were written.
// The file is replaced only when at least one row qualifies.
func (r *Runner) ExportInteractions(ctx context.Context, path string) (int, error) {
	if r.interactions == nil {
		return 0, nil
	}
	var rows [][]string
	err := r.interactions.List(ctx, func(it *domain.Interaction) error {
		text := strings.TrimSpace(it.Text)
		if len(text) <= minInteractionLength {
			return nil
		}
		rows = append(rows, []string{text, it.Intent.String(), it.Sentiment.String()})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list interactions: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"text", "intent", "sentiment"}); err != nil {
		return 0, err
	}
	if err := w.WriteAll(rows); err != nil {
		return 0, err
	}
	r.log.WithField("path", path).Info("exported %d interactions", len(rows))
	return len(rows), f.Close()
}
