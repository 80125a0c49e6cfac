// Package training fits the intent and sentiment models and writes their
// artifacts.
package training

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/ml/logreg"
	"chatbot_server/core/ml/tfidf"
	"chatbot_server/core/service/corpus"
	"chatbot_server/pkg/artifact"
	"chatbot_server/pkg/logger"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"
)

var (
	// ErrCorpusMissing is returned when the training corpus file does not exist.
	ErrCorpusMissing = errors.New("training corpus not found")
	// ErrEmptyCorpus is returned when the corpus has no usable rows.
	ErrEmptyCorpus = errors.New("training corpus has no usable rows")
)

// IntentConfig configures IntentTrainer.
type IntentConfig struct {
	CorpusPath     string
	VectorizerPath string
	ModelPath      string
	Folds          int
	Workers        int
	LogReg         logreg.Options
}

// IntentReport summarizes an intent training run.
type IntentReport struct {
	Examples      int       `json:"examples"`
	Classes       []string  `json:"classes"`
	Iterations    int       `json:"iterations"`
	TrainAccuracy float64   `json:"train_accuracy"`
	FoldAccuracy  []float64 `json:"fold_accuracy"`
	CVMean        float64   `json:"cv_mean"`
	CVStd         float64   `json:"cv_std"`
	CVMacroF1     float64   `json:"cv_macro_f1"`
}

// IntentModel is a fitted vectorizer and classifier pair.
type IntentModel struct {
	Vectorizer *tfidf.Vectorizer
	Classifier *logreg.Classifier
}

// FitIntentModel fits TF-IDF features and the classifier on examples.
func FitIntentModel(examples []domain.TrainingExample, opts logreg.Options) (*IntentModel, error) {
	texts, labels := split(examples)
	vec := tfidf.NewVectorizer()
	X, err := vec.FitTransform(texts)
	if err != nil {
		return nil, err
	}
	clf, err := logreg.Fit(X, labels, vec.Dimension(), opts)
	if err != nil {
		return nil, err
	}
	return &IntentModel{Vectorizer: vec, Classifier: clf}, nil
}

// IntentTrainer trains the intent classifier from the consolidated corpus.
type IntentTrainer struct {
	cfg IntentConfig
	log zerolog.Logger
}

// NewIntentTrainer creates a trainer.
func NewIntentTrainer(cfg IntentConfig) *IntentTrainer {
	if cfg.Folds <= 0 {
		cfg.Folds = 5
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.LogReg.MaxIter == 0 {
		cfg.LogReg = logreg.DefaultOptions()
	}
	return &IntentTrainer{cfg: cfg, log: logger.Component("intent_trainer")}
}

// Train loads the corpus, fits and saves both artifacts, then reports
// cross-validated accuracy. The cross-validation score never fails the run.
func (t *IntentTrainer) Train(ctx context.Context) (*IntentReport, error) {
	start := time.Now()
	f, err := os.Open(t.cfg.CorpusPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCorpusMissing, t.cfg.CorpusPath)
		}
		return nil, err
	}
	examples, err := corpus.ReadCorpusCSV(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	if len(examples) == 0 {
		return nil, ErrEmptyCorpus
	}
	t.log.Info().Int("examples", len(examples)).Str("path", t.cfg.CorpusPath).Msg("loaded intent corpus")

	model, err := FitIntentModel(examples, t.cfg.LogReg)
	if err != nil {
		return nil, fmt.Errorf("fit intent model: %w", err)
	}
	if err := artifact.Save(t.cfg.VectorizerPath, artifact.KindVectorizer, model.Vectorizer); err != nil {
		return nil, err
	}
	if err := artifact.Save(t.cfg.ModelPath, artifact.KindIntentModel, model.Classifier); err != nil {
		return nil, err
	}

	texts, labels := split(examples)
	pred := make([]string, len(texts))
	for i, text := range texts {
		pred[i], _ = model.Classifier.Predict(model.Vectorizer.Transform(text))
	}

	report := &IntentReport{
		Examples:      len(examples),
		Classes:       model.Classifier.Classes(),
		Iterations:    model.Classifier.Iter,
		TrainAccuracy: logreg.Accuracy(labels, pred),
	}

	folds, err := t.crossValidate(ctx, examples)
	if err != nil {
		t.log.Warn().Err(err).Msg("cross-validation incomplete")
	}
	var f1s []float64
	for _, fr := range folds {
		if fr.skipped {
			continue
		}
		report.FoldAccuracy = append(report.FoldAccuracy, fr.accuracy)
		f1s = append(f1s, fr.macroF1)
	}
	report.CVMean, report.CVStd = logreg.MeanStd(report.FoldAccuracy)
	report.CVMacroF1, _ = logreg.MeanStd(f1s)

	t.log.Info().
		Int("examples", report.Examples).
		Int("classes", len(report.Classes)).
		Int("iterations", report.Iterations).
		Float64("train_accuracy", report.TrainAccuracy).
		Float64("cv_mean_accuracy", report.CVMean).
		Float64("cv_std", report.CVStd).
		Dur("took", time.Since(start)).
		Msg("intent model trained")
	return report, nil
}

// =============================================================================
// Cross-validation
// =============================================================================

type cvFold struct {
	index int
	train []int
	test  []int
}

type foldResult struct {
	accuracy float64
	macroF1  float64
	skipped  bool
}

// stratifiedFolds deals each class's examples round-robin across k folds
// in corpus order.
func stratifiedFolds(examples []domain.TrainingExample, k int) []cvFold {
	if k > len(examples) {
		k = len(examples)
	}
	assign := make([]int, len(examples))
	seen := make(map[domain.Intent]int)
	for i, ex := range examples {
		assign[i] = seen[ex.Intent] % k
		seen[ex.Intent]++
	}
	folds := make([]cvFold, k)
	for f := range folds {
		folds[f].index = f
		for i, a := range assign {
			if a == f {
				folds[f].test = append(folds[f].test, i)
			} else {
				folds[f].train = append(folds[f].train, i)
			}
		}
	}
	return folds
}

// foldWorker implements pool.Worker for cross-validation folds.
type foldWorker struct {
	examples []domain.TrainingExample
	opts     logreg.Options
	results  []foldResult
	log      zerolog.Logger
}

// Do implements pool.Worker interface.
func (w *foldWorker) Do(ctx context.Context, fold cvFold) error {
	if err := ctx.Err(); err != nil {
		w.results[fold.index].skipped = true
		return err
	}
	res, err := evaluateFold(w.examples, fold, w.opts)
	if err != nil {
		w.log.Debug().Err(err).Int("fold", fold.index).Msg("fold skipped")
		w.results[fold.index].skipped = true
		return nil
	}
	w.results[fold.index] = res
	w.log.Debug().Int("fold", fold.index).Float64("accuracy", res.accuracy).Msg("fold evaluated")
	return nil
}

func (t *IntentTrainer) crossValidate(ctx context.Context, examples []domain.TrainingExample) ([]foldResult, error) {
	folds := stratifiedFolds(examples, t.cfg.Folds)
	if len(folds) == 0 {
		return nil, nil
	}
	worker := &foldWorker{
		examples: examples,
		opts:     t.cfg.LogReg,
		results:  make([]foldResult, len(folds)),
		log:      t.log,
	}

	group := pool.New[cvFold](min(t.cfg.Workers, len(folds)), worker).WithContinueOnError()
	if err := group.Go(ctx); err != nil {
		return nil, err
	}
	for _, fold := range folds {
		group.Submit(fold)
	}
	err := group.Close(ctx)
	return worker.results, err
}

func evaluateFold(examples []domain.TrainingExample, fold cvFold, opts logreg.Options) (foldResult, error) {
	train := make([]domain.TrainingExample, len(fold.train))
	for i, idx := range fold.train {
		train[i] = examples[idx]
	}
	if len(fold.test) == 0 {
		return foldResult{}, errors.New("empty test fold")
	}
	model, err := FitIntentModel(train, opts)
	if err != nil {
		return foldResult{}, err
	}
	truth := make([]string, len(fold.test))
	pred := make([]string, len(fold.test))
	for i, idx := range fold.test {
		truth[i] = examples[idx].Intent.String()
		pred[i], _ = model.Classifier.Predict(model.Vectorizer.Transform(examples[idx].Text))
	}
	return foldResult{
		accuracy: logreg.Accuracy(truth, pred),
		macroF1:  logreg.MacroF1(truth, pred),
	}, nil
}

func split(examples []domain.TrainingExample) ([]string, []string) {
	texts := make([]string, len(examples))
	labels := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
		labels[i] = ex.Intent.String()
	}
	return texts, labels
}
