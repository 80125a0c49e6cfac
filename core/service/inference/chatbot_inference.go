// Package inference serves intent and sentiment predictions from trained
// artifacts. A Service is immutable after construction and safe for
// concurrent use.
package inference

import (
	"errors"
	"fmt"
	"strings"

	"chatbot_server/core/domain"
	"chatbot_server/core/ml/logreg"
	"chatbot_server/core/ml/rnn"
	"chatbot_server/core/ml/tfidf"
	"chatbot_server/pkg/artifact"
	"chatbot_server/pkg/logger"
)

// ErrArtifactMissing is reported for artifacts absent at load time.
var ErrArtifactMissing = errors.New("model artifact missing")

// ErrArtifactMismatch is reported when the vectorizer and intent model
// disagree on the feature dimension.
var ErrArtifactMismatch = errors.New("model artifacts do not match")

// ArtifactPaths locates the five model blobs.
type ArtifactPaths struct {
	Vectorizer  string
	IntentModel string
	Network     string
	Tokenizer   string
	Encoder     string
}

// Artifacts holds whatever models could be loaded. Any field may be nil.
type Artifacts struct {
	Vectorizer *tfidf.Vectorizer
	Intent     *logreg.Classifier
	Network    *rnn.Network
	Tokenizer  *rnn.Tokenizer
	Encoder    *rnn.LabelEncoder
}

// LoadArtifacts loads every blob it can. Missing or corrupt blobs are logged
// and left nil; the returned error joins all failures for callers that care.
func LoadArtifacts(paths ArtifactPaths) (*Artifacts, error) {
	l := &artifactLoader{log: logger.WithField("component", "inference")}
	arts := &Artifacts{}

	vec := tfidf.NewVectorizer()
	if l.load(paths.Vectorizer, artifact.KindVectorizer, vec, func() error {
		if !vec.Fitted() {
			return errors.New("vectorizer is not fitted")
		}
		return nil
	}) {
		arts.Vectorizer = vec
	}

	clf := &logreg.Classifier{}
	if l.load(paths.IntentModel, artifact.KindIntentModel, clf, clf.Validate) {
		arts.Intent = clf
	}
	if arts.Vectorizer != nil && arts.Intent != nil && arts.Vectorizer.Dimension() != arts.Intent.Dim {
		err := fmt.Errorf("%w: vectorizer has %d features, intent model expects %d",
			ErrArtifactMismatch, arts.Vectorizer.Dimension(), arts.Intent.Dim)
		l.log.WithError(err).Warn("intent artifacts rejected")
		l.errs = append(l.errs, err)
		arts.Vectorizer, arts.Intent = nil, nil
	}

	net := &rnn.Network{}
	if l.load(paths.Network, artifact.KindNetwork, net, net.Validate) {
		arts.Network = net
	}

	tok := &rnn.Tokenizer{}
	if l.load(paths.Tokenizer, artifact.KindTokenizer, tok, func() error {
		if len(tok.WordIndex) == 0 {
			return errors.New("tokenizer has an empty word index")
		}
		return nil
	}) {
		arts.Tokenizer = tok
	}

	enc := &rnn.LabelEncoder{}
	if l.load(paths.Encoder, artifact.KindLabelEncoder, enc, func() error {
		if len(enc.Classes) == 0 {
			return errors.New("label encoder has no classes")
		}
		return nil
	}) {
		arts.Encoder = enc
	}
	return arts, errors.Join(l.errs...)
}

type artifactLoader struct {
	log  *logger.Logger
	errs []error
}

func (l *artifactLoader) load(path, kind string, v any, validate func() error) bool {
	var err error
	switch {
	case path == "":
		err = fmt.Errorf("%w: %s has no configured path", ErrArtifactMissing, kind)
	default:
		err = artifact.Load(path, kind, v)
		if errors.Is(err, artifact.ErrNotFound) {
			err = fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		if err == nil {
			err = validate()
		}
	}
	if err != nil {
		l.log.WithError(err).Warn("artifact %s unavailable", kind)
		l.errs = append(l.errs, err)
		return false
	}
	return true
}

// =============================================================================
// Service
// =============================================================================

// Config tunes prediction.
type Config struct {
	// IntentThreshold is the minimum top-class probability to commit to an intent.
	IntentThreshold float64
	// MaxLen is the sequence length the network was trained with.
	MaxLen int
	// LexiconThreshold is the half-width of the lexicon's neutral band.
	LexiconThreshold float64
	PositivePhrases  []string
	Greetings        []string
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{IntentThreshold: 0.15, MaxLen: 100, LexiconThreshold: 0.05}
}

// IntentResult is a detailed intent prediction.
type IntentResult struct {
	Intent     domain.Intent `json:"intent"`
	Confidence float64       `json:"confidence"`
	Raw        string        `json:"raw,omitempty"`
}

// SentimentResult is a detailed sentiment prediction.
type SentimentResult struct {
	Sentiment domain.Sentiment `json:"sentiment"`
	Stage     string           `json:"stage"`
}

// Status reports which predictors have their artifacts.
type Status struct {
	IntentModel    bool `json:"intent_model"`
	SentimentModel bool `json:"sentiment_model"`
}

// Service answers intent and sentiment queries.
type Service struct {
	vec        *tfidf.Vectorizer
	clf        *logreg.Classifier
	cfg        Config
	strategies []SentimentStrategy
	neural     *NeuralStrategy
	log        *logger.Logger
}

// NewService builds a service over arts, which may be nil or partially
// populated.
func NewService(arts *Artifacts, cfg Config) *Service {
	if arts == nil {
		arts = &Artifacts{}
	}
	def := DefaultConfig()
	if cfg.IntentThreshold <= 0 {
		cfg.IntentThreshold = def.IntentThreshold
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = def.MaxLen
	}
	if arts.Network != nil {
		cfg.MaxLen = arts.Network.Config.MaxLen
	}
	neural := NewNeuralStrategy(arts.Network, arts.Tokenizer, arts.Encoder, cfg.MaxLen)
	return &Service{
		vec: arts.Vectorizer,
		clf: arts.Intent,
		cfg: cfg,
		strategies: []SentimentStrategy{
			NewKeywordStrategy(cfg.PositivePhrases, cfg.Greetings),
			neural,
			NewLexiconStrategy(cfg.LexiconThreshold),
			DefaultStrategy{},
		},
		neural: neural,
		log:    logger.WithField("component", "inference"),
	}
}

// WithStrategies returns a copy of s using a custom sentiment cascade.
func (s *Service) WithStrategies(strategies ...SentimentStrategy) *Service {
	cp := *s
	cp.strategies = append([]SentimentStrategy(nil), strategies...)
	return &cp
}

// Status reports artifact availability.
func (s *Service) Status() Status {
	return Status{
		IntentModel:    s.vec != nil && s.clf != nil,
		SentimentModel: s.neural.Available(),
	}
}

// PredictIntent classifies text, returning unknown instead of guessing.
func (s *Service) PredictIntent(text string) domain.Intent {
	return s.PredictIntentDetailed(text).Intent
}

// PredictIntentDetailed is PredictIntent with the model confidence.
func (s *Service) PredictIntentDetailed(text string) (res IntentResult) {
	res.Intent = domain.IntentUnknown
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("intent prediction panicked: %v", r)
			res = IntentResult{Intent: domain.IntentUnknown}
		}
	}()

	if s.vec == nil || s.clf == nil || strings.TrimSpace(text) == "" {
		return res
	}
	label, p := s.clf.Predict(s.vec.Transform(text))
	res.Raw, res.Confidence = label, p
	if p < s.cfg.IntentThreshold {
		return res
	}
	res.Intent = domain.Intent(label)
	return res
}

// PredictSentiment classifies tone. It never fails; the last resort is neutral.
func (s *Service) PredictSentiment(text string) domain.Sentiment {
	return s.PredictSentimentDetailed(text).Sentiment
}

// PredictSentimentDetailed runs the cascade and reports the answering stage.
func (s *Service) PredictSentimentDetailed(text string) SentimentResult {
	for _, st := range s.strategies {
		if sent, ok := s.evaluate(st, text); ok {
			return SentimentResult{Sentiment: sent, Stage: st.Name()}
		}
	}
	return SentimentResult{Sentiment: domain.SentimentNeutral, Stage: StageDefault}
}

func (s *Service) evaluate(st SentimentStrategy, text string) (sent domain.Sentiment, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("sentiment stage %s panicked: %v", st.Name(), r)
			sent, ok = "", false
		}
	}()
	return st.Evaluate(text)
}
