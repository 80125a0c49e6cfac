package inference

import (
	"regexp"
	"strings"

	"chatbot_server/core/domain"
	"chatbot_server/core/ml/lexicon"
	"chatbot_server/core/ml/rnn"
)

// SentimentStrategy is one stage of the sentiment cascade. ok is false when
// the stage has no confident answer and the next stage should run.
type SentimentStrategy interface {
	Name() string
	Evaluate(text string) (s domain.Sentiment, ok bool)
}

// Stage names reported by PredictSentimentDetailed.
const (
	StageKeyword = "keyword"
	StageNeural  = "neural"
	StageLexicon = "lexicon"
	StageDefault = "default"
)

// =============================================================================
// Keyword
// =============================================================================

var defaultPositivePhrases = []string{
	"amazing", "excellent", "love", "loved", "great", "awesome", "fantastic",
	"wonderful", "perfect", "best", "superb", "thank you so much",
}

var defaultGreetings = []string{
	"hello", "hi", "hey", "hii", "hey there", "hi there", "hello there",
	"good morning", "good afternoon", "good evening", "greetings", "hello bot", "hi chatbot",
}

// KeywordStrategy short-circuits phrases the statistical stages get wrong:
// strong positive words force positive, bare greetings force neutral.
type KeywordStrategy struct {
	positive  *regexp.Regexp
	greetings map[string]struct{}
}

// NewKeywordStrategy builds the strategy. Empty lists use the defaults.
func NewKeywordStrategy(positive, greetings []string) *KeywordStrategy {
	if len(positive) == 0 {
		positive = defaultPositivePhrases
	}
	if len(greetings) == 0 {
		greetings = defaultGreetings
	}
	quoted := make([]string, len(positive))
	for i, p := range positive {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(p))
	}
	set := make(map[string]struct{}, len(greetings))
	for _, g := range greetings {
		set[strings.ToLower(g)] = struct{}{}
	}
	return &KeywordStrategy{
		positive:  regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
		greetings: set,
	}
}

func (k *KeywordStrategy) Name() string { return StageKeyword }

func (k *KeywordStrategy) Evaluate(text string) (domain.Sentiment, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if _, ok := k.greetings[strings.TrimRight(lower, "!.?, ")]; ok {
		return domain.SentimentNeutral, true
	}
	if k.positive.MatchString(lower) {
		return domain.SentimentPositive, true
	}
	return "", false
}

// =============================================================================
// Neural
// =============================================================================

// NeuralStrategy runs the recurrent network. It abstains when any of its
// artifacts is missing.
type NeuralStrategy struct {
	net    *rnn.Network
	tok    *rnn.Tokenizer
	enc    *rnn.LabelEncoder
	maxLen int
}

// NewNeuralStrategy builds the strategy; nil artifacts are allowed.
func NewNeuralStrategy(net *rnn.Network, tok *rnn.Tokenizer, enc *rnn.LabelEncoder, maxLen int) *NeuralStrategy {
	return &NeuralStrategy{net: net, tok: tok, enc: enc, maxLen: maxLen}
}

func (n *NeuralStrategy) Name() string { return StageNeural }

// Available reports whether all three artifacts are loaded.
func (n *NeuralStrategy) Available() bool {
	return n.net != nil && n.tok != nil && n.enc != nil
}

func (n *NeuralStrategy) Evaluate(text string) (domain.Sentiment, bool) {
	if !n.Available() {
		return "", false
	}
	seq := rnn.PadSequence(n.tok.TextToSequence(rnn.CleanText(text)), n.maxLen)
	probs := n.net.Predict(seq)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	label, err := n.enc.Decode(best)
	if err != nil {
		return "", false
	}
	s := domain.Sentiment(label)
	if !s.IsValid() {
		return "", false
	}
	return s, true
}

// =============================================================================
// Lexicon
// =============================================================================

// LexiconStrategy scores text with the rule-based analyzer and abstains
// inside the neutral band.
type LexiconStrategy struct {
	analyzer  *lexicon.Analyzer
	threshold float64
}

// NewLexiconStrategy builds the strategy with a ±threshold neutral band.
func NewLexiconStrategy(threshold float64) *LexiconStrategy {
	if threshold <= 0 {
		threshold = 0.05
	}
	return &LexiconStrategy{analyzer: lexicon.NewAnalyzer(), threshold: threshold}
}

func (l *LexiconStrategy) Name() string { return StageLexicon }

func (l *LexiconStrategy) Evaluate(text string) (domain.Sentiment, bool) {
	c := l.analyzer.Compound(text)
	switch {
	case c <= -l.threshold:
		return domain.SentimentNegative, true
	case c >= l.threshold:
		return domain.SentimentPositive, true
	}
	return "", false
}

// DefaultStrategy always answers neutral.
type DefaultStrategy struct{}

func (DefaultStrategy) Name() string { return StageDefault }

func (DefaultStrategy) Evaluate(string) (domain.Sentiment, bool) {
	return domain.SentimentNeutral, true
}
