package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"chatbot_server/core/domain"
	"chatbot_server/pkg/logger"
)

// ErrSourceMissing marks a source whose backing file does not exist.
var ErrSourceMissing = errors.New("source file missing")

// Candidate is a source row mapped onto the corpus schema, before validation.
type Candidate struct {
	Text      string
	Label     string
	Sentiment string
}

// SourceReader feeds candidates to the aggregator. emit reports whether the
// candidate was accepted, so sources can enforce their own scan limits.
type SourceReader interface {
	Name() string
	Read(ctx context.Context, emit func(Candidate) bool) error
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// =============================================================================
// Intent Counter
// =============================================================================

// IntentCounter tracks accepted rows per intent against a global cap.
type IntentCounter struct {
	cap    int
	counts map[domain.Intent]int
}

// NewIntentCounter creates a counter. A non-positive cap disables the limit.
func NewIntentCounter(cap int) *IntentCounter {
	return &IntentCounter{cap: cap, counts: make(map[domain.Intent]int)}
}

// Full reports whether intent has reached the cap.
func (c *IntentCounter) Full(intent domain.Intent) bool {
	return c.cap > 0 && c.counts[intent] >= c.cap
}

// Inc records one accepted row.
func (c *IntentCounter) Inc(intent domain.Intent) { c.counts[intent]++ }

// Count returns the accepted rows for intent.
func (c *IntentCounter) Count(intent domain.Intent) int { return c.counts[intent] }

// Snapshot copies the current counts.
func (c *IntentCounter) Snapshot() map[domain.Intent]int {
	out := make(map[domain.Intent]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// =============================================================================
// Aggregator
// =============================================================================

// AggregatorConfig configures Aggregator.
type AggregatorConfig struct {
	// IntentCap bounds accepted rows per intent across all sources.
	IntentCap int
}

// DefaultAggregatorConfig returns the production cap.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{IntentCap: 1000}
}

// RejectReason classifies why a candidate was dropped.
type RejectReason string

const (
	RejectShortText RejectReason = "short_text"
	RejectIntent    RejectReason = "unknown_intent"
	RejectCap       RejectReason = "cap_reached"
)

// SourceStats reports what one source contributed.
type SourceStats struct {
	Name     string               `json:"name"`
	Missing  bool                 `json:"missing"`
	Accepted int                  `json:"accepted"`
	Rejected map[RejectReason]int `json:"rejected"`
}

// IntentCount is one line of the per-intent summary.
type IntentCount struct {
	Intent domain.Intent `json:"intent"`
	Count  int           `json:"count"`
}

// Corpus is the consolidated, label-normalized intent corpus.
type Corpus struct {
	Examples []domain.TrainingExample
	Sources  []SourceStats
	counts   map[domain.Intent]int
}

// Len returns the number of examples.
func (c *Corpus) Len() int { return len(c.Examples) }

// Count returns the examples labeled intent.
func (c *Corpus) Count(intent domain.Intent) int { return c.counts[intent] }

// Summary lists every allowed intent with its count, sorted by intent.
// Intents with zero rows are included so starvation stays visible.
func (c *Corpus) Summary() []IntentCount {
	intents := domain.AllowedIntents()
	out := make([]IntentCount, 0, len(intents))
	for _, intent := range intents {
		out = append(out, IntentCount{Intent: intent, Count: c.counts[intent]})
	}
	return out
}

// WriteCSV writes the corpus with header `text,intent,sentiment`.
func (c *Corpus) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"text", "intent", "sentiment"}); err != nil {
		return err
	}
	for _, ex := range c.Examples {
		if err := cw.Write([]string{ex.Text, ex.Intent.String(), ex.Sentiment.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the corpus to path.
func (c *Corpus) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = c.WriteCSV(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Aggregator merges sources into one corpus under a shared intent cap.
type Aggregator struct {
	cfg AggregatorConfig
	log *logger.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	return &Aggregator{cfg: cfg, log: logger.WithField("component", "aggregator")}
}

// Aggregate reads sources in order. Earlier sources win when intents
// saturate. A missing source file is skipped; other read errors abort.
func (a *Aggregator) Aggregate(ctx context.Context, sources []SourceReader) (*Corpus, error) {
	start := time.Now()
	counter := NewIntentCounter(a.cfg.IntentCap)
	corpus := &Corpus{}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats := SourceStats{Name: src.Name(), Rejected: make(map[RejectReason]int)}
		err := src.Read(ctx, func(c Candidate) bool {
			ex, reason := a.validate(c, counter)
			if reason != "" {
				stats.Rejected[reason]++
				return false
			}
			counter.Inc(ex.Intent)
			corpus.Examples = append(corpus.Examples, ex)
			stats.Accepted++
			return true
		})
		switch {
		case errors.Is(err, ErrSourceMissing):
			stats.Missing = true
			a.log.Info("source %s not found, skipping", src.Name())
		case err != nil:
			return nil, fmt.Errorf("source %s: %w", src.Name(), err)
		default:
			a.log.WithFields(map[string]any{
				"source":   src.Name(),
				"accepted": stats.Accepted,
				"rejected": stats.Rejected,
			}).Info("processed source")
		}
		corpus.Sources = append(corpus.Sources, stats)
	}

	corpus.counts = counter.Snapshot()
	a.log.WithDuration(time.Since(start)).Info("aggregated %d examples", corpus.Len())
	for _, ic := range corpus.Summary() {
		a.log.Info("  %s: %d", ic.Intent, ic.Count)
	}
	return corpus, nil
}

func (a *Aggregator) validate(c Candidate, counter *IntentCounter) (domain.TrainingExample, RejectReason) {
	text := CleanText(c.Text)
	if utf8.RuneCountInString(text) < 2 {
		return domain.TrainingExample{}, RejectShortText
	}
	intent := domain.NormalizeIntent(c.Label)
	if !intent.IsAllowed() {
		return domain.TrainingExample{}, RejectIntent
	}
	if counter.Full(intent) {
		return domain.TrainingExample{}, RejectCap
	}
	return domain.TrainingExample{
		Text:      text,
		Intent:    intent,
		Sentiment: domain.CoerceSentiment(c.Sentiment),
	}, ""
}

// ReadCorpusCSV loads a consolidated corpus file, dropping rows with an
// empty text or label.
func ReadCorpusCSV(r io.Reader) ([]domain.TrainingExample, error) {
	table, err := readTable(r)
	if err != nil {
		return nil, err
	}
	examples := make([]domain.TrainingExample, 0, len(table))
	for _, row := range table {
		text := strings.TrimSpace(row.Get("text"))
		label := strings.TrimSpace(row.Get("intent"))
		if text == "" || label == "" {
			continue
		}
		ex := domain.TrainingExample{
			Text:      text,
			Intent:    domain.Intent(label),
			Sentiment: domain.CoerceSentiment(row.Get("sentiment")),
		}
		examples = append(examples, ex)
	}
	return examples, nil
}
