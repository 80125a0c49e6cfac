package training

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatbot_server/core/domain"
	"chatbot_server/core/ml/logreg"
	"chatbot_server/core/ml/rnn"
	"chatbot_server/core/ml/tfidf"
	"chatbot_server/pkg/artifact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func writeIntentCorpus(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("text,intent,sentiment\n")
	greetings := []string{"hello", "hi there", "hey", "good morning", "hello bot"}
	orders := []string{"where is my order", "track order 12345", "order status", "track my package", "where is order 55555"}
	for i := 0; i < 4; i++ {
		for _, g := range greetings {
			fmt.Fprintf(&b, "%s,greeting,neutral\n", g)
		}
		for _, o := range orders {
			fmt.Fprintf(&b, "%s,get_order,neutral\n", o)
		}
	}
	b.WriteString(",greeting,neutral\n")
	path := filepath.Join(dir, "chatbot_training_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestIntentTrainer_MissingCorpus(t *testing.T) {
	dir := t.TempDir()
	tr := NewIntentTrainer(IntentConfig{CorpusPath: filepath.Join(dir, "nope.csv")})
	_, err := tr.Train(context.Background())
	assert.ErrorIs(t, err, ErrCorpusMissing)
}

func TestIntentTrainer_Train(t *testing.T) {
	dir := t.TempDir()
	cfg := IntentConfig{
		CorpusPath:     writeIntentCorpus(t, dir),
		VectorizerPath: filepath.Join(dir, "vectorizer.bin"),
		ModelPath:      filepath.Join(dir, "model.bin"),
		Workers:        2,
	}
	report, err := NewIntentTrainer(cfg).Train(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, report.Examples)
	assert.Equal(t, []string{"get_order", "greeting"}, report.Classes)
	assert.Len(t, report.FoldAccuracy, 5)
	assert.Greater(t, report.CVMean, 0.8)
	assert.Greater(t, report.TrainAccuracy, 0.9)

	var vec tfidf.Vectorizer
	require.NoError(t, artifact.Load(cfg.VectorizerPath, artifact.KindVectorizer, &vec))
	var clf logreg.Classifier
	require.NoError(t, artifact.Load(cfg.ModelPath, artifact.KindIntentModel, &clf))
	require.NoError(t, clf.Validate())

	label, _ := clf.Predict(vec.Transform("track my order please"))
	assert.Equal(t, "get_order", label)
}

func TestStratifiedFolds(t *testing.T) {
	var examples []domain.TrainingExample
	for i := 0; i < 10; i++ {
		examples = append(examples, domain.TrainingExample{Text: "a", Intent: domain.IntentGreeting})
	}
	for i := 0; i < 5; i++ {
		examples = append(examples, domain.TrainingExample{Text: "b", Intent: domain.IntentRefund})
	}

	folds := stratifiedFolds(examples, 5)
	require.Len(t, folds, 5)
	for _, f := range folds {
		assert.Len(t, f.test, 3)
		assert.Len(t, f.train, 12)
		counts := map[domain.Intent]int{}
		for _, idx := range f.test {
			counts[examples[idx].Intent]++
		}
		assert.Equal(t, 2, counts[domain.IntentGreeting])
		assert.Equal(t, 1, counts[domain.IntentRefund])
	}
	assert.Len(t, stratifiedFolds(examples[:3], 5), 3)
}

func TestReadRatedLines_UTF16(t *testing.T) {
	src := "__label__5 Loved it!\n__label__1 Broken on arrival\nno label here\n__label__x bad label\n__label__3 It is fine\n"
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(src)
	require.NoError(t, err)

	rated, err := ReadRatedLines(strings.NewReader(encoded), 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.RatedText{
		{Text: "Loved it!", Rating: 5},
		{Text: "Broken on arrival", Rating: 1},
		{Text: "It is fine", Rating: 3},
	}, rated)

	limited, err := ReadRatedLines(strings.NewReader(src), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLoadSentimentCorpus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte("text,rating\nAwful!,1\nMeh,3\nSuper,4.5\nodd,x\n"), 0o644))

	examples, err := LoadSentimentCorpus(path, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.SentimentExample{
		{Text: "awful", Sentiment: domain.SentimentNegative},
		{Text: "meh", Sentiment: domain.SentimentNeutral},
		{Text: "super", Sentiment: domain.SentimentPositive},
	}, examples)

	_, err = LoadSentimentCorpus(filepath.Join(dir, "missing.txt"), 0)
	assert.ErrorIs(t, err, ErrCorpusMissing)
}

func TestSentimentTrainer_Train(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("__label__5 great lovely product\n")
		b.WriteString("__label__1 awful broken junk\n")
		b.WriteString("__label__3 it arrived on monday\n")
	}
	corpusPath := filepath.Join(dir, "train_small.txt")
	require.NoError(t, os.WriteFile(corpusPath, []byte(b.String()), 0o644))

	cfg := DefaultSentimentConfig()
	cfg.CorpusPath = corpusPath
	cfg.NetworkPath = filepath.Join(dir, "net.bin")
	cfg.TokenizerPath = filepath.Join(dir, "tok.bin")
	cfg.EncoderPath = filepath.Join(dir, "enc.bin")
	cfg.Network = rnn.Config{VocabSize: 50, EmbedDim: 8, MaxLen: 10, Units1: 4, Units2: 4, DenseUnits: 8, Classes: 3, Dropout: 0.1}
	cfg.Train = rnn.TrainOptions{Epochs: 2, BatchSize: 8, LearningRate: 0.01, Seed: 42, Workers: 2}

	report, err := NewSentimentTrainer(cfg).Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, report.Examples)
	assert.Equal(t, 24, report.TrainExamples)
	assert.Equal(t, 6, report.ValExamples)
	assert.Equal(t, []string{"negative", "neutral", "positive"}, report.Classes)
	assert.Len(t, report.History, 2)

	var net rnn.Network
	require.NoError(t, artifact.Load(cfg.NetworkPath, artifact.KindNetwork, &net))
	require.NoError(t, net.Validate())
	var tok rnn.Tokenizer
	require.NoError(t, artifact.Load(cfg.TokenizerPath, artifact.KindTokenizer, &tok))
	assert.Equal(t, 1, tok.WordIndex[rnn.DefaultOOVToken])
	var enc rnn.LabelEncoder
	require.NoError(t, artifact.Load(cfg.EncoderPath, artifact.KindLabelEncoder, &enc))
	assert.Equal(t, report.Classes, enc.Classes)
}
