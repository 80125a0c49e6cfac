package logreg

import (
	"testing"

	"chatbot_server/core/ml/tfidf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainToy(t *testing.T, texts, labels []string) (*tfidf.Vectorizer, *Classifier) {
	t.Helper()
	v := tfidf.NewVectorizer()
	X, err := v.FitTransform(texts)
	require.NoError(t, err)
	m, err := Fit(X, labels, v.Dimension(), DefaultOptions())
	require.NoError(t, err)
	return v, m
}

func TestFit_SeparatesClasses(t *testing.T) {
	texts := []string{
		"hello there", "hi hello", "good morning hello",
		"track my order", "where is my order", "order status please",
	}
	labels := []string{"greeting", "greeting", "greeting", "get_order", "get_order", "get_order"}
	v, m := trainToy(t, texts, labels)

	label, p := m.Predict(v.Transform("hello"))
	assert.Equal(t, "greeting", label)
	assert.Greater(t, p, 0.5)

	label, _ = m.Predict(v.Transform("where is the order"))
	assert.Equal(t, "get_order", label)
}

func TestPredictProba_SumsToOne(t *testing.T) {
	v, m := trainToy(t,
		[]string{"refund money", "cancel order", "shipping time"},
		[]string{"refund", "cancel_order", "shipping_info"})

	proba := m.PredictProba(v.Transform("refund my order"))
	require.Len(t, proba, 3)
	sum := 0.0
	for _, p := range proba {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestPredict_OnlyTrainedLabels(t *testing.T) {
	v, m := trainToy(t,
		[]string{"hello", "hi there", "bye now", "goodbye friend"},
		[]string{"greeting", "greeting", "goodbye", "goodbye"})

	for _, text := range []string{"refund please", "", "zzzz", "hello goodbye"} {
		label, _ := m.Predict(v.Transform(text))
		assert.Contains(t, []string{"goodbye", "greeting"}, label)
	}
	assert.Equal(t, []string{"goodbye", "greeting"}, m.Classes())
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit(nil, nil, 3, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	v := tfidf.NewVectorizer()
	X, err := v.FitTransform([]string{"one two", "three four"})
	require.NoError(t, err)
	_, err = Fit(X, []string{"a", "a"}, v.Dimension(), DefaultOptions())
	assert.ErrorIs(t, err, ErrSingleClass)
}

func TestValidate(t *testing.T) {
	_, m := trainToy(t, []string{"aa bb", "cc dd"}, []string{"x", "y"})
	require.NoError(t, m.Validate())

	m.Weights = m.Weights[:1]
	assert.Error(t, m.Validate())
}

func TestMetrics(t *testing.T) {
	truth := []string{"a", "a", "b", "b"}
	pred := []string{"a", "b", "b", "b"}
	assert.InDelta(t, 0.75, Accuracy(truth, pred), 1e-12)
	// a: p=1 r=.5 f=.667; b: p=.667 r=1 f=.8
	assert.InDelta(t, (2.0/3.0+0.8)/2, MacroF1(truth, pred), 1e-9)

	mean, std := MeanStd([]float64{0.5, 0.7})
	assert.InDelta(t, 0.6, mean, 1e-12)
	assert.InDelta(t, 0.1, std, 1e-12)
}

func TestFit_ConvergesBeforeIterationCap(t *testing.T) {
	texts := []string{
		"hello there", "hi hello", "good morning hello",
		"track my order", "where is my order", "order status please",
		"refund my money", "i want a refund", "money back please",
	}
	labels := []string{
		"greeting", "greeting", "greeting",
		"get_order", "get_order", "get_order",
		"refund", "refund", "refund",
	}
	v := tfidf.NewVectorizer()
	X, err := v.FitTransform(texts)
	require.NoError(t, err)

	m, err := Fit(X, labels, v.Dimension(), DefaultOptions())
	require.NoError(t, err)
	assert.Less(t, m.Iter, DefaultOptions().MaxIter)
	assert.NotEqual(t, "IterationLimit", m.Status)

	capped, err := Fit(X, labels, v.Dimension(), Options{C: 1, MaxIter: 1, Balanced: true})
	require.NoError(t, err)
	assert.Less(t, m.FinalLoss, capped.FinalLoss)
	for i, text := range texts {
		label, _ := m.Predict(v.Transform(text))
		assert.Equal(t, labels[i], label, text)
	}
}
