package rnn

import (
	"context"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyConfig() Config {
	return Config{
		VocabSize:  20,
		EmbedDim:   4,
		MaxLen:     6,
		Units1:     3,
		Units2:     2,
		DenseUnits: 4,
		Classes:    3,
		Dropout:    0,
	}
}

func TestTokenizer_FrequencyOrder(t *testing.T) {
	tok := NewTokenizer(100)
	tok.FitOnTexts([]string{"good good bad", "bad good meh"})

	assert.Equal(t, 1, tok.WordIndex[DefaultOOVToken])
	assert.Equal(t, 2, tok.WordIndex["good"])
	assert.Equal(t, 3, tok.WordIndex["bad"])
	assert.Equal(t, 4, tok.WordIndex["meh"])
	assert.Equal(t, []int{2, 1, 3}, tok.TextToSequence("Good, unseen BAD!"))
}

func TestTokenizer_NumWordsLimit(t *testing.T) {
	tok := NewTokenizer(3)
	tok.FitOnTexts([]string{"a a a b b c"})

	// only ids 1 and 2 survive; "b" (3) and "c" (4) collapse to OOV
	assert.Equal(t, []int{2, 1, 1}, tok.TextToSequence("a b c"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "great product  would buy", CleanText("GREAT product!! 10/10 would buy"))
	assert.Equal(t, "caf", CleanText("Café"))
}

func TestPadSequence(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"pre pads", []int{5, 6}, []int{0, 0, 5, 6}},
		{"pre truncates", []int{1, 2, 3, 4, 5, 6}, []int{3, 4, 5, 6}},
		{"exact", []int{1, 2, 3, 4}, []int{1, 2, 3, 4}},
		{"empty", nil, []int{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PadSequence(tt.in, 4))
		})
	}
}

func TestLabelEncoder_SortedClasses(t *testing.T) {
	enc := FitLabelEncoder([]string{"positive", "negative", "neutral", "positive"})
	assert.Equal(t, []string{"negative", "neutral", "positive"}, enc.Classes)

	ids, err := enc.EncodeAll([]string{"neutral", "positive"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	_, err = enc.Encode("angry")
	assert.Error(t, err)
	label, err := enc.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, "negative", label)
	_, err = enc.Decode(3)
	assert.Error(t, err)
}

func TestNetwork_PredictIsDistribution(t *testing.T) {
	net := NewNetwork(tinyConfig(), 1)
	require.NoError(t, net.Validate())

	for _, ids := range [][]int{{0, 0, 0, 3, 4, 5}, {}, {99, -1, 2}} {
		probs := net.Predict(ids)
		require.Len(t, probs, 3)
		sum := 0.0
		for _, p := range probs {
			assert.False(t, math.IsNaN(p))
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestNetwork_GradientMatchesFiniteDifference(t *testing.T) {
	net := NewNetwork(tinyConfig(), 7)
	ids := []int{0, 2, 5, 7, 2, 9}
	label := 1

	g := newGrads(net.Config.EmbedDim)
	net.backward(net.forward(ids, nil), label, 1, g)

	loss := func() float64 { return crossEntropy(net.Predict(ids), label) }
	const eps = 1e-6
	check := func(name string, value []float64, grad []float64, idx int) {
		orig := value[idx]
		value[idx] = orig + eps
		up := loss()
		value[idx] = orig - eps
		down := loss()
		value[idx] = orig
		numeric := (up - down) / (2 * eps)
		assert.InDelta(t, numeric, grad[idx], 1e-5, "%s[%d]", name, idx)
	}

	for _, p := range []*Param{
		net.Output.W, net.Hidden.W,
		net.Summary.Forward.W, net.Summary.Backward.U,
		net.Recurrent.Forward.U, net.Recurrent.Backward.B,
	} {
		grad := g.of(p)
		for _, idx := range []int{0, len(p.Value) / 2, len(p.Value) - 1} {
			check(p.Name, p.Value, grad, idx)
		}
	}
	row := g.embedRow(5)
	for j := 0; j < net.Config.EmbedDim; j++ {
		check("embedding[5]", net.Embedding.row(5), row, j)
	}
}

func TestNetwork_FitReducesLoss(t *testing.T) {
	cfg := tinyConfig()
	net := NewNetwork(cfg, 3)
	data := Dataset{
		X: [][]int{
			{0, 0, 0, 0, 2, 3}, {0, 0, 0, 2, 3, 3},
			{0, 0, 0, 0, 5, 6}, {0, 0, 0, 5, 6, 6},
			{0, 0, 0, 0, 8, 9}, {0, 0, 0, 8, 9, 9},
		},
		Y: []int{0, 0, 1, 1, 2, 2},
	}
	before, _ := net.Evaluate(data)

	opts := TrainOptions{Epochs: 60, BatchSize: 6, LearningRate: 0.05, Seed: 42, Workers: 2}
	var seen int
	history, err := net.Fit(context.Background(), data, Dataset{}, opts, func(EpochStats) { seen++ })
	require.NoError(t, err)
	require.Len(t, history, 60)
	assert.Equal(t, 60, seen)

	after, acc := net.Evaluate(data)
	assert.Less(t, after, before)
	assert.GreaterOrEqual(t, acc, 0.5)
}

func TestNetwork_FitHonorsContext(t *testing.T) {
	net := NewNetwork(tinyConfig(), 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := net.Fit(ctx, Dataset{X: [][]int{{1, 2}}, Y: []int{0}}, Dataset{}, DefaultTrainOptions(), nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = net.Fit(context.Background(), Dataset{}, Dataset{}, DefaultTrainOptions(), nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestNetwork_JSONRoundTrip(t *testing.T) {
	net := NewNetwork(tinyConfig(), 11)
	data, err := json.Marshal(net)
	require.NoError(t, err)

	var restored Network
	require.NoError(t, json.Unmarshal(data, &restored))
	require.NoError(t, restored.Validate())
	assert.InDeltaSlice(t, net.Predict([]int{1, 2, 3}), restored.Predict([]int{1, 2, 3}), 1e-12)
}

func TestNetwork_ValidateRejectsNonPositiveMaxLen(t *testing.T) {
	for _, maxLen := range []int{0, -4} {
		net := NewNetwork(tinyConfig(), 3)
		net.Config.MaxLen = maxLen
		assert.Error(t, net.Validate(), "max_len %d", maxLen)
	}
}

func TestSplit(t *testing.T) {
	d := Dataset{X: make([][]int, 10), Y: make([]int, 10)}
	for i := range d.X {
		d.X[i] = []int{i}
		d.Y[i] = i
	}
	train, test := Split(d, 0.2, 42)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, test.Len())

	again, _ := Split(d, 0.2, 42)
	assert.Equal(t, train.Y, again.Y)
}
