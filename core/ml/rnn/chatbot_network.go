package rnn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Config describes the network architecture.
type Config struct {
	VocabSize  int     `json:"vocab_size"`
	EmbedDim   int     `json:"embed_dim"`
	MaxLen     int     `json:"max_len"`
	Units1     int     `json:"units1"`
	Units2     int     `json:"units2"`
	DenseUnits int     `json:"dense_units"`
	Classes    int     `json:"classes"`
	Dropout    float64 `json:"dropout"`
}

// DefaultConfig is the production sentiment architecture.
func DefaultConfig() Config {
	return Config{
		VocabSize:  30000,
		EmbedDim:   128,
		MaxLen:     100,
		Units1:     64,
		Units2:     32,
		DenseUnits: 32,
		Classes:    3,
		Dropout:    0.3,
	}
}

// Network is Embedding -> BiLSTM(seq) -> Dropout -> BiLSTM(last) ->
// Dense(ReLU) -> Dropout -> Dense(softmax).
type Network struct {
	Config    Config  `json:"config"`
	Embedding *Param  `json:"embedding"`
	Recurrent *BiLSTM `json:"recurrent1"`
	Summary   *BiLSTM `json:"recurrent2"`
	Hidden    *Dense  `json:"hidden"`
	Output    *Dense  `json:"output"`
}

// NewNetwork builds a freshly initialized network.
func NewNetwork(cfg Config, seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	emb := newParam("embedding", cfg.VocabSize, cfg.EmbedDim)
	uniform(emb, 0.05, rng)
	return &Network{
		Config:    cfg,
		Embedding: emb,
		Recurrent: newBiLSTM("bilstm1", cfg.EmbedDim, cfg.Units1, rng),
		Summary:   newBiLSTM("bilstm2", 2*cfg.Units1, cfg.Units2, rng),
		Hidden:    newDense("dense1", 2*cfg.Units2, cfg.DenseUnits, rng),
		Output:    newDense("dense2", cfg.DenseUnits, cfg.Classes, rng),
	}
}

// Validate checks a deserialized network for shape consistency.
func (n *Network) Validate() error {
	cfg := n.Config
	if cfg.MaxLen <= 0 {
		return fmt.Errorf("rnn: max sequence length must be positive, got %d", cfg.MaxLen)
	}
	if !n.Embedding.valid() || n.Embedding.Rows != cfg.VocabSize || n.Embedding.Cols != cfg.EmbedDim {
		return errors.New("rnn: embedding shape does not match config")
	}
	if n.Recurrent == nil || !n.Recurrent.Forward.valid() || !n.Recurrent.Backward.valid() {
		return errors.New("rnn: first recurrent layer is malformed")
	}
	if n.Summary == nil || !n.Summary.Forward.valid() || !n.Summary.Backward.valid() {
		return errors.New("rnn: second recurrent layer is malformed")
	}
	if !n.Hidden.valid() || !n.Output.valid() {
		return errors.New("rnn: dense layers are malformed")
	}
	if n.Output.Out != cfg.Classes {
		return fmt.Errorf("rnn: output layer has %d units, want %d", n.Output.Out, cfg.Classes)
	}
	return nil
}

func (n *Network) params() []*Param {
	ps := []*Param{n.Embedding}
	ps = append(ps, n.Recurrent.params()...)
	ps = append(ps, n.Summary.params()...)
	ps = append(ps, n.Hidden.params()...)
	return append(ps, n.Output.params()...)
}

type trace struct {
	ids    []int
	rec    *biTrace
	mask1  [][]float64
	sum    *biTrace
	h2     []float64
	pre    []float64
	mask2  []float64
	hidden []float64
	probs  []float64
}

// forward runs the network. A nil rng disables dropout.
func (n *Network) forward(ids []int, rng *rand.Rand) *trace {
	if len(ids) == 0 {
		ids = []int{padIndex}
	}
	xs := make([][]float64, len(ids))
	for t, id := range ids {
		if id < 0 || id >= n.Config.VocabSize {
			id = oovIndex
		}
		xs[t] = n.Embedding.row(id)
	}

	tr := &trace{ids: ids}
	tr.rec = n.Recurrent.forward(xs)
	seq := n.Recurrent.sequence(tr.rec)
	tr.mask1 = make([][]float64, len(seq))
	for t := range seq {
		tr.mask1[t] = dropoutMask(len(seq[t]), n.Config.Dropout, rng)
		seq[t] = applyMask(seq[t], tr.mask1[t])
	}

	tr.sum = n.Summary.forward(seq)
	tr.h2 = n.Summary.last(tr.sum)
	tr.pre = n.Hidden.forward(tr.h2)
	act := make([]float64, len(tr.pre))
	for i, v := range tr.pre {
		act[i] = math.Max(0, v)
	}
	tr.mask2 = dropoutMask(len(act), n.Config.Dropout, rng)
	tr.hidden = applyMask(act, tr.mask2)

	tr.probs = softmax(n.Output.forward(tr.hidden))
	return tr
}

// backward accumulates gradients of scale * cross-entropy(label).
func (n *Network) backward(tr *trace, label int, scale float64, g *grads) {
	dLogits := make([]float64, len(tr.probs))
	copy(dLogits, tr.probs)
	dLogits[label] -= 1
	floats.Scale(scale, dLogits)

	dHidden := n.Output.backward(tr.hidden, dLogits, g)
	if tr.mask2 != nil {
		floats.Mul(dHidden, tr.mask2)
	}
	for i, v := range tr.pre {
		if v <= 0 {
			dHidden[i] = 0
		}
	}
	dH2 := n.Hidden.backward(tr.h2, dHidden, g)
	dSeq := n.Summary.backwardLast(tr.sum, dH2, g)
	for t := range dSeq {
		if tr.mask1[t] != nil {
			floats.Mul(dSeq[t], tr.mask1[t])
		}
	}
	dXs := n.Recurrent.backwardSequence(tr.rec, dSeq, g)
	for t, id := range tr.ids {
		if id < 0 || id >= n.Config.VocabSize {
			id = oovIndex
		}
		floats.Add(g.embedRow(id), dXs[t])
	}
}

// Predict returns the class probabilities for an already padded sequence.
func (n *Network) Predict(ids []int) []float64 {
	return n.forward(ids, nil).probs
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	lse := floats.LogSumExp(logits)
	for i, v := range logits {
		out[i] = math.Exp(v - lse)
	}
	return out
}

func crossEntropy(probs []float64, label int) float64 {
	return -math.Log(math.Max(probs[label], 1e-12))
}
