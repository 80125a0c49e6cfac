package rnn

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Dense is a fully connected layer computing W x + b.
type Dense struct {
	In  int    `json:"in"`
	Out int    `json:"out"`
	W   *Param `json:"w"`
	B   *Param `json:"b"`
}

func newDense(name string, in, out int, rng *rand.Rand) *Dense {
	d := &Dense{
		In:  in,
		Out: out,
		W:   newParam(name+"/kernel", out, in),
		B:   newParam(name+"/bias", 1, out),
	}
	glorotUniform(d.W, in, out, rng)
	return d
}

func (d *Dense) forward(x []float64) []float64 {
	y := make([]float64, d.Out)
	for r := range y {
		y[r] = floats.Dot(d.W.row(r), x) + d.B.Value[r]
	}
	return y
}

func (d *Dense) backward(x, dy []float64, g *grads) []float64 {
	dW, dB := g.of(d.W), g.of(d.B)
	dx := make([]float64, d.In)
	for r, v := range dy {
		if v == 0 {
			continue
		}
		floats.AddScaled(dW[r*d.In:(r+1)*d.In], v, x)
		dB[r] += v
		floats.AddScaled(dx, v, d.W.row(r))
	}
	return dx
}

func (d *Dense) params() []*Param { return []*Param{d.W, d.B} }

func (d *Dense) valid() bool {
	return d != nil && d.W.valid() && d.B.valid() && d.W.Rows == d.Out && d.W.Cols == d.In
}

// dropoutMask returns an inverted-dropout mask, or nil when rate is zero.
func dropoutMask(n int, rate float64, rng *rand.Rand) []float64 {
	if rate <= 0 || rng == nil {
		return nil
	}
	keep := 1 - rate
	mask := make([]float64, n)
	for i := range mask {
		if rng.Float64() < keep {
			mask[i] = 1 / keep
		}
	}
	return mask
}

func applyMask(x, mask []float64) []float64 {
	if mask == nil {
		return x
	}
	out := make([]float64, len(x))
	floats.MulTo(out, x, mask)
	return out
}
