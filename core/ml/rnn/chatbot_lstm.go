package rnn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// LSTM is a single-direction recurrent layer. Gate rows are stacked in
// input, forget, cell, output order.
type LSTM struct {
	In    int    `json:"in"`
	Units int    `json:"units"`
	W     *Param `json:"w"`
	U     *Param `json:"u"`
	B     *Param `json:"b"`
}

func newLSTM(name string, in, units int, rng *rand.Rand) *LSTM {
	l := &LSTM{
		In:    in,
		Units: units,
		W:     newParam(name+"/kernel", 4*units, in),
		U:     newParam(name+"/recurrent_kernel", 4*units, units),
		B:     newParam(name+"/bias", 1, 4*units),
	}
	glorotUniform(l.W, in, 4*units, rng)
	orthogonal(l.U, rng)
	for j := units; j < 2*units; j++ {
		l.B.Value[j] = 1.0
	}
	return l
}

type lstmTrace struct {
	xs    [][]float64
	hs    [][]float64
	cs    [][]float64
	tcs   [][]float64
	gates [][]float64
}

func (l *LSTM) forward(xs [][]float64) *lstmTrace {
	H := l.Units
	T := len(xs)
	tr := &lstmTrace{
		xs:    xs,
		hs:    make([][]float64, T),
		cs:    make([][]float64, T),
		tcs:   make([][]float64, T),
		gates: make([][]float64, T),
	}
	hPrev := make([]float64, H)
	cPrev := make([]float64, H)
	for t, x := range xs {
		z := make([]float64, 4*H)
		for r := range z {
			z[r] = floats.Dot(l.W.row(r), x) + floats.Dot(l.U.row(r), hPrev) + l.B.Value[r]
		}
		h := make([]float64, H)
		c := make([]float64, H)
		tc := make([]float64, H)
		for j := 0; j < H; j++ {
			i := sigmoid(z[j])
			f := sigmoid(z[H+j])
			g := math.Tanh(z[2*H+j])
			o := sigmoid(z[3*H+j])
			z[j], z[H+j], z[2*H+j], z[3*H+j] = i, f, g, o
			c[j] = f*cPrev[j] + i*g
			tc[j] = math.Tanh(c[j])
			h[j] = o * tc[j]
		}
		tr.gates[t], tr.hs[t], tr.cs[t], tr.tcs[t] = z, h, c, tc
		hPrev, cPrev = h, c
	}
	return tr
}

// backward runs BPTT. dhs[t] is the upstream gradient on h_t and may be nil.
func (l *LSTM) backward(tr *lstmTrace, dhs [][]float64, g *grads) [][]float64 {
	H := l.Units
	T := len(tr.xs)
	dW, dU, dB := g.of(l.W), g.of(l.U), g.of(l.B)
	zeros := make([]float64, H)

	dxs := make([][]float64, T)
	dhNext := make([]float64, H)
	dcNext := make([]float64, H)
	dz := make([]float64, 4*H)
	for t := T - 1; t >= 0; t-- {
		hPrev, cPrev := zeros, zeros
		if t > 0 {
			hPrev, cPrev = tr.hs[t-1], tr.cs[t-1]
		}
		gates, tc := tr.gates[t], tr.tcs[t]
		for j := 0; j < H; j++ {
			dh := dhNext[j]
			if dhs[t] != nil {
				dh += dhs[t][j]
			}
			i, f, gg, o := gates[j], gates[H+j], gates[2*H+j], gates[3*H+j]
			do := dh * tc[j]
			dc := dcNext[j] + dh*o*(1-tc[j]*tc[j])
			dcNext[j] = dc * f
			dz[j] = dc * gg * i * (1 - i)
			dz[H+j] = dc * cPrev[j] * f * (1 - f)
			dz[2*H+j] = dc * i * (1 - gg*gg)
			dz[3*H+j] = do * o * (1 - o)
		}

		x := tr.xs[t]
		dx := make([]float64, l.In)
		for j := range dhNext {
			dhNext[j] = 0
		}
		for r, d := range dz {
			if d == 0 {
				continue
			}
			floats.AddScaled(dW[r*l.In:(r+1)*l.In], d, x)
			floats.AddScaled(dU[r*H:(r+1)*H], d, hPrev)
			dB[r] += d
			floats.AddScaled(dx, d, l.W.row(r))
			floats.AddScaled(dhNext, d, l.U.row(r))
		}
		dxs[t] = dx
	}
	return dxs
}

func (l *LSTM) params() []*Param { return []*Param{l.W, l.U, l.B} }

func (l *LSTM) valid() bool {
	return l != nil && l.W.valid() && l.U.valid() && l.B.valid() &&
		l.W.Rows == 4*l.Units && l.W.Cols == l.In && l.U.Cols == l.Units
}

// BiLSTM runs one LSTM forward and one over the reversed sequence and
// concatenates their outputs.
type BiLSTM struct {
	Forward  *LSTM `json:"forward"`
	Backward *LSTM `json:"backward"`
}

func newBiLSTM(name string, in, units int, rng *rand.Rand) *BiLSTM {
	return &BiLSTM{
		Forward:  newLSTM(name+"/forward", in, units, rng),
		Backward: newLSTM(name+"/backward", in, units, rng),
	}
}

type biTrace struct {
	fwd *lstmTrace
	bwd *lstmTrace
}

func (b *BiLSTM) forward(xs [][]float64) *biTrace {
	rev := make([][]float64, len(xs))
	for t, x := range xs {
		rev[len(xs)-1-t] = x
	}
	return &biTrace{fwd: b.Forward.forward(xs), bwd: b.Backward.forward(rev)}
}

// sequence returns per-step outputs with the backward states re-aligned to
// input positions.
func (b *BiLSTM) sequence(tr *biTrace) [][]float64 {
	T := len(tr.fwd.hs)
	out := make([][]float64, T)
	for t := 0; t < T; t++ {
		out[t] = concat(tr.fwd.hs[t], tr.bwd.hs[T-1-t])
	}
	return out
}

// last returns the final state of each direction.
func (b *BiLSTM) last(tr *biTrace) []float64 {
	T := len(tr.fwd.hs)
	return concat(tr.fwd.hs[T-1], tr.bwd.hs[T-1])
}

func (b *BiLSTM) backwardSequence(tr *biTrace, dOut [][]float64, g *grads) [][]float64 {
	T := len(dOut)
	H := b.Forward.Units
	dF := make([][]float64, T)
	dB := make([][]float64, T)
	for t, d := range dOut {
		dF[t] = d[:H]
		dB[T-1-t] = d[H:]
	}
	return b.mergeInputGrads(b.Forward.backward(tr.fwd, dF, g), b.Backward.backward(tr.bwd, dB, g))
}

func (b *BiLSTM) backwardLast(tr *biTrace, d []float64, g *grads) [][]float64 {
	T := len(tr.fwd.hs)
	H := b.Forward.Units
	dF := make([][]float64, T)
	dB := make([][]float64, T)
	dF[T-1] = d[:H]
	dB[T-1] = d[H:]
	return b.mergeInputGrads(b.Forward.backward(tr.fwd, dF, g), b.Backward.backward(tr.bwd, dB, g))
}

func (b *BiLSTM) mergeInputGrads(dxF, dxB [][]float64) [][]float64 {
	T := len(dxF)
	for t := 0; t < T; t++ {
		floats.Add(dxF[t], dxB[T-1-t])
	}
	return dxF
}

func (b *BiLSTM) params() []*Param {
	return append(b.Forward.params(), b.Backward.params()...)
}

func concat(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}
