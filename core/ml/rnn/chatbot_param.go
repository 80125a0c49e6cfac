package rnn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is a trainable row-major weight matrix.
type Param struct {
	Name  string    `json:"name"`
	Rows  int       `json:"rows"`
	Cols  int       `json:"cols"`
	Value []float64 `json:"value"`
}

func newParam(name string, rows, cols int) *Param {
	return &Param{Name: name, Rows: rows, Cols: cols, Value: make([]float64, rows*cols)}
}

func (p *Param) row(r int) []float64 {
	return p.Value[r*p.Cols : (r+1)*p.Cols]
}

func (p *Param) valid() bool {
	return p != nil && p.Rows > 0 && p.Cols > 0 && len(p.Value) == p.Rows*p.Cols
}

func glorotUniform(p *Param, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range p.Value {
		p.Value[i] = (rng.Float64()*2 - 1) * limit
	}
}

func uniform(p *Param, limit float64, rng *rand.Rand) {
	for i := range p.Value {
		p.Value[i] = (rng.Float64()*2 - 1) * limit
	}
}

// orthogonal fills p with a matrix whose shorter dimension is orthonormal.
func orthogonal(p *Param, rng *rand.Rand) {
	long, short := p.Rows, p.Cols
	if short > long {
		long, short = short, long
	}
	data := make([]float64, long*short)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	a := mat.NewDense(long, short, data)

	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	for j := 0; j < short; j++ {
		sign := 1.0
		if r.At(j, j) < 0 {
			sign = -1.0
		}
		for i := 0; i < long; i++ {
			v := sign * q.At(i, j)
			if p.Rows >= p.Cols {
				p.Value[i*p.Cols+j] = v
			} else {
				p.Value[j*p.Cols+i] = v
			}
		}
	}
}

// grads accumulates parameter gradients for one worker. Embedding
// gradients are kept per touched row.
type grads struct {
	dense map[*Param][]float64
	embed map[int][]float64
	dim   int
}

func newGrads(embedDim int) *grads {
	return &grads{
		dense: make(map[*Param][]float64),
		embed: make(map[int][]float64),
		dim:   embedDim,
	}
}

func (g *grads) of(p *Param) []float64 {
	s, ok := g.dense[p]
	if !ok {
		s = make([]float64, len(p.Value))
		g.dense[p] = s
	}
	return s
}

func (g *grads) embedRow(id int) []float64 {
	s, ok := g.embed[id]
	if !ok {
		s = make([]float64, g.dim)
		g.embed[id] = s
	}
	return s
}

func (g *grads) reset() {
	for _, s := range g.dense {
		for i := range s {
			s[i] = 0
		}
	}
	g.embed = make(map[int][]float64)
}

func (g *grads) merge(o *grads) {
	for p, s := range o.dense {
		dst := g.of(p)
		for i, v := range s {
			dst[i] += v
		}
	}
	for id, s := range o.embed {
		dst := g.embedRow(id)
		for i, v := range s {
			dst[i] += v
		}
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
