package rnn

import "math"

// Adam is the Adam optimizer. Embedding rows are updated lazily: only rows
// that received a gradient in the step move.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step int
	m    map[*Param][]float64
	v    map[*Param][]float64
}

// NewAdam returns an optimizer with the usual defaults.
func NewAdam(lr float64) *Adam {
	if lr <= 0 {
		lr = 0.001
	}
	return &Adam{
		LearningRate: lr,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		m:            make(map[*Param][]float64),
		v:            make(map[*Param][]float64),
	}
}

func (a *Adam) moments(p *Param) ([]float64, []float64) {
	m, ok := a.m[p]
	if !ok {
		m = make([]float64, len(p.Value))
		a.m[p] = m
		a.v[p] = make([]float64, len(p.Value))
	}
	return m, a.v[p]
}

func (a *Adam) apply(n *Network, g *grads) {
	a.step++
	t := float64(a.step)
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	update := func(value, m, v, grad []float64) {
		for i, gi := range grad {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*gi
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*gi*gi
			value[i] -= lr * m[i] / (math.Sqrt(v[i]) + a.Epsilon)
		}
	}

	for _, p := range n.params() {
		if p == n.Embedding {
			continue
		}
		grad, ok := g.dense[p]
		if !ok {
			continue
		}
		m, v := a.moments(p)
		update(p.Value, m, v, grad)
	}

	m, v := a.moments(n.Embedding)
	dim := n.Embedding.Cols
	for id, grad := range g.embed {
		lo, hi := id*dim, (id+1)*dim
		update(n.Embedding.Value[lo:hi], m[lo:hi], v[lo:hi], grad)
	}
}
