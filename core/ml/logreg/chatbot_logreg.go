// Package logreg implements multinomial logistic regression over sparse features.
package logreg

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"chatbot_server/core/ml/sparse"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

var (
	ErrEmptyTrainingSet = errors.New("logreg: empty training set")
	ErrSingleClass      = errors.New("logreg: at least two classes are required")
)

// Options controls Fit.
type Options struct {
	// C is the inverse L2 regularization strength.
	C float64
	// MaxIter bounds the number of L-BFGS iterations.
	MaxIter int
	// Tol is the gradient infinity-norm at which the solver stops.
	Tol float64
	// Balanced weights every class by n / (k * n_class).
	Balanced bool
}

// DefaultOptions mirrors the production training configuration.
func DefaultOptions() Options {
	return Options{
		C:        1.0,
		MaxIter:  1000,
		Tol:      1e-5,
		Balanced: true,
	}
}

// Classifier is a fitted multinomial logistic regression model.
type Classifier struct {
	Labels    []string    `json:"classes"`
	Weights   [][]float64 `json:"weights"`
	Bias      []float64   `json:"bias"`
	Dim       int         `json:"dim"`
	Iter      int         `json:"n_iter"`
	FinalLoss float64     `json:"final_loss"`
	Status    string      `json:"status,omitempty"`
}

// Fit trains a classifier on X with string labels y by minimizing the
// class-weighted cross-entropy plus an L2 penalty on the weights with L-BFGS.
func Fit(X []sparse.Vector, y []string, dim int, opts Options) (*Classifier, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, ErrEmptyTrainingSet
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultOptions().MaxIter
	}
	if opts.C <= 0 {
		opts.C = 1.0
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultOptions().Tol
	}

	classes, index := uniqueLabels(y)
	if len(classes) < 2 {
		return nil, ErrSingleClass
	}
	k := len(classes)
	n := len(X)

	targets := make([]int, n)
	counts := make([]int, k)
	for i, label := range y {
		targets[i] = index[label]
		counts[targets[i]]++
	}

	classWeight := make([]float64, k)
	for c := range classWeight {
		classWeight[c] = 1.0
		if opts.Balanced {
			classWeight[c] = float64(n) / (float64(k) * float64(counts[c]))
		}
	}
	sampleWeight := make([]float64, n)
	for i, t := range targets {
		sampleWeight[i] = classWeight[t]
	}
	totalWeight := floats.Sum(sampleWeight)

	obj := &objective{
		x:            X,
		targets:      targets,
		sampleWeight: sampleWeight,
		totalWeight:  totalWeight,
		lambda:       1.0 / (opts.C * totalWeight),
		k:            k,
		dim:          dim,
		logits:       make([]float64, k),
	}
	problem := optimize.Problem{Func: obj.Func, Grad: obj.Grad}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIter,
		GradientThreshold: opts.Tol,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-12, Relative: 1e-12, Iterations: 50},
	}

	result, err := optimize.Minimize(problem, make([]float64, (dim+1)*k), settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("logreg: minimize: %w", err)
	}
	// A line search that stalls next to the optimum still leaves a usable
	// location; only a non-finite objective is fatal.
	if err != nil && (math.IsNaN(result.F) || math.IsInf(result.F, 0)) {
		return nil, fmt.Errorf("logreg: minimize: %w", err)
	}

	m := &Classifier{
		Labels:    classes,
		Weights:   make([][]float64, k),
		Bias:      make([]float64, k),
		Dim:       dim,
		Iter:      result.Stats.MajorIterations,
		FinalLoss: result.F,
		Status:    result.Status.String(),
	}
	for c := range m.Weights {
		m.Weights[c] = append([]float64(nil), result.X[c*dim:(c+1)*dim]...)
	}
	copy(m.Bias, result.X[k*dim:])
	return m, nil
}

// objective evaluates the training loss and its gradient over the packed
// parameter vector [W row by row | bias]. The last evaluation is cached
// because L-BFGS asks for the value and the gradient at the same point.
type objective struct {
	x            []sparse.Vector
	targets      []int
	sampleWeight []float64
	totalWeight  float64
	lambda       float64
	k, dim       int

	logits   []float64
	lastX    []float64
	lastF    float64
	lastGrad []float64
}

func (o *objective) Func(params []float64) float64 {
	o.evaluate(params)
	return o.lastF
}

func (o *objective) Grad(grad, params []float64) {
	o.evaluate(params)
	copy(grad, o.lastGrad)
}

func (o *objective) evaluate(params []float64) {
	if o.lastX != nil && floats.Equal(o.lastX, params) {
		return
	}
	if o.lastGrad == nil {
		o.lastGrad = make([]float64, len(params))
		o.lastX = make([]float64, len(params))
	}
	grad := o.lastGrad
	for i := range grad {
		grad[i] = 0
	}
	gradB := grad[o.k*o.dim:]
	bias := params[o.k*o.dim:]

	loss := 0.0
	for i, x := range o.x {
		for c := 0; c < o.k; c++ {
			o.logits[c] = x.Dot(params[c*o.dim:(c+1)*o.dim]) + bias[c]
		}
		lse := floats.LogSumExp(o.logits)
		loss += o.sampleWeight[i] * (lse - o.logits[o.targets[i]])
		for c := 0; c < o.k; c++ {
			p := math.Exp(o.logits[c] - lse)
			if c == o.targets[i] {
				p -= 1
			}
			g := o.sampleWeight[i] * p / o.totalWeight
			x.AddScaledTo(grad[c*o.dim:(c+1)*o.dim], g)
			gradB[c] += g
		}
	}
	loss /= o.totalWeight

	// The bias is not penalized.
	weights := params[:o.k*o.dim]
	loss += 0.5 * o.lambda * floats.Dot(weights, weights)
	floats.AddScaled(grad[:o.k*o.dim], o.lambda, weights)

	copy(o.lastX, params)
	o.lastF = loss
}

func (m *Classifier) logits(x sparse.Vector, out []float64) {
	for c := range m.Weights {
		out[c] = x.Dot(m.Weights[c]) + m.Bias[c]
	}
}

// Classes returns the label set in model column order.
func (m *Classifier) Classes() []string { return m.Labels }

// PredictProba returns the class probability distribution for x.
func (m *Classifier) PredictProba(x sparse.Vector) []float64 {
	logits := make([]float64, len(m.Labels))
	m.logits(x, logits)
	lse := floats.LogSumExp(logits)
	for c := range logits {
		logits[c] = math.Exp(logits[c] - lse)
	}
	return logits
}

// Predict returns the most probable label and its probability.
func (m *Classifier) Predict(x sparse.Vector) (string, float64) {
	proba := m.PredictProba(x)
	best := floats.MaxIdx(proba)
	return m.Labels[best], proba[best]
}

// Validate checks that a deserialized model is internally consistent.
func (m *Classifier) Validate() error {
	if len(m.Labels) < 2 {
		return ErrSingleClass
	}
	if len(m.Weights) != len(m.Labels) || len(m.Bias) != len(m.Labels) {
		return fmt.Errorf("logreg: %d classes but %d weight rows and %d biases",
			len(m.Labels), len(m.Weights), len(m.Bias))
	}
	for c, row := range m.Weights {
		if len(row) != m.Dim {
			return fmt.Errorf("logreg: weight row %d has %d columns, want %d", c, len(row), m.Dim)
		}
	}
	return nil
}

func uniqueLabels(y []string) ([]string, map[string]int) {
	seen := make(map[string]struct{})
	for _, label := range y {
		seen[label] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, label := range classes {
		index[label] = i
	}
	return classes, index
}
