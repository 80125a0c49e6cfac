// Package sparse holds the compressed feature vectors produced by text vectorizers.
package sparse

// Vector is a sparse feature vector with strictly increasing indices.
type Vector struct {
	Indices []int     `json:"i"`
	Values  []float64 `json:"v"`
}

// Len returns the number of stored (non-zero) entries.
func (v Vector) Len() int { return len(v.Indices) }

// Dot returns the inner product with a dense weight row.
func (v Vector) Dot(dense []float64) float64 {
	sum := 0.0
	for k, idx := range v.Indices {
		sum += v.Values[k] * dense[idx]
	}
	return sum
}

// AddScaledTo accumulates alpha*v into dense.
func (v Vector) AddScaledTo(dense []float64, alpha float64) {
	for k, idx := range v.Indices {
		dense[idx] += alpha * v.Values[k]
	}
}
