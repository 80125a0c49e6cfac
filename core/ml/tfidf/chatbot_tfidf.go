// Package tfidf implements a frozen-vocabulary TF-IDF vectorizer.
package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"chatbot_server/core/ml/sparse"

	"github.com/goccy/go-json"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer turns text into L2-normalized TF-IDF vectors.
// The vocabulary is built once by Fit and never changes afterwards; terms
// unseen at fit time are ignored by Transform.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
	fitted     bool
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{vocabulary: make(map[string]int)}
}

// Fit builds the vocabulary and smoothed IDF weights from the corpus.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF fit")
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.fitted = true
	return nil
}

// FitTransform fits the vectorizer and transforms the same corpus.
func (v *Vectorizer) FitTransform(corpus []string) ([]sparse.Vector, error) {
	if err := v.Fit(corpus); err != nil {
		return nil, err
	}
	out := make([]sparse.Vector, len(corpus))
	for i, text := range corpus {
		out[i] = v.Transform(text)
	}
	return out, nil
}

// Fitted reports whether Fit has completed.
func (v *Vectorizer) Fitted() bool { return v.fitted }

// Dimension returns the vocabulary size.
func (v *Vectorizer) Dimension() int { return len(v.idf) }

// Transform computes the TF-IDF vector for text. An unfitted vectorizer or a
// text with no known terms yields an empty vector.
func (v *Vectorizer) Transform(text string) sparse.Vector {
	if !v.fitted {
		return sparse.Vector{}
	}
	counts := make(map[int]int)
	for _, tok := range Tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return sparse.Vector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	norm := 0.0
	for k, idx := range indices {
		w := float64(counts[idx]) * v.idf[idx]
		values[k] = w
		norm += w * w
	}
	// L2 normalize
	norm = math.Sqrt(norm)
	if norm > 0 {
		for k := range values {
			values[k] /= norm
		}
	}
	return sparse.Vector{Indices: indices, Values: values}
}

// Tokenize lowercases text and extracts its word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

type vectorizerState struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// MarshalJSON implements json.Marshaler.
func (v *Vectorizer) MarshalJSON() ([]byte, error) {
	return json.Marshal(vectorizerState{Vocabulary: v.vocabulary, IDF: v.idf})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Vectorizer) UnmarshalJSON(data []byte) error {
	var st vectorizerState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if len(st.Vocabulary) != len(st.IDF) {
		return errors.New("tfidf state: vocabulary and idf sizes differ")
	}
	v.vocabulary = st.Vocabulary
	v.idf = st.IDF
	v.fitted = len(st.IDF) > 0
	return nil
}
