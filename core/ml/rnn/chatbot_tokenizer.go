// Package rnn contains the bidirectional LSTM sentiment network and the
// text preprocessing it is trained with.
package rnn

import (
	"sort"
	"strings"
)

const (
	DefaultOOVToken = "<OOV>"
	oovIndex        = 1
	padIndex        = 0
)

const tokenizerFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

// Tokenizer maps words to integer ids ranked by corpus frequency.
// Id 0 is reserved for padding and id 1 for out-of-vocabulary words.
type Tokenizer struct {
	NumWords  int            `json:"num_words"`
	OOVToken  string         `json:"oov_token"`
	WordIndex map[string]int `json:"word_index"`
}

// NewTokenizer creates a tokenizer that keeps ids below numWords.
func NewTokenizer(numWords int) *Tokenizer {
	return &Tokenizer{
		NumWords:  numWords,
		OOVToken:  DefaultOOVToken,
		WordIndex: make(map[string]int),
	}
}

// FitOnTexts builds the word index. Ties in frequency keep first-seen order.
func (t *Tokenizer) FitOnTexts(texts []string) {
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		for _, w := range splitWords(text) {
			if _, ok := counts[w]; !ok {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	t.WordIndex = make(map[string]int, len(order)+1)
	t.WordIndex[t.OOVToken] = oovIndex
	next := oovIndex + 1
	for _, w := range order {
		if w == t.OOVToken {
			continue
		}
		t.WordIndex[w] = next
		next++
	}
}

// TextsToSequences converts each text into its id sequence.
func (t *Tokenizer) TextsToSequences(texts []string) [][]int {
	out := make([][]int, len(texts))
	for i, text := range texts {
		out[i] = t.TextToSequence(text)
	}
	return out
}

// TextToSequence converts one text; rare and unknown words become the OOV id.
func (t *Tokenizer) TextToSequence(text string) []int {
	words := splitWords(text)
	seq := make([]int, 0, len(words))
	for _, w := range words {
		idx, ok := t.WordIndex[w]
		if !ok || (t.NumWords > 0 && idx >= t.NumWords) {
			idx = oovIndex
		}
		seq = append(seq, idx)
	}
	return seq
}

// CleanText lowercases text and keeps only ASCII letters and spaces. Training
// and inference must clean identically.
func CleanText(text string) string {
	text = strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitWords(text string) []string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(tokenizerFilters, r) {
			return ' '
		}
		return r
	}, text)
	return strings.Fields(text)
}

// PadSequences left-pads with zeros and keeps the trailing maxLen ids.
func PadSequences(seqs [][]int, maxLen int) [][]int {
	out := make([][]int, len(seqs))
	for i, seq := range seqs {
		out[i] = PadSequence(seq, maxLen)
	}
	return out
}

// PadSequence pads or truncates one sequence to exactly maxLen ids.
func PadSequence(seq []int, maxLen int) []int {
	row := make([]int, maxLen)
	if len(seq) > maxLen {
		seq = seq[len(seq)-maxLen:]
	}
	copy(row[maxLen-len(seq):], seq)
	return row
}
