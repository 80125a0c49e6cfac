package rnn

import (
	"fmt"
	"sort"
)

// LabelEncoder maps string labels to dense class ids in sorted order.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// FitLabelEncoder collects the distinct labels of y.
func FitLabelEncoder(y []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(y))
	for _, label := range y {
		seen[label] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}
}

// Encode returns the class id of label.
func (e *LabelEncoder) Encode(label string) (int, error) {
	i := sort.SearchStrings(e.Classes, label)
	if i < len(e.Classes) && e.Classes[i] == label {
		return i, nil
	}
	return 0, fmt.Errorf("unknown label %q", label)
}

// EncodeAll encodes every label of y.
func (e *LabelEncoder) EncodeAll(y []string) ([]int, error) {
	out := make([]int, len(y))
	for i, label := range y {
		id, err := e.Encode(label)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// Decode returns the label of class id i.
func (e *LabelEncoder) Decode(i int) (string, error) {
	if i < 0 || i >= len(e.Classes) {
		return "", fmt.Errorf("class id %d out of range", i)
	}
	return e.Classes[i], nil
}
