package tfidf

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Where is my ORDER 45821?", []string{"where", "is", "my", "order", "45821"}},
		{"a b c", nil},
		{"", nil},
		{"café au lait", []string{"café", "au", "lait"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestVectorizer_SmoothedIDF(t *testing.T) {
	v := NewVectorizer()
	require.NoError(t, v.Fit([]string{"track order", "cancel order"}))

	// "order" appears in both docs: ln(3/3)+1 = 1; "track": ln(3/2)+1
	assert.InDelta(t, 1.0, v.idf[v.vocabulary["order"]], 1e-12)
	assert.InDelta(t, math.Log(1.5)+1, v.idf[v.vocabulary["track"]], 1e-12)
	assert.Equal(t, 3, v.Dimension())
}

func TestVectorizer_TransformIsUnitNorm(t *testing.T) {
	v := NewVectorizer()
	require.NoError(t, v.Fit([]string{"track my order", "cancel my order please", "hello there"}))

	vec := v.Transform("please track my order order")
	norm := 0.0
	for _, x := range vec.Values {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
	for i := 1; i < len(vec.Indices); i++ {
		assert.Less(t, vec.Indices[i-1], vec.Indices[i])
	}
}

func TestVectorizer_UnknownTermsIgnored(t *testing.T) {
	v := NewVectorizer()
	require.NoError(t, v.Fit([]string{"track order"}))

	assert.Zero(t, v.Transform("completely unseen words").Len())
	assert.Zero(t, NewVectorizer().Transform("track order").Len())
}

func TestVectorizer_EmptyCorpus(t *testing.T) {
	assert.Error(t, NewVectorizer().Fit(nil))
	assert.Error(t, NewVectorizer().Fit([]string{"a", "!"}))
}

func TestVectorizer_JSONState(t *testing.T) {
	v := NewVectorizer()
	require.NoError(t, v.Fit([]string{"track my order", "refund please"}))

	data, err := json.Marshal(v)
	require.NoError(t, err)

	restored := NewVectorizer()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.True(t, restored.Fitted())
	assert.Equal(t, v.Transform("track refund"), restored.Transform("track refund"))
}
