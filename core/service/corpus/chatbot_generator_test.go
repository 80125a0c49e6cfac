package corpus

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates(t *testing.T) {
	set, err := DefaultTemplates()
	require.NoError(t, err)

	assert.NotEmpty(t, set.Products)
	assert.NotEmpty(t, set.Categories)
	assert.Contains(t, set.Intents(), "get_order")
	assert.Contains(t, set.Intents(), "out_of_scope")
}

func TestGenerator_RowsPerIntent(t *testing.T) {
	set := &TemplateSet{
		Products:   []string{"Matte Lipstick"},
		Categories: []string{"makeup"},
		Templates: map[string][]string{
			"get_order": {"Where is my order {oid}?"},
			"stock_info": {"Is {product} in stock?", "Any {category} left?"},
		},
	}
	var buf bytes.Buffer
	n, err := NewGenerator(set, GeneratorConfig{PerIntent: 25, Seed: 1}).Generate(&buf)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 51)
	assert.Equal(t, []string{"text", "intent"}, records[0])

	perIntent := map[string]int{}
	for _, rec := range records[1:] {
		perIntent[rec[1]]++
		assert.NotContains(t, rec[0], "{")
	}
	assert.Equal(t, map[string]int{"get_order": 25, "stock_info": 25}, perIntent)
	// intents are visited in sorted order
	assert.Equal(t, "get_order", records[1][1])
}

func TestGenerator_OrderIDRange(t *testing.T) {
	set := &TemplateSet{Templates: map[string][]string{"get_order": {"{oid}"}}}
	var buf bytes.Buffer
	_, err := NewGenerator(set, GeneratorConfig{PerIntent: 200, Seed: 9}).Generate(&buf)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	for _, rec := range records[1:] {
		require.Len(t, rec[0], 5)
		assert.GreaterOrEqual(t, rec[0], "10000")
		assert.LessOrEqual(t, rec[0], "99999")
	}
}

func TestGenerator_Idempotent(t *testing.T) {
	set, err := DefaultTemplates()
	require.NoError(t, err)

	var a, b, c bytes.Buffer
	_, err = NewGenerator(set, GeneratorConfig{PerIntent: 50, Seed: 42}).Generate(&a)
	require.NoError(t, err)
	_, err = NewGenerator(set, GeneratorConfig{PerIntent: 50, Seed: 42}).Generate(&b)
	require.NoError(t, err)
	_, err = NewGenerator(set, GeneratorConfig{PerIntent: 50, Seed: 43}).Generate(&c)
	require.NoError(t, err)

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
}

func TestLoadTemplates_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"products:",
		"  - Silk Scarf",
		"templates:",
		"  greeting:",
		"    - Howdy",
	}, "\n")), 0o644))

	set, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Silk Scarf"}, set.Products)
	assert.Equal(t, []string{"Howdy"}, set.Templates["greeting"])
	assert.NotEmpty(t, set.Categories)
	assert.NotEmpty(t, set.Templates["refund"])

	_, err = LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGenerateFile(t *testing.T) {
	set := &TemplateSet{Templates: map[string][]string{"thanks": {"thanks"}}}
	path := filepath.Join(t.TempDir(), SyntheticFile)

	n, err := NewGenerator(set, GeneratorConfig{PerIntent: 3, Seed: 1}).GenerateFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text,intent\nthanks,thanks\nthanks,thanks\nthanks,thanks\n", string(data))
}
