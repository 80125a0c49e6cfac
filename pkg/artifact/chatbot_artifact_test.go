package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Vocabulary map[string]int `json:"vocabulary"`
	Weights    []float64      `json:"weights"`
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "model.json.gz")
	in := sample{Vocabulary: map[string]int{"order": 0, "refund": 1}, Weights: []float64{0.25, -1.5}}

	require.NoError(t, Save(path, KindIntentModel, in))
	assert.True(t, Exists(path))

	var out sample
	require.NoError(t, Load(path, KindIntentModel, &out))
	assert.Equal(t, in, out)
}

func TestLoad_Missing(t *testing.T) {
	var out sample
	err := Load(filepath.Join(t.TempDir(), "absent.gz"), KindIntentModel, &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoad_KindMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tok.gz")
	require.NoError(t, Save(path, KindTokenizer, sample{}))

	var out sample
	err := Load(path, KindNetwork, &out)
	assert.True(t, errors.Is(err, ErrKindMismatch))
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	var out sample
	assert.Error(t, Load(path, KindNetwork, &out))
}
