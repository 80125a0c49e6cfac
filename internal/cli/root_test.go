package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "chatbot-ml", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Short, "%s missing short description", c.Name())
		assert.NotEmpty(t, c.Example, "%s missing example usage", c.Name())
	}
	for _, want := range []string{"generate", "aggregate", "train-intent", "train-sentiment", "retrain", "export-fasttext"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
	}{
		{"generate", []string{"templates", "per-intent", "seed", "output"}},
		{"aggregate", []string{"data-dir", "cap", "limit", "output", "json"}},
		{"train-intent", []string{"corpus", "folds", "max-iter", "workers"}},
		{"train-sentiment", []string{"corpus", "limit", "epochs", "batch-size"}},
		{"retrain", []string{"export-only"}},
		{"export-fasttext", []string{"input", "output"}},
	}

	root := NewRootCmd()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{tt.name})
			if !assert.NoError(t, err) {
				return
			}
			for _, f := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(f), "flag %q not registered", f)
			}
		})
	}
}
