package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"MONGODB_URL", "DATABASE_URL", "ORDER_STORE", "DATA_DIR", "INTENT_THRESHOLD"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, OrderStoreNone, cfg.OrderStore)
	assert.Equal(t, 0.15, cfg.IntentThreshold)
	assert.Equal(t, 1000, cfg.IntentCap)
	assert.Equal(t, 400, cfg.PerIntent)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, filepath.Join("data", "consolidated_training_data.csv"), cfg.CorpusPath)
	assert.Equal(t, 3*time.Second, cfg.OrderLookupTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_OrderStoreInference(t *testing.T) {
	t.Setenv("ORDER_STORE", "")
	t.Setenv("MONGODB_URL", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, OrderStorePostgres, cfg.OrderStore)

	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, OrderStoreMongo, cfg.OrderStore)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MONGODB_URL", "")
	t.Setenv("ORDER_STORE", "mongo")
	t.Setenv("INTENT_THRESHOLD", "1.5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URL")
	assert.Contains(t, err.Error(), "INTENT_THRESHOLD")
}

func TestGetEnvSlice(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvSlice("ALLOWED_ORIGINS", nil))
}
