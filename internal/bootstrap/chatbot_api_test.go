package bootstrap

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatbot_server/config"
	"chatbot_server/core/service/chat"
	"chatbot_server/core/service/inference"
	"chatbot_server/infra/database"
	"chatbot_server/infra/middleware"
	"chatbot_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "bootstrap-secret"

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	holder := inference.NewStaticHolder(inference.NewService(nil, inference.DefaultConfig()))
	svc, err := chat.NewService(chat.Deps{Predictor: holder}, chat.Config{})
	require.NoError(t, err)
	return &Dependencies{Models: holder, Chat: svc}
}

func newTestAppConfig() *config.Config {
	return &config.Config{
		Environment:     "test",
		JWTSecret:       testSecret,
		RateLimitPerMin: 100,
		MaxBodyBytes:    4096,
		RetrainTimeout:  time.Minute,
	}
}

func TestNewApp_ChatWithoutModels(t *testing.T) {
	app, stop := NewApp(newTestAppConfig(), newTestDeps(t))
	defer stop()

	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message":"where is order 45821"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))

	body, _ := io.ReadAll(resp.Body)
	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "get_order", got["intent"])
	assert.EqualValues(t, 45821, got["order_id"])
	assert.Contains(t, got["reply"], "45821")
}

func TestNewApp_BodyTooLarge(t *testing.T) {
	app, stop := NewApp(newTestAppConfig(), newTestDeps(t))
	defer stop()

	big := `{"message":"` + strings.Repeat("a", 5000) + `"}`
	req := httptest.NewRequest("POST", "/predict", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 413, resp.StatusCode)
}

func TestNewApp_Admin(t *testing.T) {
	app, stop := NewApp(newTestAppConfig(), newTestDeps(t))
	defer stop()

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	token, err := middleware.SignAdminToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"intent_model":false`)

	// No interaction store, so retraining is unavailable.
	req = httptest.NewRequest("POST", "/admin/retrain", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestNewApp_Health(t *testing.T) {
	app, stop := NewApp(newTestAppConfig(), newTestDeps(t))
	defer stop()

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestConnectionStats(t *testing.T) {
	assert.Empty(t, connectionStats(newTestDeps(t)))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	deps := newTestDeps(t)
	deps.Redis = client

	stats := connectionStats(deps)
	require.Contains(t, stats, "redis")
	assert.IsType(t, &database.RedisStats{}, stats["redis"])
	assert.NotContains(t, stats, "postgres")
}

func TestNewWorker_RequiresBrokerAndStore(t *testing.T) {
	cfg := newTestAppConfig()
	cfg.ModelDir = t.TempDir()

	w, cleanup, err := NewWorker(cfg)
	require.Error(t, err)
	assert.Nil(t, w)
	assert.Nil(t, cleanup)
	assert.Equal(t, apperr.CodeConfigError, apperr.AsAppError(err).Code)
}
