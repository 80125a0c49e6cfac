package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatbot_server/pkg/apperr"
	"chatbot_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(RequestID(), Recover())
	for _, h := range handlers {
		app.Use(h)
	}
	return app
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestErrorHandler_AppError(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error { return apperr.MissingField("message") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	body := decodeError(t, resp.Body)
	assert.Equal(t, apperr.CodeMissingField, body.Error.Code)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, body.RequestID, resp.Header.Get("X-Request-ID"))
}

func TestErrorHandler_UnexpectedAndPanic(t *testing.T) {
	app := newApp()
	app.Get("/err", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/panic", func(c *fiber.Ctx) error { panic("kaboom") })

	for _, path := range []string{"/err", "/panic"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode, path)
		assert.Equal(t, apperr.CodeInternalError, decodeError(t, resp.Body).Error.Code)
	}
}

func TestAdminJWT(t *testing.T) {
	app := newApp()
	app.Post("/admin", AdminJWT(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("admin_subject").(string))
	})

	valid, err := SignAdminToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)
	expired, err := SignAdminToken(testSecret, "ops", -time.Hour)
	require.NoError(t, err)
	wrongKey, err := SignAdminToken("other", "ops", time.Hour)
	require.NoError(t, err)
	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", 401},
		{"not bearer", "Basic abc", 401},
		{"expired", "Bearer " + expired, 401},
		{"wrong key", "Bearer " + wrongKey, 401},
		{"no role", "Bearer " + noRole, 403},
		{"valid", "Bearer " + valid, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAdminJWT_NoSecret(t *testing.T) {
	app := newApp()
	app.Post("/admin", AdminJWT(""), func(c *fiber.Ctx) error { return c.SendStatus(200) })

	tok, err := SignAdminToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	app := newApp(rl.Handler())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	codes := make([]int, 3)
	for i := range codes {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		codes[i] = resp.StatusCode
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestMaxBodySize(t *testing.T) {
	app := newApp(MaxBodySize(8))
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	resp, err := app.Test(httptest.NewRequest("POST", "/", strings.NewReader("0123456789")))
	require.NoError(t, err)
	assert.Equal(t, 413, resp.StatusCode)
}

func TestRequestID_ReachesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.LevelInfo, Output: &buf})
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		log.WithContext(c.UserContext()).Info("handled")
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req-from-client")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-from-client", resp.Header.Get("X-Request-ID"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "req-from-client", line["request_id"])
}
