package bootstrap

import (
	"context"
	"strings"
	"time"

	"chatbot_server/adapter/in/http"
	"chatbot_server/config"
	in "chatbot_server/core/port/in"
	"chatbot_server/infra/database"
	"chatbot_server/infra/middleware"
	"chatbot_server/pkg/logger"
	"chatbot_server/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app, stop := NewApp(cfg, deps)
	status := deps.Models.Status()
	logger.WithFields(map[string]any{
		"intent_model":    status.IntentModel,
		"sentiment_model": status.SentimentModel,
		"order_store":     cfg.OrderStore,
	}).Info("API server initialized")

	return app, func() {
		stop()
		cleanup()
	}, nil
}

// NewApp builds the fiber application over already constructed deps. The
// returned stop func waits for background retraining and stops the limiter.
func NewApp(cfg *config.Config, deps *Dependencies) (*fiber.App, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json for request and response bodies
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ServerHeader: "",
	})

	latency := metrics.NewLatencyRegistry(1000)

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger(latency))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" || allowOrigins == "*" {
		allowOrigins = "*"
		if cfg.IsProduction() {
			allowOrigins = ""
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		MaxAge:       86400,
	}))

	// Health check (no auth required)
	checks := map[string]http.HealthCheck{}
	if deps.Redis != nil || deps.MongoDB != nil || deps.SQLDB != nil {
		checks["stores"] = deps.HealthCheck
	}
	http.NewHealthHandler(checks).Register(app)

	// Customer routes, size-capped and rate limited per client IP
	chatRoutes := app.Group("", middleware.MaxBodySize(cfg.MaxBodyBytes),
		middleware.NewRateLimiter(ctx, cfg.RateLimitPerMin, time.Minute).Handler())
	http.NewChatHandler(deps.Chat).Register(chatRoutes)

	// Operator routes
	admin := http.NewAdminHandler(http.AdminConfig{
		Retrain:     retrainService(deps),
		OnRetrained: func() { deps.Models.Reload() },
		Models:      http.ModelStatusFunc(func() any { return deps.Models.Status() }),
		Connections: func() any { return connectionStats(deps) },
		Latency:     latency,
		Timeout:     cfg.RetrainTimeout,
	})
	admin.Register(app, middleware.AdminJWT(cfg.JWTSecret))

	return app, func() {
		cancel()
		admin.Wait()
	}
}

// retrainService keeps a nil *retrain.Runner from becoming a non-nil interface.
func retrainService(deps *Dependencies) in.RetrainService {
	if deps.Retrain == nil {
		return nil
	}
	return deps.Retrain
}

// connectionStats reports pool statistics for the connected stores.
func connectionStats(deps *Dependencies) map[string]any {
	stats := map[string]any{}
	if deps.Redis != nil {
		stats["redis"] = database.GetRedisStats(deps.Redis)
	}
	if deps.SQLDB != nil {
		stats["postgres"] = deps.SQLDB.Stats()
	}
	return stats
}
