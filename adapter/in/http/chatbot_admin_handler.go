package http

import (
	"context"
	"errors"
	"sync"
	"time"

	in "chatbot_server/core/port/in"
	"chatbot_server/pkg/apperr"
	"chatbot_server/pkg/logger"
	"chatbot_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// ModelStatus reports which models are loaded.
type ModelStatus interface {
	Status() any
}

// ModelStatusFunc adapts a function to ModelStatus.
type ModelStatusFunc func() any

func (f ModelStatusFunc) Status() any { return f() }

// RetrainState is the outcome of the most recent retraining run.
type RetrainState struct {
	Running    bool              `json:"running"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Report     *in.RetrainReport `json:"report,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// AdminHandler exposes operator endpoints behind admin auth.
type AdminHandler struct {
	retrain in.RetrainService
	// onRetrained runs after a successful run, typically to reload models.
	onRetrained func()
	models      ModelStatus
	connections func() any
	latency     *metrics.LatencyRegistry
	timeout     time.Duration

	mu    sync.Mutex
	state RetrainState
	wg    sync.WaitGroup
	log   *logger.Logger
}

// AdminConfig wires AdminHandler.
type AdminConfig struct {
	Retrain     in.RetrainService
	OnRetrained func()
	Models      ModelStatus
	// Connections reports backing store pool statistics.
	Connections func() any
	Latency     *metrics.LatencyRegistry
	// Timeout bounds one retraining run.
	Timeout time.Duration
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Hour
	}
	return &AdminHandler{
		retrain:     cfg.Retrain,
		onRetrained: cfg.OnRetrained,
		models:      cfg.Models,
		connections: cfg.Connections,
		latency:     cfg.Latency,
		timeout:     cfg.Timeout,
		log:         logger.WithField("component", "admin"),
	}
}

// Register registers admin routes. auth guards every route.
func (h *AdminHandler) Register(router fiber.Router, auth fiber.Handler) {
	admin := router.Group("/admin", auth)
	admin.Post("/retrain", h.StartRetrain)
	admin.Get("/retrain", h.RetrainStatus)
	admin.Get("/status", h.Status)
}

// StartRetrain launches a retraining run in the background.
func (h *AdminHandler) StartRetrain(c *fiber.Ctx) error {
	if h.retrain == nil {
		return apperr.NotConfigured("retraining")
	}

	h.mu.Lock()
	if h.state.Running {
		h.mu.Unlock()
		return apperr.Conflict("retraining already in progress")
	}
	now := time.Now().UTC()
	h.state = RetrainState{Running: true, StartedAt: &now}
	h.mu.Unlock()

	h.wg.Add(1)
	go h.run()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started", "started_at": now})
}

func (h *AdminHandler) run() {
	defer h.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	report, err := h.retrain.Run(ctx)
	if err == nil && h.onRetrained != nil {
		h.onRetrained()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = apperr.Timeout("retraining", err)
	}

	finished := time.Now().UTC()
	h.mu.Lock()
	h.state.Running = false
	h.state.FinishedAt = &finished
	h.state.Report = report
	if err != nil {
		h.state.Error = err.Error()
	}
	h.mu.Unlock()

	if err != nil {
		appErr := apperr.AsAppError(err)
		log := h.log.WithError(err).WithField("error_code", appErr.Code)
		if appErr.Code == apperr.CodeTimeout {
			log.Error("retraining timed out after %s", h.timeout)
		} else {
			log.Warn("retraining did not complete")
		}
	}
}

// Wait blocks until any in-flight run finishes.
func (h *AdminHandler) Wait() { h.wg.Wait() }

// RetrainStatus returns the state of the latest run.
func (h *AdminHandler) RetrainStatus(c *fiber.Ctx) error {
	h.mu.Lock()
	state := h.state
	h.mu.Unlock()
	return c.JSON(state)
}

// Status returns model availability, connection pool statistics and
// request latency per route.
func (h *AdminHandler) Status(c *fiber.Ctx) error {
	resp := fiber.Map{}
	if h.models != nil {
		resp["models"] = h.models.Status()
	}
	if h.connections != nil {
		resp["connections"] = h.connections()
	}
	if h.latency != nil {
		latency := fiber.Map{}
		for route, s := range h.latency.AllStats() {
			latency[route] = s.ToMap()
		}
		resp["latency"] = latency
	}
	return c.JSON(resp)
}
