package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/pkg/logger"
)

// HealthChecker probes the analysis service. *gateway.Client implements it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checker  HealthChecker
	registry *Registry
	timeout  time.Duration
}

func NewHealthHandler(checker HealthChecker, registry *Registry) *HealthHandler {
	return &HealthHandler{checker: checker, registry: registry, timeout: 5 * time.Second}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	backend := "ok"
	status := fiber.StatusOK
	if err := h.checker.Health(ctx); err != nil {
		logger.Warn("Analysis service health check failed", zap.Error(err))
		backend = "unavailable"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   "healthy",
		"backend":  backend,
		"sessions": h.registry.Count(),
		"time":     time.Now().Unix(),
	})
}
