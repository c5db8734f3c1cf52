// Package api assembles the fiber application that drives analysis sessions
// over HTTP and WebSocket.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/legal-assistant/docclient/internal/api/handlers"
	"github.com/legal-assistant/docclient/internal/metrics"
	"github.com/legal-assistant/docclient/internal/middleware/ratelimit"
	"github.com/legal-assistant/docclient/internal/middleware/security"
	"github.com/legal-assistant/docclient/internal/middleware/validation"
	"github.com/legal-assistant/docclient/pkg/config"
	"github.com/legal-assistant/docclient/pkg/logger"
)

type Deps struct {
	Registry *handlers.Registry
	History  handlers.HistoryStore
	Health   handlers.HealthChecker
}

func NewApp(cfg config.ServerConfig, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "docclient",
		ReadTimeout:           time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	origins := splitOrigins(cfg.AllowOrigins)

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: origins,
		IsDevelopment:  cfg.Development,
	}))

	sessionHandler := handlers.NewSessionHandler(deps.Registry, deps.History)
	healthHandler := handlers.NewHealthHandler(deps.Health, deps.Registry)
	wsHandler := handlers.NewWebSocketHandler(deps.Registry)

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.SubmitsPerMinute,
		Logger:               logger.GetLogger(),
	})

	api := app.Group("/api/v1", validation.Middleware(validation.Config{
		MaxTextLength:     cfg.MaxTextChars,
		MaxQuestionLength: cfg.MaxQuestionChars,
		Logger:            logger.GetLogger(),
	}))

	api.Get("/health", healthHandler.Health)

	sessions := api.Group("/sessions")
	sessions.Post("/", sessionHandler.CreateSession)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Delete("/:id", sessionHandler.DeleteSession)
	sessions.Put("/:id/text", sessionHandler.SetText)
	sessions.Put("/:id/question", sessionHandler.SetQuestion)
	sessions.Put("/:id/mode", sessionHandler.SetMode)
	sessions.Put("/:id/qa-mode", sessionHandler.SetQAMode)
	sessions.Post("/:id/submit", limiter.Middleware(), sessionHandler.Submit)
	sessions.Post("/:id/upload", limiter.Middleware(), sessionHandler.Upload)
	sessions.Get("/:id/export/summary", sessionHandler.ExportSummary)
	sessions.Get("/:id/export/entities", sessionHandler.ExportEntities)
	sessions.Get("/:id/history", sessionHandler.History)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws/sessions/:id", wsHandler.Upgrade)
	app.Get("/ws/sessions/:id", websocket.New(wsHandler.HandleConnection))

	return app
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
