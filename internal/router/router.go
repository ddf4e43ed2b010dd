package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hackhub-dev/judging-api/internal/config"
	"github.com/hackhub-dev/judging-api/internal/handler"
	"github.com/hackhub-dev/judging-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	JudgingHandler  *handler.JudgingHandler
	EntryHandler    *handler.EntryHandler
	WinnerHandler   *handler.WinnerHandler
	BotJudgeHandler *handler.BotJudgeHandler
	ActivityHandler *handler.ActivityHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & metrics
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	judging := app.Group("/api/v2/judging", jwtMiddleware)

	if deps.JudgingHandler != nil {
		deps.JudgingHandler.Register(judging)
	}
	if deps.EntryHandler != nil {
		deps.EntryHandler.Register(judging)
	}
	if deps.WinnerHandler != nil {
		deps.WinnerHandler.Register(judging)
	}
	if deps.BotJudgeHandler != nil {
		deps.BotJudgeHandler.Register(judging)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(judging)
	}
}
