package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ingat-go-api/internal/config"
	"github.com/noah-isme/ingat-go-api/internal/handler"
	"github.com/noah-isme/ingat-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SyncHandler       *handler.SyncHandler
	WeekHandler       *handler.WeekHandler
	PlanHandler       *handler.PlanHandler
	CompletionHandler *handler.CompletionHandler
	PlannerHandler    *handler.PlannerHandler
	ReminderHandler   *handler.ReminderHandler
	StreamHandler     *handler.StreamHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
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

	// Canvas synchronisation
	if deps.SyncHandler != nil {
		sync := app.Group("/api/v1/sync", jwtMiddleware)
		deps.SyncHandler.Register(sync)
	}

	// Week digest & completion status
	if deps.WeekHandler != nil {
		week := app.Group("/api/v1/weeks", jwtMiddleware)
		deps.WeekHandler.Register(week)
	}

	// Study plans (create, list, reschedule)
	if deps.PlanHandler != nil {
		plans := app.Group("/api/v1/plans", jwtMiddleware)
		deps.PlanHandler.Register(plans)
	}

	// Completion tracking
	if deps.CompletionHandler != nil {
		completions := app.Group("/api/v1/completions", jwtMiddleware)
		deps.CompletionHandler.Register(completions)
	}

	// Planning & reschedule dialogues
	if deps.PlannerHandler != nil {
		planner := app.Group("/api/v1/planner", jwtMiddleware)
		deps.PlannerHandler.Register(planner)
	}

	// Reminder acknowledgements
	if deps.ReminderHandler != nil {
		reminders := app.Group("/api/v1/reminders", jwtMiddleware)
		deps.ReminderHandler.Register(reminders)
	}

	// Live reminder stream
	if deps.StreamHandler != nil {
		stream := app.Group("/api/v1/stream", jwtMiddleware)
		deps.StreamHandler.Register(stream)
	}
}
