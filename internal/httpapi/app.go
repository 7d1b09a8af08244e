// Package httpapi exposes the annotation workspace over HTTP with Fiber.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/ironsheep/obb-annotate-mcp/internal/workspace"
)

// Config configures the HTTP app.
type Config struct {
	AppName      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Resume is the default of the dataset endpoint's resume field.
	Resume bool
	// AccessLog enables the request log middleware.
	AccessLog bool
	Logger    *slog.Logger
}

// NewApp builds a Fiber app serving ws.
func NewApp(ws *workspace.Workspace, cfg Config) *fiber.App {
	if cfg.AppName == "" {
		cfg.AppName = "obb-annotate"
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		AppName:      cfg.AppName,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(accessLog())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"*"},
		AllowMethods: []string{"*"},
	}))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	app.Get("/health/ready", func(c fiber.Ctx) error {
		st := ws.Status()
		return c.JSON(fiber.Map{"status": "ready", "dataset_open": st.Dataset != "", "state": st.State})
	})

	// ============================================================
	// Annotation Routes
	// ============================================================

	NewHandler(ws, cfg.Logger, cfg.Resume).Register(app.Group("/api"))

	return app
}

func accessLog() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
