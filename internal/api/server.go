// internal/api/server.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/localize"
)

// Server exposes a Localizer over HTTP.
type Server struct {
	app       *fiber.App
	localizer localize.Localizer
	logger    *slog.Logger
	now       func() time.Time
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(localizer localize.Localizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		localizer: localizer,
		logger:    logger,
		now:       time.Now,
	}

	app := fiber.New(fiber.Config{
		AppName:               "monoloc",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/healthcheck", s.handleHealthcheck)

	api := app.Group("/api/v1")
	api.Post("/perception/suspect_localization", s.handleLocalize)

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleError renders fiber errors (404, 405, panics) in the response envelope.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(LocalizationResponse{Code: code, Message: err.Error()})
}
