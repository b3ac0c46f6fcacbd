// Package server is the UDICTI backend: the developer directory API and the
// telemetry sink the CLI reports to.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/store"
)

// Store is the persistence the server needs.
type Store interface {
	Ping(ctx context.Context) error
	UpsertDeveloper(ctx context.Context, d model.Developer, source string) (model.Developer, error)
	ListDevelopers(ctx context.Context) ([]model.Developer, error)
	RecordEvent(ctx context.Context, rec store.EventRecord) (string, error)
}

// Config configures a Server.
type Config struct {
	// LogRateLimit is the number of /api/log requests allowed per IP per
	// LogRateWindow. Zero disables limiting.
	LogRateLimit  int
	LogRateWindow time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		LogRateLimit:  60,
		LogRateWindow: time.Minute,
	}
}

// Server exposes a Store over HTTP.
type Server struct {
	app    *fiber.App
	store  Store
	logger *slog.Logger
}

// New creates a Server. A nil store is allowed: the directory endpoints then
// answer "Database not available".
func New(st Store, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	s := &Server{app: app, store: st, logger: logger}
	s.routes(cfg)
	return s
}

func (s *Server) routes(cfg Config) {
	s.app.Use(s.requestLogger())

	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	if cfg.LogRateLimit > 0 {
		api.Post("/log", rateLimit(cfg.LogRateLimit, cfg.LogRateWindow), s.handleLog)
	} else {
		api.Post("/log", s.handleLog)
	}
	api.Get("/developers", s.handleListDevelopers)
	api.Post("/developers", s.handleAddDeveloper)
}

// rateLimit limits a route to max requests per window per IP.
func rateLimit(max int, window time.Duration) fiber.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too_many_requests"})
		},
	})
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		s.logger.Debug("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return err
	}
}

// App returns the underlying fiber app, for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Handler adapts the server to net/http.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	database := "connected"
	if s.store == nil {
		database = "disconnected"
	} else if err := s.store.Ping(c.UserContext()); err != nil {
		s.logger.Warn("database ping failed", "err", err)
		database = "disconnected"
	}
	return c.JSON(fiber.Map{"status": "healthy", "database": database})
}

func (s *Server) handleLog(c *fiber.Ctx) error {
	var ev model.Event
	if err := c.BodyParser(&ev); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if ev.Event == "" {
		return fiber.NewError(fiber.StatusBadRequest, "event is required")
	}

	if s.store != nil {
		_, err := s.store.RecordEvent(c.UserContext(), store.EventRecord{
			Event:      ev,
			IP:         c.IP(),
			UserAgent:  c.Get(fiber.HeaderUserAgent),
			ReceivedAt: time.Now().UTC(),
		})
		if err != nil {
			s.logger.Error("recording event", "event", ev.Event, "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to record event")
		}
	}
	return c.JSON(fiber.Map{"status": "logged"})
}

func (s *Server) handleListDevelopers(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Database not available")
	}

	devs, err := s.store.ListDevelopers(c.UserContext())
	if err != nil {
		s.logger.Error("listing developers", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list developers")
	}
	return c.JSON(fiber.Map{"developers": devs, "count": len(devs)})
}

type addDeveloperRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	GitHub    string   `json:"github"`
	Interests []string `json:"interests"`
	Skills    []string `json:"skills"`
	Source    string   `json:"source"`
}

func (s *Server) handleAddDeveloper(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Database not available")
	}

	var req addDeveloperRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	d := model.Developer{
		Name:      req.Name,
		Email:     req.Email,
		GitHub:    req.GitHub,
		Interests: req.Interests,
		Skills:    req.Skills,
	}.Normalized()
	if d.Validate() != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
	}

	source := strings.ToLower(strings.TrimSpace(req.Source))
	if source != model.SourceWeb {
		source = model.SourceCLI
	}

	if _, err := s.store.UpsertDeveloper(c.UserContext(), d, source); err != nil {
		s.logger.Error("saving developer", "email", d.Email, "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to save developer")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Developer added successfully"})
}
