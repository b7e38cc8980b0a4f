package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/quietgrove/dossier/pkg/chat"
	"github.com/quietgrove/dossier/pkg/report"
)

// ErrorResponse is the JSON error body returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP API for the chat hot path and report queries.
type Server struct {
	config  Config
	chat    *chat.Service
	reports *report.Aggregator
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The chat service and aggregator are
// injected so they can be shared with the worker pool when both run in one
// process.
func NewServer(config Config, chatSvc *chat.Service, reports *report.Aggregator, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Domain names carry spaces and arrive percent-encoded in paths.
		UnescapePath: true,
	})

	s := &Server{
		config:  config,
		chat:    chatSvc,
		reports: reports,
		logger:  logger,
		app:     app,
	}

	app.Get("/health", s.handleHealth)
	app.Post("/api/chat", s.handleChat)
	app.Get("/api/session/:id", s.handleSessionInfo)
	app.Get("/api/session/:id/history", s.handleHistory)
	app.Delete("/api/session/:id", s.handleClearSession)
	app.Get("/api/report/:id", s.handleReport)
	app.Get("/api/report/:id/skills", s.handleSkillsReport)
	app.Get("/api/report/:id/traits", s.handleTraitsReport)
	app.Get("/api/report/:id/domain/:domain", s.handleDomainDeepDive)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
