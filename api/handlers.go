package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/quietgrove/dossier/pkg/ontology"
)

// ChatRequest is the POST /api/chat body. SessionID is optional; a new
// session is started when it is absent.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	result, err := s.chat.HandleTurn(c.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "session", req.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to process message"})
	}

	return c.JSON(result)
}

func (s *Server) handleSessionInfo(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	info, err := s.chat.SessionInfo(c.Context(), sessionID)
	if err != nil {
		s.logger.Error("session info failed", "session", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read session"})
	}

	return c.JSON(fiber.Map{
		"session_id":    sessionID,
		"message_count": info.Count,
		"ttl_seconds":   int(info.TTL.Seconds()),
		"exists":        info.Exists,
	})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	turns, err := s.chat.History(c.Context(), sessionID, 0)
	if err != nil {
		s.logger.Error("history read failed", "session", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read history"})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"history":    turns,
		"count":      len(turns),
	})
}

func (s *Server) handleClearSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	cleared, err := s.chat.ClearSession(c.Context(), sessionID)
	if err != nil {
		s.logger.Error("session clear failed", "session", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear session"})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"cleared":    cleared,
	})
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	rep, err := s.reports.CandidateReport(c.Context(), sessionID)
	if err != nil {
		s.logger.Error("report failed", "session", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to build report"})
	}

	return c.JSON(rep)
}

func (s *Server) handleSkillsReport(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	rep, err := s.reports.SkillsReport(c.Context(), sessionID)
	if err != nil {
		s.logger.Error("skills report failed", "session", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to build skills report"})
	}

	return c.JSON(rep)
}

func (s *Server) handleTraitsReport(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	rep, err := s.reports.TraitsReport(c.Context(), sessionID)
	if err != nil {
		s.logger.Error("traits report failed", "session", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to build traits report"})
	}

	return c.JSON(rep)
}

func (s *Server) handleDomainDeepDive(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	domain := c.Params("domain")
	if !ontology.ValidDomain(domain) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unknown domain"})
	}

	dive, err := s.reports.DomainDeepDive(c.Context(), sessionID, domain)
	if err != nil {
		s.logger.Error("domain deep dive failed", "session", sessionID, "domain", domain, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to build deep dive"})
	}

	return c.JSON(dive)
}
