package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/service"
)

// SessionsHandler exposes session statistics to administrators.
type SessionsHandler struct {
	auth *service.AuthService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(authService *service.AuthService) *SessionsHandler {
	return &SessionsHandler{auth: authService}
}

// Stats handles GET /sessions/stats.
func (h *SessionsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.auth.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}
