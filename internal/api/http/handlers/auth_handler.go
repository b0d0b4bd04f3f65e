package handlers

import (
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/dto"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/service"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util"
)

// AuthHandler exposes the auth gateway endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required")
	}

	client := service.ClientInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	user, pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password, client)
	if err != nil {
		return err
	}

	grant := auth.ResolveRole(user.RoleName)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
			"expiresIn":    pair.ExpiresIn,
			"user": dto.UserResponse{
				ID:            user.ID,
				Name:          user.Name,
				Email:         user.Email,
				Role:          string(user.RoleName),
				Permissions:   grant.Permissions,
				InstitutionID: user.InstitutionID,
			},
		},
	})
}

// Refresh handles POST /auth/refresh_token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refreshToken required")
	}

	pair, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.TokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresIn:    pair.ExpiresIn,
		},
	})
}

// Logout handles POST /auth/logout. Idempotent: logging out twice responds
// 200 both times.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	if err := h.auth.Logout(c.UserContext(), principal.UserID, principal.SessionID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

// LogoutAll handles POST /auth/logout_all.
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	revoked, err := h.auth.LogoutAll(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"sessionsRevoked": revoked},
	})
}

// Validate handles GET /auth/validate. Reaching it at all means the gate
// accepted the request.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"valid": true,
			"user":  principalResponse(principal),
		},
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"user": principalResponse(principal)},
	})
}

func principalResponse(p *auth.Principal) dto.UserResponse {
	perms := make([]string, 0, len(p.Permissions))
	for perm := range p.Permissions {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return dto.UserResponse{
		ID:            p.UserID,
		Name:          p.Name,
		Email:         p.Email,
		Role:          string(p.Role),
		Permissions:   perms,
		InstitutionID: p.InstitutionID,
	}
}
