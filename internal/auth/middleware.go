package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-gateway/internal/domain"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the authenticated identity attached to a request. It is built
// per-request from verified claims plus fresh user/role data and never
// persisted.
type Principal struct {
	UserID        string
	Email         string
	Name          string
	Role          domain.RoleName
	Permissions   map[string]struct{}
	IsAdmin       bool
	InstitutionID *string
	SessionID     string
	TokenType     string
}

// UserFinder is the credential store surface the gate depends on.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Gate validates bearer tokens, loads the caller, and attaches a Principal to
// the request context.
type Gate struct {
	tokens        *TokenService
	users         UserFinder
	lookupTimeout time.Duration
}

// NewGate constructs the gate middleware.
func NewGate(tokens *TokenService, users UserFinder, lookupTimeout time.Duration) *Gate {
	if lookupTimeout <= 0 {
		lookupTimeout = 30 * time.Second
	}
	return &Gate{tokens: tokens, users: users, lookupTimeout: lookupTimeout}
}

// Handle enforces authentication for protected routes. Token and claim
// failures are converted to structured 401/403 responses here; nothing
// propagates to business handlers.
func (g *Gate) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewMissingToken()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewMissingToken()
	}

	claims, err := g.tokens.VerifyAccess(parts[1])
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			return apperrors.NewExpiredToken()
		case errors.Is(err, ErrWrongTokenType):
			return apperrors.NewWrongTokenType()
		case errors.Is(err, ErrMalformedToken):
			return apperrors.NewMalformedToken()
		default:
			return apperrors.NewInvalidToken()
		}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), g.lookupTimeout)
	defer cancel()

	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUserInactive()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewUpstreamTimeout()
		}
		return apperrors.MapError(err)
	}
	if !user.Active {
		return apperrors.NewUserInactive()
	}

	// Permissions come from the user's current role, not from the token
	// payload, so role changes take effect before the token expires.
	grant := ResolveRole(user.RoleName)
	perms := make(map[string]struct{}, len(grant.Permissions))
	for _, p := range grant.Permissions {
		perms[p] = struct{}{}
	}

	c.Locals(principalKey, &Principal{
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.RoleName,
		Permissions:   perms,
		IsAdmin:       grant.IsAdmin,
		InstitutionID: user.InstitutionID,
		SessionID:     claims.SessionID,
		TokenType:     claims.TokenType,
	})
	return c.Next()
}

// RequirePermission guards a route with a declared permission. It runs after
// Handle and assumes a principal is present.
func RequirePermission(required string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewMissingToken()
		}
		if !HasPermission(principal, required) {
			return apperrors.NewInsufficientPermission()
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
