package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// Token type discriminators embedded in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Verification errors. The gate maps these onto the HTTP taxonomy.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
	ErrWrongTokenType   = errors.New("wrong token type")
	ErrMissingSecret    = errors.New("token secret not configured")
)

// AccessClaims is the payload of an access token. Permissions are resolved at
// issuance for client-side display only; the gate re-resolves them from the
// current role on every request.
type AccessClaims struct {
	UserID        string   `json:"userId"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
	InstitutionID *string  `json:"institutionId"`
	SessionID     string   `json:"sessionId"`
	TokenType     string   `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. It carries identity only;
// permissions are re-resolved from current role state at refresh time.
type RefreshClaims struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed access and refresh tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a service. An empty secret is a configuration error:
// callers must treat it as fatal at startup, not at request time.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the time source, used by tests to control expiry.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	ts.now = now
	return ts
}

// AccessTTL reports the configured access token lifetime.
func (ts *TokenService) AccessTTL() time.Duration {
	return ts.accessTTL
}

// IssueAccessToken signs an access token for the user with freshly resolved
// permissions, bound to the given session.
func (ts *TokenService) IssueAccessToken(user *domain.User, permissions []string, sessionID string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.accessTTL)
	claims := &AccessClaims{
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          string(user.RoleName),
		Permissions:   permissions,
		InstitutionID: user.InstitutionID,
		SessionID:     sessionID,
		TokenType:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken signs a refresh token bound to the session. The jti
// identifies this particular token so rotation can invalidate its predecessor.
func (ts *TokenService) IssueRefreshToken(userID, sessionID, tokenID string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.refreshTTL)
	claims := &RefreshClaims{
		UserID:    userID,
		SessionID: sessionID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccess decodes and validates an access token.
func (ts *TokenService) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// VerifyRefresh decodes and validates a refresh token.
func (ts *TokenService) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (ts *TokenService) verify(tokenStr string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrMalformedToken
		}
		return ts.secret, nil
	}, jwt.WithTimeFunc(ts.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrMalformedToken
		default:
			return ErrMalformedToken
		}
	}
	if !parsed.Valid {
		return ErrInvalidSignature
	}
	return nil
}
