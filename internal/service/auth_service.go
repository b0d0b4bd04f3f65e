package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/repository"
	"github.com/spec-kit/portal-gateway/internal/session"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util"
)

// ClientInfo captures request metadata bound to a new session.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// TokenPair is an issued access/refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthService coordinates login, refresh, and logout flows.
type AuthService struct {
	users      repository.UserRepository
	sessions   session.Store
	counters   session.CounterStore
	tokens     *auth.TokenService
	dispatcher events.Dispatcher
	sessionTTL time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	SessionStore session.Store
	CounterStore session.CounterStore
	TokenService *auth.TokenService
	Dispatcher   events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionStore,
		counters:   deps.CounterStore,
		tokens:     deps.TokenService,
		dispatcher: deps.Dispatcher,
		sessionTTL: cfg.Session.TTL(),
		now:        time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// TokenService exposes the underlying token service for middleware usage.
func (s *AuthService) TokenService() *auth.TokenService {
	return s.tokens
}

// Login authenticates credentials, creates a session, and issues a token
// pair. Unknown emails, inactive accounts, and bad passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*domain.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, nil, apperrors.NewInvalidCredentials()
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewInvalidCredentials()
	}

	sessionID := uuid.NewString()
	refreshID := uuid.NewString()
	device := session.DetectDevice(client.UserAgent)
	now := s.now()

	grant := auth.ResolveRole(user.RoleName)
	accessToken, _, err := s.tokens.IssueAccessToken(user, grant.Permissions, sessionID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	refreshToken, _, err := s.tokens.IssueRefreshToken(user.ID, sessionID, refreshID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	if err := s.sessions.Create(ctx, &domain.Session{
		ID:             sessionID,
		UserID:         user.ID,
		DeviceType:     device,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		RefreshTokenID: refreshID,
		CreatedAt:      now,
		LastSeenAt:     now,
		ExpiresAt:      now.Add(s.sessionTTL),
	}); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	// Counter updates are best effort; the periodic sync corrects drift.
	_ = s.counters.IncrDevice(ctx, device)
	_ = s.counters.AddActiveUser(ctx, user.ID)
	_ = s.counters.InvalidateStats(ctx)

	s.publish(ctx, events.Event{
		Type:      events.EventUserLoggedIn,
		UserID:    user.ID,
		SessionID: sessionID,
		Payload:   events.LoggedInPayload{Role: user.RoleName, DeviceType: device},
	})

	return user, s.pair(accessToken, refreshToken), nil
}

// Refresh verifies a refresh token, rotates it, and issues a new pair.
// Permissions never come from the old token: the user and role are re-loaded
// so role changes and deactivations take effect here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			return nil, apperrors.NewExpiredToken()
		case errors.Is(err, auth.ErrWrongTokenType):
			return nil, apperrors.NewWrongTokenType()
		default:
			return nil, apperrors.NewInvalidToken()
		}
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, apperrors.NewInvalidToken()
		}
		return nil, apperrors.MapError(err)
	}
	if sess.Revoked {
		return nil, apperrors.NewRevokedSession()
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUserInactive()
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUserInactive()
	}

	// Rotation: the presented token's jti must still be current. A replayed
	// predecessor fails here and the whole session is treated as compromised.
	newRefreshID := uuid.NewString()
	if err := s.sessions.Rotate(ctx, sess.ID, claims.ID, newRefreshID); err != nil {
		switch {
		case errors.Is(err, session.ErrRevoked), errors.Is(err, session.ErrRefreshReplayed):
			return nil, apperrors.NewRevokedSession()
		case errors.Is(err, session.ErrNotFound):
			return nil, apperrors.NewInvalidToken()
		default:
			return nil, apperrors.MapError(err)
		}
	}

	grant := auth.ResolveRole(user.RoleName)
	accessToken, _, err := s.tokens.IssueAccessToken(user, grant.Permissions, sess.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	newRefreshToken, _, err := s.tokens.IssueRefreshToken(user.ID, sess.ID, newRefreshID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTokenRefreshed,
		UserID:    user.ID,
		SessionID: sess.ID,
		Payload:   events.TokenRefreshedPayload{Role: user.RoleName},
	})

	return s.pair(accessToken, newRefreshToken), nil
}

// Logout revokes the caller's session. Logging out an already-revoked or
// unknown session is not an error.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return apperrors.MapError(err)
	}
	alreadyRevoked := sess.Revoked

	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return apperrors.MapError(err)
	}

	if !alreadyRevoked {
		_ = s.counters.DecrDevice(ctx, sess.DeviceType)
		_ = s.counters.InvalidateStats(ctx)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserLoggedOut,
		UserID:    userID,
		SessionID: sessionID,
		Payload:   events.LoggedOutPayload{DeviceType: sess.DeviceType},
	})
	return nil
}

// LogoutAll revokes every session owned by the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	revoked, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	_ = s.counters.RemoveActiveUser(ctx, userID)
	_ = s.counters.InvalidateStats(ctx)

	s.publish(ctx, events.Event{
		Type:    events.EventSessionsRevoked,
		UserID:  userID,
		Payload: events.SessionsRevokedPayload{Count: revoked},
	})
	return revoked, nil
}

// Stats returns the session statistics read model.
func (s *AuthService) Stats(ctx context.Context) (*session.Stats, error) {
	stats, err := session.ComputeStats(ctx, s.counters)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *AuthService) pair(accessToken, refreshToken string) *TokenPair {
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
