package events

import (
	"time"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserLoggedIn    EventType = "user_logged_in"
	EventUserLoggedOut   EventType = "user_logged_out"
	EventTokenRefreshed  EventType = "token_refreshed"
	EventSessionsRevoked EventType = "sessions_revoked"
)

// Event represents an auth domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	SessionID string      `json:"session_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoggedInPayload payload.
type LoggedInPayload struct {
	Role       domain.RoleName   `json:"role"`
	DeviceType domain.DeviceType `json:"device_type"`
}

// LoggedOutPayload payload.
type LoggedOutPayload struct {
	DeviceType domain.DeviceType `json:"device_type"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	Role domain.RoleName `json:"role"`
}

// SessionsRevokedPayload payload.
type SessionsRevokedPayload struct {
	Count int `json:"count"`
}
