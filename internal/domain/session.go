package domain

import "time"

// DeviceType classifies the client device bound to a session.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
	DeviceUnknown DeviceType = "unknown"
)

// Session is the server-side record backing an access/refresh token pair.
// RefreshTokenID holds the jti of the refresh token most recently issued for
// the session; rotation replaces it, which is what invalidates replayed tokens.
type Session struct {
	ID             string
	UserID         string
	DeviceType     DeviceType
	IPAddress      string
	UserAgent      string
	RefreshTokenID string
	Revoked        bool
	CreatedAt      time.Time
	LastSeenAt     time.Time
	ExpiresAt      time.Time
}
