package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-with-plenty-of-entropy", time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	return ts
}

func testUser(role domain.RoleName) *domain.User {
	inst := "inst-1"
	return &domain.User{
		ID:            "user-1",
		Name:          "Maria Silva",
		Email:         "maria@example.com",
		RoleName:      role,
		InstitutionID: &inst,
		Active:        true,
	}
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	for _, role := range domain.AllRoles() {
		user := testUser(role)
		grant := ResolveRole(role)

		token, expiresAt, err := ts.IssueAccessToken(user, grant.Permissions, "session-1")
		require.NoError(t, err)
		assert.True(t, expiresAt.After(time.Now()))

		claims, err := ts.VerifyAccess(token)
		require.NoError(t, err, "role %s", role)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, user.Email, claims.Email)
		assert.Equal(t, user.Name, claims.Name)
		assert.Equal(t, string(role), claims.Role)
		assert.Equal(t, grant.Permissions, claims.Permissions)
		assert.Equal(t, user.InstitutionID, claims.InstitutionID)
		assert.Equal(t, "session-1", claims.SessionID)
		assert.Equal(t, TokenTypeAccess, claims.TokenType)
		assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
	}
}

func TestTokenWireFormat(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, err := ts.IssueAccessToken(testUser(domain.RoleStudent), nil, "session-1")
	require.NoError(t, err)

	segments := strings.Split(token, ".")
	require.Len(t, segments, 3)

	headerJSON, err := base64.RawURLEncoding.DecodeString(segments[0])
	require.NoError(t, err)
	var header map[string]string
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "JWT", header["typ"])
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := newTestTokenService(t)
	issuedAt := time.Now().Add(-2 * time.Hour)
	ts.WithClock(func() time.Time { return issuedAt })

	token, _, err := ts.IssueAccessToken(testUser(domain.RoleTeacher), nil, "session-1")
	require.NoError(t, err)

	ts.WithClock(time.Now)
	_, err = ts.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedPayloadRejected(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, err := ts.IssueAccessToken(testUser(domain.RoleTeacher), nil, "session-1")
	require.NoError(t, err)

	segments := strings.Split(token, ".")
	require.Len(t, segments, 3)

	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	claims["role"] = string(domain.RoleSystemAdmin)
	forged, err := json.Marshal(claims)
	require.NoError(t, err)

	tampered := segments[0] + "." + base64.RawURLEncoding.EncodeToString(forged) + "." + segments[2]
	_, err = ts.VerifyAccess(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestGarbageTokenRejected(t *testing.T) {
	ts := newTestTokenService(t)

	_, err := ts.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestWrongSecretRejected(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-different-secret-entirely", time.Hour, time.Hour)
	require.NoError(t, err)

	token, _, err := ts.IssueAccessToken(testUser(domain.RoleStudent), nil, "session-1")
	require.NoError(t, err)

	_, err = other.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenTypeEnforced(t *testing.T) {
	ts := newTestTokenService(t)
	user := testUser(domain.RoleStudent)

	access, _, err := ts.IssueAccessToken(user, nil, "session-1")
	require.NoError(t, err)
	refresh, _, err := ts.IssueRefreshToken(user.ID, "session-1", "jti-1")
	require.NoError(t, err)

	_, err = ts.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = ts.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestRefreshTokenCarriesNoPermissions(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, err := ts.IssueRefreshToken("user-1", "session-1", "jti-1")
	require.NoError(t, err)

	claims, err := ts.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "jti-1", claims.ID)

	segments := strings.Split(token, ".")
	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "permissions")
}
