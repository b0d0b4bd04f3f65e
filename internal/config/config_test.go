package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFailsWithoutJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "configured-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "configured-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 168, cfg.Auth.RefreshTokenTTLHours)
	assert.Equal(t, 30, cfg.Auth.UserLookupTimeoutSeconds)
	assert.Equal(t, 1000, cfg.Dedup.TTLMillis)
	assert.Equal(t, 5000, cfg.Dedup.SweepIntervalMillis)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "configured-secret")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("DEDUP_TTL_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 250, cfg.Dedup.TTLMillis)
}
