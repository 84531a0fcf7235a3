package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPServer.Port)
	assert.Equal(t, 6, cfg.OTP.Length)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, 3, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.WindowDuration)
	assert.Equal(t, 30*time.Second, cfg.Discount.CacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "9090")
	t.Setenv("OTP_MAX_ATTEMPTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW_DURATION", "1m")
	t.Setenv("SWAGGER_ENABLED", "false")
	t.Setenv("ADMIN_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPServer.Port)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.WindowDuration)
	assert.False(t, cfg.Swagger.Enabled)
	assert.Equal(t, "secret", cfg.Admin.APIKey)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "not-a-port")
	t.Setenv("OTP_EXPIRATION_TIME", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPServer.Port)
	assert.Equal(t, 5*time.Minute, cfg.OTP.ExpirationTime)
}

func TestLoad_LegacyAppPort(t *testing.T) {
	t.Setenv("APP_PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.HTTPServer.Port)
}
