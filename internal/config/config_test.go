package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDevelopmentDefaults(t *testing.T) {
	unsetEnv(t, "JWT_SECRET", "DELIVERY_TOKEN_SECRET", "DELIVERY_TOKEN_TTL", "AUTH_RESOLVER_TIMEOUT")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("JWT_REFRESH_EXPIRATION", "7d")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultJWTSecret, cfg.JWT.Secret)
	assert.Equal(t, DefaultDeliverySecret, cfg.Delivery.TokenSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, time.Hour, cfg.Delivery.TokenTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	unsetEnv(t, "JWT_SECRET", "DELIVERY_TOKEN_SECRET")
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSecret))
}

func TestLoadProductionRejectsDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", DefaultJWTSecret)
	t.Setenv("DELIVERY_TOKEN_SECRET", "prod-delivery")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDefaultSecret))
}

func TestLoadProductionWithSecrets(t *testing.T) {
	unsetEnv(t, "JWT_EXPIRATION", "JWT_REFRESH_EXPIRATION", "DELIVERY_TOKEN_TTL", "AUTH_RESOLVER_TIMEOUT")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "prod-access")
	t.Setenv("DELIVERY_TOKEN_SECRET", "prod-delivery")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"shared secret", func(c *Config) { c.Delivery.TokenSecret = c.JWT.Secret }, ErrSharedSecret},
		{"empty delivery secret", func(c *Config) { c.Delivery.TokenSecret = "" }, ErrMissingSecret},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }, ErrInvalidTTL},
		{"refresh shorter than access", func(c *Config) { c.JWT.RefreshTTL = time.Minute }, ErrRefreshTTLTooLow},
		{"zero resolver timeout", func(c *Config) { c.Auth.ResolverTimeout = 0 }, ErrInvalidResolverTO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("3d")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)

	d, err = ParseDuration("45m")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}

func TestLoadRejectsUnparseableDuration(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DELIVERY_TOKEN_TTL", "1 hour")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Contains(t, err.Error(), "DELIVERY_TOKEN_TTL")
}
