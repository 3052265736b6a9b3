package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                  "4000",
		Env:                   "development",
		JWTSecret:             "a-very-long-secret-that-is-over-32-chars",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLHours:  168,
		DBDriver:              "postgres",
		DBPassword:            "a-strong-password",
		DBSSLMode:             "require",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTLMinutes = 0 }, true},
		{"zero refresh ttl", func(c *Config) { c.RefreshTokenTTLHours = 0 }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite in development", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"production valid", func(c *Config) { c.Env = "production" }, false},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"production weak db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"production ssl disabled", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "disable"
		}, true},
		{"production sqlite", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
		}, true},
		{"test env with ssl disabled", func(c *Config) {
			c.Env = "test"
			c.DBSSLMode = "disable"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "30")
	t.Setenv("FEATURE_FLAGS", "admin_content_override=on")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, 30*time.Minute, c.AccessTokenTTL())
	assert.Equal(t, 168*time.Hour, c.RefreshTokenTTL())
	assert.Equal(t, "admin_content_override=on", c.FeatureFlags)
	assert.NotEmpty(t, c.JWTRefreshSecret, "refresh secret is derived when unset")
}
