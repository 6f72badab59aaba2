package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		Env:        "production",
		Port:       "3000",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		DBDriver:   "postgres",
		DBPassword: "secure-password",
		DBSSLMode:  "require",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid production", func(*Config) {}, false},
		{"production with default secret", func(c *Config) { c.JWTSecret = DefaultJWTSecret }, true},
		{"production with short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"production with weak db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"production with ssl disabled", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"production with empty ssl mode", func(c *Config) { c.DBSSLMode = "" }, true},
		{"production on sqlite", func(c *Config) { c.DBDriver = "sqlite" }, true},
		{"prod alias with verify-full", func(c *Config) { c.Env = "prod"; c.DBSSLMode = "verify-full" }, false},
		{"development with defaults", func(c *Config) {
			c.Env = "development"
			c.JWTSecret = DefaultJWTSecret
			c.DBSSLMode = "disable"
		}, false},
		{"unknown driver", func(c *Config) { c.Env = "development"; c.DBDriver = "mongo" }, true},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.Env = "development"; c.JWTSecret = "" }, true},
		{"negative upload size", func(c *Config) { c.UploadMaxSizeMB = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
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

func TestConfig_RemoteStorageEnabled(t *testing.T) {
	c := &Config{}
	assert.False(t, c.RemoteStorageEnabled())

	c.S3Bucket = "screenshots"
	assert.True(t, c.RemoteStorageEnabled())

	c.UseLocalUpload = true
	assert.False(t, c.RemoteStorageEnabled())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("S3_KEY_PREFIX", "/shots/")
	t.Setenv("USE_LOCAL_UPLOAD", "true")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "shots", c.S3KeyPrefix)
	assert.True(t, c.UseLocalUpload)
	assert.Equal(t, 10, c.UploadMaxSizeMB)
	assert.Equal(t, "./public/uploads", c.UploadDir)
	assert.False(t, c.IsProduction())
}
