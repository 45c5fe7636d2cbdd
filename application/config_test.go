package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Layers(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":7000"
  mode: debug
session:
  access_ttl: 30m
  max_refresh_usage: 4
jwt:
  issuer: file-issuer
`)
	t.Setenv("TOKENAUTH_JWT_SECRET", testSecret)
	t.Setenv("TOKENAUTH_SESSION_CHAIN_LIMIT", "5")
	t.Setenv("TOKENAUTH_HTTP_MODE", "test")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr", "127.0.0.1:9999"}))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)

	// flag > env > file > defaults
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	assert.Equal(t, "test", cfg.HTTP.Mode)
	assert.Equal(t, testSecret, cfg.JWT.Secret)
	assert.Equal(t, "file-issuer", cfg.JWT.Issuer)
	assert.Equal(t, 30*time.Minute, cfg.Session.AccessTTL)
	assert.Equal(t, 4, cfg.Session.MaxRefreshUsage)
	assert.Equal(t, 5, cfg.Session.ChainLimit)

	assert.Equal(t, 7*24*time.Hour, cfg.Session.RefreshTTL)
	assert.Equal(t, time.Hour, cfg.Sweeper.Interval)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "tokenauthd", cfg.Logger.AppName)
	assert.Equal(t, []string{"/healthz", "/livez"}, cfg.HTTP.RequestLog.SkipPaths)
	assert.Equal(t, 10000, cfg.Session.AccessBlacklist.Capacity)
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("TOKENAUTH_JWT_SECRET", testSecret)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.Session.MaxRefreshUsage)
	assert.Equal(t, 3, cfg.Session.ChainLimit)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, 5, cfg.Breaker.ConsecutiveFailures)
	assert.False(t, cfg.Swagger.Enabled)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt")
}

func TestAppConfig_Validate(t *testing.T) {
	valid := func() AppConfig {
		var c AppConfig
		c.JWT.Secret = testSecret
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		section string
	}{
		{"ok", func(*AppConfig) {}, ""},
		{"bad http mode", func(c *AppConfig) { c.HTTP.Mode = "prod" }, "http"},
		{"short secret", func(c *AppConfig) { c.JWT.Secret = "short" }, "jwt"},
		{"refresh shorter than access", func(c *AppConfig) { c.Session.RefreshTTL = time.Minute }, "session"},
		{"bad driver", func(c *AppConfig) { c.Database.Driver = "oracle" }, "database"},
		{"bad breaker strategy", func(c *AppConfig) { c.Breaker.Strategy = "adaptive" }, "breaker"},
		{"swagger ui path", func(c *AppConfig) { c.Swagger.Enabled = true; c.Swagger.UIPath = "/docs" }, "swagger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.section == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.section+":")
		})
	}
}

func TestLoadConfig_SampleFile(t *testing.T) {
	t.Setenv("TOKENAUTH_JWT_SECRET", testSecret)

	cfg, err := LoadConfig(filepath.Join("..", "configs", "config.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "tokenauth:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 168*time.Hour, cfg.Session.RefreshTTL)
	assert.Equal(t, "otlp", cfg.Telemetry.Exporter.Type)
	assert.False(t, cfg.Swagger.Enabled)
}
