package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, 12, cfg.Password.BcryptCost)
	assert.Equal(t, 8, cfg.Password.Policy.MinLength)
	assert.Equal(t, 72, cfg.Password.Policy.MaxLength)
	assert.Equal(t, 5, cfg.LoginAttempt.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.LoginAttempt.LockoutDuration)
	assert.Equal(t, "auth:login-attempt:", cfg.LoginAttempt.KeyPrefix)
	assert.NoError(t, cfg.Validate())

	kept := Config{Password: PasswordConfig{BcryptCost: 10, Policy: PasswordPolicy{MinLength: 12, MaxLength: 64}}}
	kept.ApplyDefaults()
	assert.Equal(t, 10, kept.Password.BcryptCost)
	assert.Equal(t, 12, kept.Password.Policy.MinLength)
	assert.Equal(t, 64, kept.Password.Policy.MaxLength)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bcrypt cost too low", func(c *Config) { c.Password.BcryptCost = 2 }, true},
		{"min above max", func(c *Config) { c.Password.Policy.MinLength = 80 }, true},
		{"max beyond bcrypt", func(c *Config) { c.Password.Policy.MaxLength = 128 }, true},
		{"lockout without attempts", func(c *Config) { c.LoginAttempt.MaxAttempts = -1 }, true},
		{"disabled lockout skips checks", func(c *Config) {
			c.LoginAttempt.Enabled = false
			c.LoginAttempt.MaxAttempts = -1
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestRedisLoginAttemptStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisLoginAttemptStore(client, "attempt:")
	ctx := context.Background()

	n, err := store.GetAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, store.IncrementAttempts(ctx, "alice", time.Minute))
	require.NoError(t, store.IncrementAttempts(ctx, "alice", time.Minute))
	n, err = store.GetAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Minute, mr.TTL("attempt:alice"))

	require.NoError(t, store.ResetAttempts(ctx, "alice"))
	n, err = store.GetAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, store.IncrementAttempts(ctx, "bob", time.Minute))
	mr.FastForward(time.Minute)
	n, err = store.GetAttempts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
