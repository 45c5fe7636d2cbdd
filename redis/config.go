package redis

import (
	"fmt"
	"time"
)

// Config standalone Redis connection settings
type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"` // 0-15

	PoolSize     int `mapstructure:"pool_size"`      // default 10
	MinIdleConns int `mapstructure:"min_idle_conns"` // default 2
	MaxRetries   int `mapstructure:"max_retries"`    // default 3

	DialTimeout  time.Duration `mapstructure:"dial_timeout"`  // default 5s
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // default 3s
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // default 3s

	// OperationTimeout bounds every revocation-store call; default 500ms
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`

	// ConnectAttempts startup pings before giving up; default 3
	ConnectAttempts int `mapstructure:"connect_attempts"`

	// KeyPrefix namespaces every key written by this service
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ApplyDefaults fills zero-valued fields
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:6379"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = 500 * time.Millisecond
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 3
	}
}

// Validate configuration
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if c.DB < 0 || c.DB > 15 {
		return fmt.Errorf("db must be between 0 and 15, got: %d", c.DB)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must be >= 0, got: %d", c.PoolSize)
	}
	if c.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns must be >= 0, got: %d", c.MinIdleConns)
	}
	if c.OperationTimeout < 0 {
		return fmt.Errorf("operation_timeout must be >= 0, got: %s", c.OperationTimeout)
	}
	return nil
}
