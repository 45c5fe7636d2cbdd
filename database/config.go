// Package database opens the accounts database through gorm
package database

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config database configuration
type Config struct {
	Driver          string        `mapstructure:"driver"` // mysql, postgres, sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	EnableAudit     bool          `mapstructure:"enable_audit"` // log every statement at debug

	// OpenTelemetry tracing
	EnableTracing  bool `mapstructure:"enable_tracing"`
	TraceSQL       bool `mapstructure:"trace_sql"` // put statements on spans
	TraceSQLMaxLen int  `mapstructure:"trace_sql_max_len"`
}

// DefaultConfig a local sqlite file
func DefaultConfig() Config {
	return Config{
		Driver:          "sqlite",
		DSN:             "tokenauth.db",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		SlowThreshold:   200 * time.Millisecond,
		TraceSQLMaxLen:  1000,
	}
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Driver == "" {
		c.Driver = def.Driver
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = def.MaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = min(def.MaxIdleConns, c.MaxOpenConns)
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = def.SlowThreshold
	}
	if c.TraceSQLMaxLen <= 0 {
		c.TraceSQLMaxLen = def.TraceSQLMaxLen
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("mysql", "postgres", "sqlite")),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(1)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
	)
}
