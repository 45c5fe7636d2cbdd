package blacklist

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config capacity and write TTL for one cache
type Config struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DefaultAccessConfig 10,000 entries for 24h
func DefaultAccessConfig() Config {
	return Config{Capacity: 10000, TTL: 24 * time.Hour}
}

// DefaultRefreshConfig 5,000 entries for 7 days
func DefaultRefreshConfig() Config {
	return Config{Capacity: 5000, TTL: 7 * 24 * time.Hour}
}

// ApplyDefaults fills zero fields from def
func (c *Config) ApplyDefaults(def Config) {
	if c.Capacity == 0 {
		c.Capacity = def.Capacity
	}
	if c.TTL == 0 {
		c.TTL = def.TTL
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
	)
}

// NewFromConfig builds a cache from validated config
func NewFromConfig(c Config) *Cache {
	return New(c.Capacity, c.TTL)
}
