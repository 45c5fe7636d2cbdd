package session

import (
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/blacklist"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config token lifetimes, refresh bounds and local blacklist sizing
type Config struct {
	AccessTTL  time.Duration `mapstructure:"access_ttl"`  // default 1h
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"` // default 7 days

	// MaxRefreshUsage successful exchanges allowed per refresh token
	MaxRefreshUsage int `mapstructure:"max_refresh_usage"`

	// ChainLimit rotations may only produce refresh tokens with depth < ChainLimit
	ChainLimit int `mapstructure:"chain_limit"`

	AccessBlacklist  blacklist.Config `mapstructure:"access_blacklist"`
	RefreshBlacklist blacklist.Config `mapstructure:"refresh_blacklist"`
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{
		AccessTTL:        time.Hour,
		RefreshTTL:       7 * 24 * time.Hour,
		MaxRefreshUsage:  10,
		ChainLimit:       3,
		AccessBlacklist:  blacklist.DefaultAccessConfig(),
		RefreshBlacklist: blacklist.DefaultRefreshConfig(),
	}
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.AccessTTL == 0 {
		c.AccessTTL = def.AccessTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = def.RefreshTTL
	}
	if c.MaxRefreshUsage == 0 {
		c.MaxRefreshUsage = def.MaxRefreshUsage
	}
	if c.ChainLimit == 0 {
		c.ChainLimit = def.ChainLimit
	}
	c.AccessBlacklist.ApplyDefaults(def.AccessBlacklist)
	c.RefreshBlacklist.ApplyDefaults(def.RefreshBlacklist)
}

// Validate 验证配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AccessTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RefreshTTL, validation.Required, validation.Min(time.Second),
			validation.By(func(any) error {
				if c.RefreshTTL < c.AccessTTL {
					return errors.New("must not be shorter than access_ttl")
				}
				return nil
			})),
		validation.Field(&c.MaxRefreshUsage, validation.Required, validation.Min(1)),
		validation.Field(&c.ChainLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.AccessBlacklist),
		validation.Field(&c.RefreshBlacklist),
	)
}
