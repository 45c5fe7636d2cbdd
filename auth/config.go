package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 认证配置
type Config struct {
	Password     PasswordConfig     `mapstructure:"password"`
	LoginAttempt LoginAttemptConfig `mapstructure:"login_attempt"`
}

// PasswordConfig 密码配置
type PasswordConfig struct {
	Policy     PasswordPolicy `mapstructure:"policy"`
	BcryptCost int            `mapstructure:"bcrypt_cost"` // 4-31，推荐 12
}

// PasswordPolicy 密码策略
type PasswordPolicy struct {
	MinLength          int  `mapstructure:"min_length"`
	MaxLength          int  `mapstructure:"max_length"` // bcrypt reads at most 72 bytes
	RequireUppercase   bool `mapstructure:"require_uppercase"`
	RequireLowercase   bool `mapstructure:"require_lowercase"`
	RequireDigit       bool `mapstructure:"require_digit"`
	RequireSpecialChar bool `mapstructure:"require_special_char"`

	// 弱密码黑名单（子串匹配，忽略大小写）
	Blacklist []string `mapstructure:"blacklist"`
}

// LoginAttemptConfig 登录尝试限制配置
type LoginAttemptConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	LockoutDuration time.Duration `mapstructure:"lockout_duration"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
}

// DefaultConfig returns the default auth configuration
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Policy:     PasswordPolicy{MinLength: 8, MaxLength: 72},
			BcryptCost: 12,
		},
		LoginAttempt: LoginAttemptConfig{
			Enabled:         true,
			MaxAttempts:     5,
			LockoutDuration: 30 * time.Minute,
			KeyPrefix:       "auth:login-attempt:",
		},
	}
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()

	if c.Password.BcryptCost == 0 {
		c.Password.BcryptCost = def.Password.BcryptCost
	}
	if c.Password.Policy.MinLength == 0 {
		c.Password.Policy.MinLength = def.Password.Policy.MinLength
	}
	if c.Password.Policy.MaxLength == 0 {
		c.Password.Policy.MaxLength = def.Password.Policy.MaxLength
	}

	if c.LoginAttempt.MaxAttempts == 0 {
		c.LoginAttempt.MaxAttempts = def.LoginAttempt.MaxAttempts
	}
	if c.LoginAttempt.LockoutDuration == 0 {
		c.LoginAttempt.LockoutDuration = def.LoginAttempt.LockoutDuration
	}
	if c.LoginAttempt.KeyPrefix == "" {
		c.LoginAttempt.KeyPrefix = def.LoginAttempt.KeyPrefix
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Password),
		validation.Field(&c.LoginAttempt),
	)
}

func (c PasswordConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BcryptCost, validation.Min(4), validation.Max(31)),
		validation.Field(&c.Policy),
	)
}

func (p PasswordPolicy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MinLength, validation.Required, validation.Min(1)),
		validation.Field(&p.MaxLength, validation.Required, validation.Min(p.MinLength), validation.Max(72)),
	)
}

func (c LoginAttemptConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.LockoutDuration, validation.Required, validation.Min(time.Second)),
	)
}
