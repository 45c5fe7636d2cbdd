package health

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 健康检查配置
type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"` // bound for the whole probe round
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Timeout: 3 * time.Second,
	}
}

func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultConfig().Timeout
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(100*time.Millisecond)),
	)
}
