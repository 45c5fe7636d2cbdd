package breaker

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	StrategyConsecutive = "consecutive_failures"
	StrategyErrorRate   = "error_rate"
)

// Config 熔断器配置
type Config struct {
	// Enabled false 时 Execute 直接透传
	Enabled bool `mapstructure:"enabled"`

	// Strategy consecutive_failures 或 error_rate
	Strategy string `mapstructure:"strategy"`

	// ConsecutiveFailures 连续失败次数阈值（consecutive_failures）
	ConsecutiveFailures int `mapstructure:"consecutive_failures"`

	// MinRequests / ErrorRateThreshold 窗口内的最小请求数与错误率阈值（error_rate）
	MinRequests        int     `mapstructure:"min_requests"`
	ErrorRateThreshold float64 `mapstructure:"error_rate_threshold"`

	// WindowSize 滑动窗口长度，BucketSize 时间桶粒度
	WindowSize time.Duration `mapstructure:"window_size"`
	BucketSize time.Duration `mapstructure:"bucket_size"`

	// Timeout Open 状态持续时间，到期后进入 HalfOpen
	Timeout time.Duration `mapstructure:"timeout"`

	// HalfOpenRequests 半开状态放行的探测请求数，全部成功才闭合
	HalfOpenRequests int `mapstructure:"half_open_requests"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		Strategy:            StrategyConsecutive,
		ConsecutiveFailures: 5,
		MinRequests:         20,
		ErrorRateThreshold:  0.5,
		WindowSize:          10 * time.Second,
		BucketSize:          time.Second,
		Timeout:             5 * time.Second,
		HalfOpenRequests:    1,
	}
}

func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if c.MinRequests == 0 {
		c.MinRequests = def.MinRequests
	}
	if c.ErrorRateThreshold == 0 {
		c.ErrorRateThreshold = def.ErrorRateThreshold
	}
	if c.WindowSize == 0 {
		c.WindowSize = def.WindowSize
	}
	if c.BucketSize == 0 {
		c.BucketSize = def.BucketSize
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = def.HalfOpenRequests
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Strategy, validation.In(StrategyConsecutive, StrategyErrorRate)),
		validation.Field(&c.ConsecutiveFailures, validation.Min(1)),
		validation.Field(&c.MinRequests, validation.Min(1)),
		validation.Field(&c.ErrorRateThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.WindowSize, validation.Min(c.BucketSize)),
		validation.Field(&c.BucketSize, validation.Min(time.Millisecond)),
		validation.Field(&c.Timeout, validation.Min(time.Millisecond)),
		validation.Field(&c.HalfOpenRequests, validation.Min(1)),
	)
}
