package httpx

// ErrorLoggingConfig controls which business errors HandleError logs
type ErrorLoggingConfig struct {
	Enable bool `mapstructure:"enable"`

	// IgnoreHTTPStatus e.g. [401, 404] keeps expected refusals out of the logs
	IgnoreHTTPStatus []int `mapstructure:"ignore_http_status"`

	FullErrorChain bool   `mapstructure:"full_error_chain"`
	LogLevel       string `mapstructure:"log_level"` // error, warn, info
}

// DefaultErrorLoggingConfig logs everything but auth refusals at warn
func DefaultErrorLoggingConfig() ErrorLoggingConfig {
	return ErrorLoggingConfig{
		Enable:           true,
		IgnoreHTTPStatus: []int{401},
		FullErrorChain:   true,
		LogLevel:         "warn",
	}
}
