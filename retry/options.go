package retry

import "time"

type config struct {
	maxAttempts int
	backoff     BackoffStrategy
	retryIf     func(err error) bool
	onRetry     func(attempt int, err error, delay time.Duration)
}

func defaultConfig() *config {
	return &config{
		maxAttempts: 3,
		backoff:     ExponentialBackoff(100 * time.Millisecond),
		retryIf:     func(error) bool { return true },
	}
}

// Option 配置选项函数
type Option func(*config)

// MaxAttempts total tries including the first one; values below 1 are ignored
func MaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func Backoff(b BackoffStrategy) Option {
	return func(c *config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// RetryIf stops retrying as soon as fn returns false
func RetryIf(fn func(err error) bool) Option {
	return func(c *config) {
		if fn != nil {
			c.retryIf = fn
		}
	}
}

// OnRetry is called before each wait, e.g. to log the failed attempt
func OnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}
