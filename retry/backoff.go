package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy delay before the retry following attempt (attempt starts at 1)
type BackoffStrategy interface {
	Next(attempt int) time.Duration
}

type BackoffOption func(*exponentialBackoff)

// WithMultiplier 指数倍数（默认 2.0）
func WithMultiplier(m float64) BackoffOption {
	return func(b *exponentialBackoff) {
		if m > 0 {
			b.multiplier = m
		}
	}
}

// WithMaxDelay 最大延迟（默认 5s）
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *exponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithJitter 抖动比例 0.0 - 1.0（默认 0.2）
func WithJitter(ratio float64) BackoffOption {
	return func(b *exponentialBackoff) {
		if ratio >= 0 && ratio <= 1 {
			b.jitter = ratio
		}
	}
}

type exponentialBackoff struct {
	base       time.Duration
	multiplier float64
	maxDelay   time.Duration
	jitter     float64
}

// ExponentialBackoff delay = base * multiplier^(attempt-1), capped at maxDelay, then ±jitter
func ExponentialBackoff(base time.Duration, opts ...BackoffOption) BackoffStrategy {
	b := &exponentialBackoff{
		base:       base,
		multiplier: 2.0,
		maxDelay:   5 * time.Second,
		jitter:     0.2,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *exponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(b.base) * math.Pow(b.multiplier, float64(attempt-1))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}
	if b.jitter > 0 {
		delay += delay * b.jitter * (2*rand.Float64() - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

type constantBackoff time.Duration

// ConstantBackoff 固定延迟
func ConstantBackoff(d time.Duration) BackoffStrategy {
	return constantBackoff(d)
}

func (b constantBackoff) Next(int) time.Duration {
	return time.Duration(b)
}
