// Package retry runs an operation until it succeeds, the attempts run out,
// or the context ends. Used for startup connectivity checks.
package retry

import (
	"context"
	"time"
)

// Do retries operation according to opts
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	_, err := DoWithData(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	}, opts...)
	return err
}

// DoWithData returns the first successful result.
// Failures are collected into a *MultiError; context errors are returned as is.
func DoWithData[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		zero T
		errs []error
	)
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)

		if attempt == cfg.maxAttempts || !cfg.retryIf(err) {
			return zero, &MultiError{Errors: errs, Attempts: attempt}
		}

		delay := cfg.backoff.Next(attempt)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			// 剩余时间不够再等一轮
			return zero, &MultiError{Errors: append(errs, context.DeadlineExceeded), Attempts: attempt}
		}

		if cfg.onRetry != nil {
			cfg.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}
	return zero, &MultiError{Errors: errs, Attempts: cfg.maxAttempts}
}
