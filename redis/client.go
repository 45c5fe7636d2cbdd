package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/retry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient builds a client and pings it, retrying up to cfg.ConnectAttempts times.
// metrics may be nil; when set, a command hook is installed.
func NewClient(ctx context.Context, cfg Config, metrics *Metrics, log *logger.CtxZapLogger) (*redis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if metrics != nil {
		client.AddHook(NewMetricsHook(metrics, cfg.Addr))
	}

	err := retry.Do(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	},
		retry.MaxAttempts(cfg.ConnectAttempts),
		retry.Backoff(retry.ExponentialBackoff(200*time.Millisecond, retry.WithMaxDelay(2*time.Second))),
		retry.OnRetry(func(attempt int, err error, delay time.Duration) {
			log.WarnCtx(ctx, "Redis ping failed, retrying",
				zap.String("addr", cfg.Addr),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		}),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s failed: %w", cfg.Addr, err)
	}

	log.DebugCtx(ctx, "Redis connection successful",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB))

	return client, nil
}
