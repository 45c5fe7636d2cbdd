package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// HealthChecker pings the revocation store
type HealthChecker struct {
	client redis.UniversalClient
}

func NewHealthChecker(client redis.UniversalClient) *HealthChecker {
	return &HealthChecker{client: client}
}

func (h *HealthChecker) Name() string {
	return "redis"
}

func (h *HealthChecker) Check(ctx context.Context) error {
	if h.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
