package database

import (
	"context"
	"fmt"
)

// HealthChecker 数据库健康检查器
type HealthChecker struct {
	db *DB
}

func NewHealthChecker(db *DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// Name 检查项名称
func (h *HealthChecker) Name() string {
	return "database"
}

// Check pings the pool
func (h *HealthChecker) Check(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := h.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
