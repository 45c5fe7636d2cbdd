// Package testutil builds the throwaway infrastructure tests need:
// in-memory sqlite, miniredis and a session manager on top of them.
package testutil

import (
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/database"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/revocation"
	"github.com/KOMKZ/go-yogan-tokenauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TestSecret 32 字节 HMAC 密钥
const TestSecret = "0123456789abcdef0123456789abcdef"

// SetupTestDB 内存 sqlite，迁移 models，测试结束自动关闭
//
//	db := testutil.SetupTestDB(t, &auth.User{})
func SetupTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	// 单连接，否则每个连接各有一份内存库
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("创建数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if len(models) > 0 {
		if err := db.Gorm().AutoMigrate(models...); err != nil {
			t.Fatalf("迁移表结构失败: %v", err)
		}
	}
	return db.Gorm()
}

// NewRedis miniredis 和连到它的 client
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// NewSessionManager signs with TestSecret and records state in client
func NewSessionManager(t *testing.T, cfg session.Config, client redis.UniversalClient, opts ...session.Option) *session.Manager {
	t.Helper()
	log := logger.NewNopLogger()

	codec, err := jwt.NewCodec(jwt.Config{Secret: TestSecret})
	if err != nil {
		t.Fatalf("创建 codec 失败: %v", err)
	}
	m, err := session.NewManager(cfg, codec, revocation.NewRedisStore(client, time.Second, log), log, opts...)
	if err != nil {
		t.Fatalf("创建 session manager 失败: %v", err)
	}
	t.Cleanup(m.Shutdown)
	return m
}
