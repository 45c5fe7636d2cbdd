package database

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB an opened gorm connection pool
type DB struct {
	gorm   *gorm.DB
	cfg    Config
	logger *logger.CtxZapLogger
}

// Open dials the configured driver and sizes the pool.
// SQL is logged through log; tracing is registered when enabled.
func Open(cfg Config, log *logger.CtxZapLogger) (*DB, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, GormLoggerConfig{
			SlowThreshold: cfg.SlowThreshold,
			LogLevel:      gormlogger.Warn,
			EnableAudit:   cfg.EnableAudit,
		}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.EnableTracing {
		plugin := NewOtelPlugin(nil).WithTraceSQL(cfg.TraceSQL).WithSQLMaxLen(cfg.TraceSQLMaxLen)
		if err := db.Use(plugin); err != nil {
			return nil, fmt.Errorf("failed to use otel plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Debug("database connected", zap.String("driver", cfg.Driver))

	return &DB{gorm: db, cfg: cfg, logger: log}, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

// Gorm returns the underlying handle
func (d *DB) Gorm() *gorm.DB {
	return d.gorm
}

// Driver returns the configured driver name
func (d *DB) Driver() string {
	return d.cfg.Driver
}

// Ping checks the pool can reach the server
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		d.logger.Error("failed to close database", zap.Error(err))
		return err
	}
	d.logger.Debug("database connection closed")
	return nil
}

// Shutdown implements do.Shutdowner
func (d *DB) Shutdown() error {
	return d.Close()
}
