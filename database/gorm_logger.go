package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm output into a CtxZapLogger so SQL carries the request trace id
type GormLogger struct {
	log           *logger.CtxZapLogger
	slowThreshold time.Duration
	logLevel      gormlogger.LogLevel
	enableAudit   bool
}

// GormLoggerConfig GORM Logger configuration
type GormLoggerConfig struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
	EnableAudit   bool // every statement at debug
}

func NewGormLogger(log *logger.CtxZapLogger, cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{
		log:           log,
		slowThreshold: cfg.SlowThreshold,
		logLevel:      cfg.LogLevel,
		enableAudit:   cfg.EnableAudit,
	}
}

// LogMode implements gorm logger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Info {
		l.log.DebugCtx(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Warn {
		l.log.WarnCtx(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Error {
		l.log.ErrorCtx(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs one executed statement. RecordNotFound is normal business flow, not an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.logLevel >= gormlogger.Error:
		l.log.ErrorCtx(ctx, "SQL 执行错误", append(fields, zap.Error(err))...)

	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn:
		l.log.WarnCtx(ctx, "慢查询检测", append(fields, zap.Duration("threshold", l.slowThreshold))...)

	case l.enableAudit:
		l.log.DebugCtx(ctx, "SQL 执行", fields...)
	}
}
