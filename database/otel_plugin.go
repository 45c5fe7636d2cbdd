package database

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	instrumentationName = "github.com/KOMKZ/go-yogan-tokenauth/database"
	spanInstanceKey     = "otel:span"
)

// OtelPlugin GORM OpenTelemetry 插件
type OtelPlugin struct {
	tracer    trace.Tracer
	traceSQL  bool
	sqlMaxLen int
}

// NewOtelPlugin nil tracerProvider means the global one
func NewOtelPlugin(tracerProvider trace.TracerProvider) *OtelPlugin {
	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}
	return &OtelPlugin{
		tracer:    tracerProvider.Tracer(instrumentationName),
		sqlMaxLen: 1000,
	}
}

// WithTraceSQL 设置是否记录 SQL 语句
func (p *OtelPlugin) WithTraceSQL(enabled bool) *OtelPlugin {
	p.traceSQL = enabled
	return p
}

func (p *OtelPlugin) WithSQLMaxLen(maxLen int) *OtelPlugin {
	if maxLen > 0 {
		p.sqlMaxLen = maxLen
	}
	return p
}

// Name 插件名称
func (p *OtelPlugin) Name() string {
	return "otel"
}

type registrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// Initialize registers span callbacks around every processor
func (p *OtelPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	pairs := []struct {
		op            string
		before, after registrar
	}{
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
		{"raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}

	for _, pair := range pairs {
		op := pair.op
		if err := pair.before.Register("otel:before_"+op, func(db *gorm.DB) { p.before(db, op) }); err != nil {
			return err
		}
		if err := pair.after.Register("otel:after_"+op, p.after); err != nil {
			return err
		}
	}
	return nil
}

func (p *OtelPlugin) before(db *gorm.DB, op string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	spanName := "gorm." + op
	if db.Statement.Table != "" {
		spanName += " " + db.Statement.Table
	}

	ctx, span := p.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", db.Dialector.Name()),
		attribute.String("db.operation", op),
	)
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.table", db.Statement.Table))
	}

	db.Statement.Context = ctx
	db.InstanceSet(spanInstanceKey, span)
}

func (p *OtelPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanInstanceKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if p.traceSQL {
		if sql := db.Statement.SQL.String(); sql != "" {
			span.SetAttributes(attribute.String("db.statement", truncate(sql, p.sqlMaxLen)))
		}
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
