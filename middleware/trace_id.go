package middleware

import (
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-ID"
)

// TraceID prefers the otel span id (set by otelgin), then the X-Trace-ID
// header, then a fresh uuid. The id is echoed in the response header and
// attached to the request context for CtxZapLogger.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		var traceID string
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		} else {
			traceID = c.GetHeader(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			c.Request = c.Request.WithContext(logger.ContextWithTraceID(c.Request.Context(), traceID))
		}

		c.Set(TraceIDKey, traceID)
		c.Writer.Header().Set(TraceIDHeader, traceID)
		c.Next()
	}
}

// GetTraceID 从 gin.Context 获取 TraceID
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
