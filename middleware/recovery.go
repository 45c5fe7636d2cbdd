package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/KOMKZ/go-yogan-tokenauth/httpx"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery replaces gin.Recovery: logs the panic with its stack and answers
// with the internal-error envelope, never the panic value
func Recovery(log *logger.CtxZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.ErrorCtx(c.Request.Context(), "panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
					zap.String("stack", string(debug.Stack())),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, httpx.Response{
					Code: errcode.ErrInternal.Code(),
					Msg:  errcode.ErrInternal.Message(),
				})
			}
		}()

		c.Next()
	}
}
