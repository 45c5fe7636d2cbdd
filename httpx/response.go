// Package httpx provides unified handling of HTTP requests/responses
package httpx

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// ErrValidation request fields failed validation; data carries field -> message
var ErrValidation = errcode.Register(errcode.New(errcode.ModuleAPI, 1, "api",
	"error.api.validation", "Validation failed", http.StatusBadRequest))

// Response unified response envelope
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

// OkJson successful response
func OkJson(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// NoRouteHandler 404 route not found handler
func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Code: errcode.ErrNotFound.Code(),
			Msg:  "路由不存在: " + c.Request.Method + " " + c.Request.URL.Path,
		})
	}
}

// NoMethodHandler 405 Method Not Allowed Handler
func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, Response{
			Code: http.StatusMethodNotAllowed,
			Msg:  "方法不允许: " + c.Request.Method + " " + c.Request.URL.Path,
		})
	}
}

// HandleError writes err as an envelope.
// LayeredError keeps its own status, code and message; field validation
// errors become ErrValidation; anything else is a 500 without internals.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	ctx := c.Request.Context()
	cfg := getErrorLoggingConfig(c)
	log := logger.GetLogger("httpx")

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		err = validationError(fieldErrs)
	}

	if le, ok := errcode.As(err); ok {
		if shouldLogError(cfg, le.HTTPStatus()) {
			fields := []zap.Field{
				zap.Int("error_code", le.Code()),
				zap.String("error_msg", le.Message()),
				zap.String("path", c.FullPath()),
			}
			if cfg.FullErrorChain {
				fields = append(fields, zap.String("error_chain", le.String()), zap.Error(err))
			}

			switch cfg.LogLevel {
			case "warn":
				log.WarnCtx(ctx, "业务错误", fields...)
			case "info":
				log.InfoCtx(ctx, "业务错误", fields...)
			default:
				log.ErrorCtx(ctx, "业务错误", fields...)
			}
		}

		resp := Response{Code: le.Code(), Msg: le.Message()}
		if data := le.Data(); len(data) > 0 {
			resp.Data = data
		}
		c.AbortWithStatusJSON(le.HTTPStatus(), resp)
		return
	}

	// unknown errors are always logged
	log.ErrorCtx(ctx, "unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Code: errcode.ErrInternal.Code(),
		Msg:  errcode.ErrInternal.Message(),
	})
}

func validationError(errs validation.Errors) *errcode.LayeredError {
	out := ErrValidation
	for field, e := range errs {
		out = out.WithData(field, e.Error())
	}
	return out
}

// shouldLogError honours the switch and the ignore list
func shouldLogError(cfg errorLoggingConfigInternal, status int) bool {
	return cfg.Enable && !cfg.IgnoreStatusMap[status]
}
