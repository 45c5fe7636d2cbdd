// Package errcode provides layered error codes shared by every module.
// Code format: MMBBBB (MM = module code, BBBB = business code).
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Module codes. Each package registers its errors under one of these.
const (
	ModuleCommon     = 10
	ModuleRevocation = 41
	ModuleSession    = 42
	ModuleAuth       = 43
	ModuleAPI        = 44
	ModuleSwagger    = 80
)

// LayeredError hierarchical error code with HTTP status mapping
type LayeredError struct {
	module     string
	code       int
	msgKey     string // i18n key, e.g. "error.session.invalid_token"
	msg        string
	httpStatus int
	data       map[string]any
	cause      error
}

// New creates a layered error. httpStatus defaults to 200.
func New(moduleCode, businessCode int, module, msgKey, msg string, httpStatus ...int) *LayeredError {
	status := http.StatusOK
	if len(httpStatus) > 0 {
		status = httpStatus[0]
	}
	return &LayeredError{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msgKey:     msgKey,
		msg:        msg,
		httpStatus: status,
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *LayeredError) Code() int       { return e.code }
func (e *LayeredError) Module() string  { return e.module }
func (e *LayeredError) MsgKey() string  { return e.msgKey }
func (e *LayeredError) Message() string { return e.msg }
func (e *LayeredError) HTTPStatus() int { return e.httpStatus }
func (e *LayeredError) Unwrap() error   { return e.cause }

// Data returns the attached context data (may be nil)
func (e *LayeredError) Data() map[string]any {
	return e.data
}

// WithMsg replaces the message (returns a new instance)
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf formats a replacement message (returns a new instance)
func (e *LayeredError) WithMsgf(format string, args ...any) *LayeredError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithData attaches one context value (returns a new instance)
func (e *LayeredError) WithData(key string, value any) *LayeredError {
	clone := *e
	clone.data = make(map[string]any, len(e.data)+1)
	for k, v := range e.data {
		clone.data[k] = v
	}
	clone.data[key] = value
	return &clone
}

// Wrap attaches the underlying cause (returns a new instance)
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Is matches any LayeredError with the same code
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}

// As extracts the first LayeredError in the chain
func As(err error) (*LayeredError, bool) {
	var le *LayeredError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
