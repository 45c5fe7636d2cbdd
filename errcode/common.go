package errcode

import "net/http"

// 通用错误码（模块 10）
var (
	ErrInternal     = Register(New(ModuleCommon, 1, "common", "error.common.internal", "Internal server error", http.StatusInternalServerError))
	ErrBadRequest   = Register(New(ModuleCommon, 2, "common", "error.common.bad_request", "Bad request", http.StatusBadRequest))
	ErrUnauthorized = Register(New(ModuleCommon, 3, "common", "error.common.unauthorized", "Unauthorized", http.StatusUnauthorized))
	ErrForbidden    = Register(New(ModuleCommon, 4, "common", "error.common.forbidden", "Access denied", http.StatusForbidden))
	ErrNotFound     = Register(New(ModuleCommon, 5, "common", "error.common.not_found", "Resource not found", http.StatusNotFound))
)
