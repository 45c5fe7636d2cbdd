package swagger

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
)

// ErrDocNotFound docs 包未被导入，swag 没有注册实例
var ErrDocNotFound = errcode.Register(errcode.New(
	errcode.ModuleSwagger, 1, "swagger", "error.swagger.doc_not_found", "Swagger documentation not found", http.StatusNotFound,
))
