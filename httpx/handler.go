package httpx

import (
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HandlerFunc 泛型 Handler 函数签名
// Req: 请求类型（支持 form/json/uri tag）
// Resp: 响应类型
type HandlerFunc[Req any, Resp any] func(c *gin.Context, req *Req) (*Resp, error)

// Wrap 包装 Handler，自动处理解析、验证、响应
func Wrap[Req any, Resp any](handler HandlerFunc[Req, Resp]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := Parse(c, &req); err != nil {
			HandleError(c, err)
			return
		}

		// 请求对象实现 validation.Validatable 时执行校验
		if v, ok := any(&req).(validation.Validatable); ok {
			if err := v.Validate(); err != nil {
				HandleError(c, err)
				return
			}
		}

		resp, err := handler(c, &req)
		if err != nil {
			HandleError(c, err)
			return
		}

		OkJson(c, resp)
	}
}
