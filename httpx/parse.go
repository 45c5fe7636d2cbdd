package httpx

import (
	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/gin-gonic/gin"
)

// Parse binds path, query and (when present) JSON body into req.
// uri/form binding errors are ignored since most requests lack those tags.
func Parse(c *gin.Context, req any) error {
	_ = c.ShouldBindUri(req)
	_ = c.ShouldBindQuery(req)

	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			return errcode.ErrBadRequest.WithMsg("malformed request body").Wrap(err)
		}
	}
	return nil
}
