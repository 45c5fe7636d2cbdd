package middleware

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/health"
	"github.com/gin-gonic/gin"
)

// HealthHandler GET /healthz：依赖全部可达返回 200，否则 503
func HealthHandler(agg *health.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := agg.Check(c.Request.Context())

		status := http.StatusOK
		if !resp.IsHealthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// LivenessHandler 存活探针，不检查外部依赖
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": health.StatusHealthy})
	}
}
