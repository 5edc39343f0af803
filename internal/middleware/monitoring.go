package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"guestbook/backend/internal/monitoring"
)

// HTTPMetrics HTTP 指标中间件
//
// 未匹配路由（静态资源）统一记为 "static"，避免标签基数失控。
func HTTPMetrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "static"
		}
		metrics.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
