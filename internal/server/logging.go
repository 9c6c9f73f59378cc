package server

import (
	"fmt"
	"time"

	"bookpass/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLoggingMiddleware logs every HTTP request with latency and status.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)

		// Authenticated requests carry the tenant, set by the auth middleware.
		tenant := ""
		if tenantID, ok := c.Get("tenant_id"); ok {
			tenant = fmt.Sprintf(" tenant=%v", tenantID)
		}

		logger.Infof("%s %s status=%d latency_ms=%d client_ip=%s%s",
			c.Request.Method, path, c.Writer.Status(), latency.Milliseconds(), c.ClientIP(), tenant)
	}
}
