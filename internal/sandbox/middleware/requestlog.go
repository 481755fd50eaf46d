package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/walletlink/internal/logging"
)

// RequestLog writes one line per completed request. Server errors are
// logged at error level, client errors at warn, the rest at debug.
func RequestLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.Error(ctx, "request", args...)
		case status >= 400:
			log.Warn(ctx, "request", args...)
		default:
			log.Debug(ctx, "request", args...)
		}
	}
}
