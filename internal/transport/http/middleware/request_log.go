package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"docqa/internal/pkg/logger"
)

const httpModule = "http"

// RequestLog writes one structured line per request.
func RequestLog(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		details := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			details["errors"] = c.Errors.String()
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error(httpModule, "request failed", details)
		case c.Writer.Status() >= 400:
			log.Warn(httpModule, "request rejected", details)
		default:
			log.Debug(httpModule, "request served", details)
		}
	}
}
