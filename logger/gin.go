package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware 每个请求记录一行日志
func GinMiddleware(l Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case c.Writer.Status() >= 500:
			l.Error("request", fields)
		case c.Writer.Status() >= 400:
			l.Warn("request", fields)
		default:
			l.Info("request", fields)
		}
	}
}
