package logging

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware attaches a request-scoped logger carrying a request id and
// request metadata, and logs completion with latency.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
			c.Writer.Header().Set("X-Request-ID", rid)
		}

		reqLog := slog.Default().With(
			slog.String("request_id", rid),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("ip", c.ClientIP()),
		)
		c.Request = c.Request.WithContext(Inject(c.Request.Context(), reqLog))

		start := time.Now()
		c.Next()

		reqLog.Info("request completed",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}
