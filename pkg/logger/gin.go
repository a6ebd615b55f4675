package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

const ginLoggerKey = "logger"

// Middleware tags every request with an id (honoring an inbound
// X-Request-Id), stores a request-scoped logger in the gin context, and
// emits one summary record per request on completion.
func Middleware(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)

		l := base.With("request_id", id)
		c.Set(ginLoggerKey, l)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		l = l.With(
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if len(c.Errors) > 0 {
			l.Error("request", "errors", c.Errors.String())
			return
		}
		l.Info("request")
	}
}

// FromGin returns the request-scoped logger installed by Middleware,
// falling back to slog.Default() when the middleware is not in the chain.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
