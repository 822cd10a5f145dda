package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger returns a middleware that logs HTTP requests. Bodies are never
// logged because signup and login carry passwords.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// Process request
		c.Next()

		statusCode := c.Writer.Status()

		var evt *zerolog.Event
		switch {
		case statusCode >= 500:
			evt = log.Error()
		case statusCode >= 400:
			evt = log.Warn()
		default:
			evt = log.Info()
		}

		evt.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("user_agent", c.Request.UserAgent())

		if id, ok := CurrentUserID(c); ok {
			evt.Int64("user_id", id)
		}
		if len(c.Errors) > 0 {
			evt.Str("errors", c.Errors.String())
		}

		evt.Msg("Request processed")
	}
}
