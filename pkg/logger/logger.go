package logger

import (
	"time"

	"office-agent/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the configured logger as the process-wide zerolog logger
func Setup(cfg *config.Config) zerolog.Logger {
	logger := cfg.SetupLogger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}

// GinMiddleware logs one line per request with status and latency
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", c.GetString("userID")).
			Msg("[HTTP] request")
	}
}
