package config

import (
	"time"

	"condofee-backend/logger"

	"github.com/gin-gonic/gin"
)

const slowRequestThreshold = 200 * time.Millisecond

func PerformanceLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		args := []any{
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
			logger.FieldStatusCode, status,
			logger.FieldDuration, latency.Milliseconds(),
			logger.FieldClientIP, c.ClientIP(),
		}
		if userID := c.GetString("userId"); userID != "" {
			args = append(args, logger.FieldUserID, userID)
		}
		if len(c.Errors) > 0 {
			args = append(args, logger.FieldError, c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("request failed", args...)
		case status >= 400:
			log.Warn("request rejected", args...)
		default:
			log.Info("request completed", args...)
		}

		if latency > slowRequestThreshold {
			log.Warn("slow request", args...)
		}
	}
}
