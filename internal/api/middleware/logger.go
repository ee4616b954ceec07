package middleware

import (
	"time"

	"magnova-scm-api-server/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request and the errors handlers attached with c.Error.
// Internal errors are logged at error level, everything else at info.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if pr, ok := Principal(c); ok {
			entry = entry.WithField("user_id", pr.UserID)
		}

		for _, ge := range c.Errors {
			if apperr.KindOf(ge.Err) == apperr.KindInternal {
				entry.WithError(ge.Err).Error("request failed")
				return
			}
		}
		if len(c.Errors) > 0 {
			entry.WithField("reason", c.Errors.Last().Err.Error()).Info("request rejected")
			return
		}
		entry.Debug("request served")
	}
}
