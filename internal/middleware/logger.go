package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
)

// RequestLogger tags every request with an id, forwards it to the backend
// through the request context and logs the outcome.
func RequestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(constants.HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Header(constants.HeaderRequestID, requestID)
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(api.WithRequestID(c.Request.Context(), requestID))

		reqLog := log.WithField("request_id", requestID)
		c.Set(constants.ContextKeyLogger, reqLog)

		c.Next()

		entry := reqLog.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Warn("request completed with errors")
		default:
			entry.Info("request completed")
		}
	}
}

// GetLogger returns the request-scoped logger, falling back to the standard logger.
func GetLogger(c *gin.Context) *logrus.Entry {
	if value, exists := c.Get(constants.ContextKeyLogger); exists {
		if log, ok := value.(*logrus.Entry); ok {
			return log
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
