package api

import (
	"delivery-quote-service/internal/platform/obs"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// requestID tags each request with an id, echoed in the response and carried
// in the request context for outbound call logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(obs.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// loggingMiddleware logs end-to-end request duration and response size.
// gin's ResponseWriter already records the final status and bytes written.
func loggingMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		reqID, _ := c.Request.Context().Value(obs.RequestIDKey).(string)
		entry := log.WithFields(logrus.Fields{
			"req_id": reqID,
			"method": c.Request.Method,
			"path":   c.Request.URL.RequestURI(),
			"status": c.Writer.Status(),
			"bytes":  max(c.Writer.Size(), 0),
			"dur_ms": time.Since(start).Milliseconds(),
		})

		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last()).Error("request failed")
			return
		}
		entry.Info("request")
	}
}
