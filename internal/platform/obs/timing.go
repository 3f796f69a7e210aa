package obs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used to correlate outbound calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Time logs the duration of op when the returned func is deferred with the
// caller's named error.
func Time(ctx context.Context, log logrus.FieldLogger, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		entry := log.WithFields(logrus.Fields{
			"req_id": reqID,
			"op":     name,
			"dur_ms": time.Since(start).Milliseconds(),
		})

		if errp != nil && *errp != nil {
			entry.WithError(*errp).Warn("operation failed")
			return
		}
		entry.Debug("operation completed")
	}
}
