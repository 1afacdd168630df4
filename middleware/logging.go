// Package middleware provides hub.WriterMiddleware implementations that
// wrap outbound calls with cross-cutting behavior: structured logging,
// rate limiting, and client-side timeouts.
package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hubrpc/hub"
)

// Logging logs the method id and duration of every outbound call, and the
// error if one occurred.
func Logging(logger *zap.Logger) hub.WriterMiddleware {
	return func(next hub.Call) hub.Call {
		return func(ctx context.Context, methodID int32, message any) (any, error) {
			start := time.Now()
			value, err := next(ctx, methodID, message)
			fields := []zap.Field{
				zap.Int32("method_id", methodID),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
				logger.Warn("hub: call failed", fields...)
			} else {
				logger.Debug("hub: call completed", fields...)
			}
			return value, err
		}
	}
}
