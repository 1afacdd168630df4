package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"hubrpc/hub"
)

// RateLimit throttles outbound calls to r per second with the given burst,
// rejecting calls over the limit rather than blocking.
func RateLimit(r float64, burst int) hub.WriterMiddleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next hub.Call) hub.Call {
		return func(ctx context.Context, methodID int32, message any) (any, error) {
			if !limiter.Allow() {
				return nil, fmt.Errorf("middleware: rate limit exceeded for method %d", methodID)
			}
			return next(ctx, methodID, message)
		}
	}
}
