package middleware

import (
	"context"
	"fmt"
	"time"

	"hubrpc/hub"
)

// Timeout bounds an outbound call to the given duration, independent of
// whatever deadline the caller's ctx already carries.
func Timeout(timeout time.Duration) hub.WriterMiddleware {
	return func(next hub.Call) hub.Call {
		return func(ctx context.Context, methodID int32, message any) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type result struct {
				value any
				err   error
			}
			done := make(chan result, 1)
			go func() {
				value, err := next(ctx, methodID, message)
				done <- result{value, err}
			}()

			select {
			case r := <-done:
				return r.value, r.err
			case <-ctx.Done():
				return nil, fmt.Errorf("middleware: call to method %d timed out after %s", methodID, timeout)
			}
		}
	}
}
