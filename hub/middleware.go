package hub

import "context"

// Call is one outbound invocation, after the caller has already decided
// what to encode — middlewares see only the method id and message value,
// wrapping cross-cutting behavior (logging, rate limiting, timeouts) around
// the underlying write.
type Call func(ctx context.Context, methodID int32, message any) (any, error)

// WriterMiddleware wraps a Call with cross-cutting behavior. Concrete
// implementations live in package middleware.
type WriterMiddleware func(next Call) Call

// Chain composes middlewares into one, applied in the given order: the
// first middleware given observes a call first on the way in and last on
// the way out.
func Chain(mws ...WriterMiddleware) WriterMiddleware {
	return func(next Call) Call {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// wrap applies the connection's configured middleware chain, if any, to
// call.
func (c *Connection) wrap(call Call) Call {
	if len(c.writerMiddlewares) == 0 {
		return call
	}
	return Chain(c.writerMiddlewares...)(call)
}
