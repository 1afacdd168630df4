package hub

import (
	"context"

	"go.uber.org/zap"

	"hubrpc/protocol"
)

// runReader is the single background goroutine that owns the response
// half of the duplex stream. It runs for the lifetime of the connection and
// is the only path that ever calls ResponseStream().Next, dispatching each
// frame to one of three shapes: response, response-error, or broadcast.
//
// One bad frame never kills the channel: a decode failure is logged and
// the loop continues to the next frame. The loop exits only on a clean end
// of stream, a transport read error, or ctx cancellation (published by
// teardown via c.cancel).
func (c *Connection) runReader(ctx context.Context) {
	defer func() {
		close(c.readerDone)
		// The reader must never await itself — teardown's waitForSelf is
		// meaningless from inside the goroutine it would be waiting on.
		_ = c.teardown(context.Background(), false)
	}()

	stream := c.stream.ResponseStream()
	for {
		raw, ok, err := stream.Next(ctx)
		if err != nil {
			c.logger.Debug("hub: response stream read failed", zap.Error(err))
			return
		}
		if !ok {
			c.logger.Debug("hub: response stream closed by peer")
			return
		}

		frame, err := protocol.DecodeFrame(raw)
		if err != nil {
			c.logger.Warn("hub: dropping malformed frame", zap.Error(&DecodeError{Err: err}))
			continue
		}

		switch frame.Kind {
		case protocol.KindResponse, protocol.KindResponseError:
			c.deliverResponse(frame)
		case protocol.KindBroadcast:
			c.deliverBroadcast(frame)
		default:
			c.logger.Warn("hub: unexpected frame kind from decoder", zap.Int("kind", int(frame.Kind)))
		}
	}
}

// deliverResponse completes the waiter registered at the frame's
// invocation id, whether it arrived as a success or a server error. A
// response for an id with no registered waiter is not an error: the
// caller may have already given up and let its context expire.
func (c *Connection) deliverResponse(frame protocol.Frame) {
	w, ok := c.registry.Take(frame.InvocationID)
	if !ok {
		c.logger.Debug("hub: response for unknown invocation id", zap.Int32("invocation_id", frame.InvocationID))
		return
	}

	if frame.Kind == protocol.KindResponseError {
		w.Fail(&ServerError{Message: frame.ErrorMessage})
		return
	}

	if err := c.resolver.Resolve(frame.MethodID, w, frame.Payload); err != nil {
		// Resolve itself should never return a non-nil error: a payload
		// decode failure must complete the waiter with that error, not
		// propagate it here. If a custom Resolver does return one, it is
		// logged and the waiter is failed with it (a no-op if Resolve
		// already terminated it), since the waiter is no longer in the
		// registry for teardown to cancel.
		c.logger.Warn("hub: resolver returned an error", zap.Int32("method_id", frame.MethodID), zap.Error(err))
		w.Fail(err)
	}
}

// deliverBroadcast invokes the receiver registered for the frame's method
// id. A receiver error is logged, never fatal to the channel.
func (c *Connection) deliverBroadcast(frame protocol.Frame) {
	if err := c.receiver.Invoke(frame.MethodID, frame.Payload); err != nil {
		c.logger.Warn("hub: receiver error", zap.Error(&ReceiverError{MethodID: frame.MethodID, Err: err}))
	}
}
