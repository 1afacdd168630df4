package hub

import (
	"context"

	"hubrpc/codec"
	"hubrpc/protocol"
	"hubrpc/waiter"
)

// WriteFireAndForget sends a hub invocation with no expectation of a
// response: check-not-disposed, encode, write. It returns once the
// transport accepts the frame.
func (c *Connection) WriteFireAndForget(ctx context.Context, methodID int32, message any, cdc codec.Codec) error {
	call := c.wrap(func(ctx context.Context, methodID int32, message any) (any, error) {
		if err := c.checkNotDisposed(); err != nil {
			return nil, err
		}

		payload, err := cdc.Encode(message)
		if err != nil {
			return nil, &EncodeError{Err: err}
		}

		frame, err := protocol.EncodeFireAndForget(nil, methodID, payload)
		if err != nil {
			return nil, &EncodeError{Err: err}
		}

		return nil, c.writeFrame(ctx, frame)
	})
	_, err := call(ctx, methodID, message)
	return err
}

// WriteWithResponse sends a hub invocation and blocks until its response
// arrives, the waiter terminates, or ctx is done. The waiter is registered strictly before the frame is written,
// since the response may arrive concurrently with this call awaiting its
// own waiter.
func (c *Connection) WriteWithResponse(ctx context.Context, methodID int32, message any, cdc codec.Codec) (any, error) {
	call := c.wrap(func(ctx context.Context, methodID int32, message any) (any, error) {
		if err := c.checkNotDisposed(); err != nil {
			return nil, err
		}

		payload, err := cdc.Encode(message)
		if err != nil {
			return nil, &EncodeError{Err: err}
		}

		invocationID := c.ids.Next()
		w := waiter.New()
		c.registry.Insert(invocationID, w)

		frame, err := protocol.EncodeInvocation(nil, invocationID, methodID, payload)
		if err != nil {
			c.registry.Take(invocationID)
			return nil, &EncodeError{Err: err}
		}

		if err := c.writeFrame(ctx, frame); err != nil {
			// The write failed: remove the waiter we just inserted and fail
			// it directly, otherwise it leaks until teardown. The caller
			// below observes the same error via the return value, not
			// through the waiter, since it never reaches w.Wait.
			c.registry.Take(invocationID)
			w.Fail(err)
			return nil, err
		}

		return w.Wait(ctx)
	})
	return call(ctx, methodID, message)
}

// writeFrame serializes writes per connection: a mutex is held for the
// full duration of a frame write so concurrent callers never interleave
// their bytes on the wire.
func (c *Connection) writeFrame(ctx context.Context, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.stream.RequestStream().Write(ctx, frame); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
