// Package transport defines the abstract duplex-stream contract the core
// multiplexer consumes, and a connection pool for reuse by concrete
// transport implementations (see transport/grpctransport).
//
// The core never depends on a concrete transport — it only depends on
// DuplexStream, RequestStream, and ResponseStream, so the multiplexer in
// package hub is not tied to TCP or any particular streaming protocol.
package transport

import "context"

// RequestStream is the client-to-server half of a duplex stream: an ordered
// sequence of frame writes, with a half-close that signals no more frames
// will be sent.
type RequestStream interface {
	// Write sends one already-encoded frame. Concurrent callers must not
	// call Write concurrently; the core serializes writes per connection
	// before ever reaching this method.
	Write(ctx context.Context, frame []byte) error

	// Complete half-closes the send side. Errors are not fatal to
	// teardown, which attempts a half-close and ignores the outcome.
	Complete(ctx context.Context) error
}

// ResponseStream is the server-to-client half of a duplex stream: an
// ordered sequence of frame reads.
type ResponseStream interface {
	// Next returns the next frame, or ok == false on a clean end of
	// stream (the server closed gracefully). ctx cancellation unblocks a
	// pending Next without it being treated as a read error.
	Next(ctx context.Context) (frame []byte, ok bool, err error)
}

// DuplexStream is one logical bidirectional streaming call: a send half and
// a receive half that share no synchronization with each other — one
// writer goroutine and one reader goroutine, never two of either.
type DuplexStream interface {
	RequestStream() RequestStream
	ResponseStream() ResponseStream
}

// Opener opens a new duplex streaming call against a hub endpoint.
type Opener interface {
	OpenDuplex(ctx context.Context, methodDescriptor, host string) (DuplexStream, error)
}
