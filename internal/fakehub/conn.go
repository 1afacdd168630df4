package fakehub

import (
	"context"
	"errors"
	"sync"

	"hubrpc/protocol"
	"hubrpc/transport"
)

// errRemoteClosed is returned from Next when the fake hub was torn down
// abruptly via CloseAbruptly, modeling an unexpected disconnect rather
// than a clean end of stream.
var errRemoteClosed = errors.New("fakehub: connection closed by remote")

// Conn is one in-process duplex stream between a hub.Connection under
// test and a Hub. Requests and responses are unbuffered channels of
// already-encoded protocol frames — the same bytes a real transport would
// carry.
type Conn struct {
	requests  chan []byte
	responses chan []byte

	closeRequestsOnce sync.Once
	abrupt            chan struct{}
	abruptOnce        sync.Once
}

func newConn() *Conn {
	return &Conn{
		requests:  make(chan []byte),
		responses: make(chan []byte),
		abrupt:    make(chan struct{}),
	}
}

func (c *Conn) RequestStream() transport.RequestStream   { return requestStream{c} }
func (c *Conn) ResponseStream() transport.ResponseStream { return responseStream{c} }

// closeResponses signals a clean end of stream to the client side, called
// by Hub.serve once the client has half-closed and every in-flight answer
// has been sent.
func (c *Conn) closeResponses() {
	close(c.responses)
}

// CloseAbruptly simulates the hub vanishing without a clean half-close —
// the "remote close" scenario: the next Next() call returns
// errRemoteClosed instead of a clean end of stream.
func (c *Conn) CloseAbruptly() {
	c.abruptOnce.Do(func() { close(c.abrupt) })
}

// PushBroadcast lets a test make the fake hub emit an unsolicited
// broadcast frame on demand, independent of any invocation.
func (c *Conn) PushBroadcast(methodID int32, payload []byte) error {
	frame, err := protocol.EncodeBroadcast(nil, methodID, payload)
	if err != nil {
		return err
	}
	select {
	case c.responses <- frame:
		return nil
	case <-c.abrupt:
		return errRemoteClosed
	}
}

// PushMalformed writes a byte slice that is not a valid frame, for the
// malformed-frame test scenario.
func (c *Conn) PushMalformed(raw []byte) error {
	select {
	case c.responses <- raw:
		return nil
	case <-c.abrupt:
		return errRemoteClosed
	}
}

func (c *Conn) sendResponse(invocationID, methodID int32, payload []byte) error {
	frame, err := protocol.EncodeResponse(nil, invocationID, methodID, payload)
	if err != nil {
		return err
	}
	select {
	case c.responses <- frame:
		return nil
	case <-c.abrupt:
		return errRemoteClosed
	}
}

func (c *Conn) sendResponseError(invocationID int32, message string) error {
	frame, err := protocol.EncodeResponseError(nil, invocationID, message)
	if err != nil {
		return err
	}
	select {
	case c.responses <- frame:
		return nil
	case <-c.abrupt:
		return errRemoteClosed
	}
}

type requestStream struct{ c *Conn }

func (r requestStream) Write(ctx context.Context, frame []byte) error {
	select {
	case r.c.requests <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.c.abrupt:
		return errRemoteClosed
	}
}

func (r requestStream) Complete(ctx context.Context) error {
	r.c.closeRequestsOnce.Do(func() { close(r.c.requests) })
	return nil
}

type responseStream struct{ c *Conn }

func (r responseStream) Next(ctx context.Context) ([]byte, bool, error) {
	select {
	case frame, ok := <-r.c.responses:
		if !ok {
			return nil, false, nil
		}
		return frame, true, nil
	case <-r.c.abrupt:
		return nil, false, errRemoteClosed
	case <-ctx.Done():
		return nil, false, nil
	}
}
