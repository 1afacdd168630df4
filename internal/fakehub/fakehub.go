// Package fakehub is an in-process fake hub server, used only by package
// hub's tests to exercise the reader/writer/lifecycle against something
// that actually speaks the wire protocol: a fixed, explicitly registered
// table of method handlers, with one goroutine per connection driving the
// request/response loop, implementing transport.Opener without any real
// network I/O.
package fakehub

import (
	"context"
	"fmt"
	"sync"

	"hubrpc/protocol"
	"hubrpc/transport"
)

// Handler answers one invocation for a method id: given the request
// payload, it returns the response payload or an error that becomes a
// response-error frame.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// FireAndForgetHandler observes one fire-and-forget call. It returns
// nothing, and no frame is ever sent back to the caller for it.
type FireAndForgetHandler func(payload []byte)

// Hub is a minimal in-process hub server: a fixed table of method
// handlers, and an OpenDuplex that spins up one in-process Conn per call,
// mirroring transport.Opener's contract without any real network I/O.
type Hub struct {
	mu                 sync.Mutex
	handlers           map[int32]Handler
	fireAndForgetHooks map[int32]FireAndForgetHandler
	lastConn           *Conn
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		handlers:           make(map[int32]Handler),
		fireAndForgetHooks: make(map[int32]FireAndForgetHandler),
	}
}

// Handle registers fn to answer invocations for methodID.
func (h *Hub) Handle(methodID int32, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[methodID] = fn
}

// HandleFireAndForget registers fn to observe fire-and-forget calls for
// methodID.
func (h *Hub) HandleFireAndForget(methodID int32, fn FireAndForgetHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fireAndForgetHooks[methodID] = fn
}

// OpenDuplex implements transport.Opener. methodDescriptor and host are
// accepted but ignored — there is exactly one Hub per test, not a fleet
// of addressable endpoints.
func (h *Hub) OpenDuplex(ctx context.Context, methodDescriptor, host string) (transport.DuplexStream, error) {
	conn := newConn()
	h.mu.Lock()
	h.lastConn = conn
	h.mu.Unlock()
	go h.serve(conn)
	return conn, nil
}

// LastConn returns the Conn created by the most recent OpenDuplex call,
// so a test can reach past the hub.Connection under test and poke at the
// wire directly (push a broadcast, simulate an abrupt close).
func (h *Hub) LastConn() *Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastConn
}

// serve is the per-connection dispatch loop: one goroutine reading frames
// until the client half-closes, dispatching each to its own goroutine so a
// slow handler never blocks the next frame.
func (h *Hub) serve(conn *Conn) {
	defer conn.closeResponses()

	var wg sync.WaitGroup
	for frame := range conn.requests {
		decoded, err := protocol.DecodeFrame(frame)
		if err != nil {
			continue // malformed frame from the client under test: drop it, same as a real hub would log and continue
		}

		switch decoded.Kind {
		case protocol.KindResponse: // wire shape [id, method, payload] — an invocation when read from the request side
			wg.Add(1)
			go func(invocationID, methodID int32, payload []byte) {
				defer wg.Done()
				h.answer(conn, invocationID, methodID, payload)
			}(decoded.InvocationID, decoded.MethodID, decoded.Payload)

		case protocol.KindBroadcast: // wire shape [method, payload] — fire-and-forget when read from the request side
			h.mu.Lock()
			hook := h.fireAndForgetHooks[decoded.MethodID]
			h.mu.Unlock()
			if hook != nil {
				hook(decoded.Payload)
			}
		}
	}
	wg.Wait()
}

func (h *Hub) answer(conn *Conn, invocationID, methodID int32, payload []byte) {
	h.mu.Lock()
	fn := h.handlers[methodID]
	h.mu.Unlock()

	if fn == nil {
		_ = conn.sendResponseError(invocationID, fmt.Sprintf("fakehub: no handler for method id %d", methodID))
		return
	}

	reply, err := fn(context.Background(), payload)
	if err != nil {
		_ = conn.sendResponseError(invocationID, err.Error())
		return
	}
	_ = conn.sendResponse(invocationID, methodID, reply)
}
