// Package hub implements the bidirectional streaming RPC hub client: the
// writer, the reader loop, and the connection lifecycle that ties them
// together. A long-lived duplex channel multiplexes outbound invocations
// (fire-and-forget or request/response) against inbound responses and
// broadcasts, with an explicit construct-then-connect,
// dispose-drains-waiters lifecycle.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hubrpc/dispatch"
	"hubrpc/transport"
	"hubrpc/waiter"
)

// Connection is a single long-lived duplex channel to a hub endpoint. It is
// created with New, then started with Connect — the two-phase split lets a
// caller finish configuring a Connection before the reader task starts. A
// Connection is used exactly once: New → Connect → {Draining → Closed};
// there is no resurrection.
type Connection struct {
	opener            transport.Opener
	methodDescriptor  string
	host              string
	resolver          dispatch.Resolver
	logger            *zap.Logger
	writerMiddlewares []WriterMiddleware

	connectOnce sync.Once
	connectErr  error

	stream   transport.DuplexStream
	receiver dispatch.ReceiverDispatcher
	cancel   context.CancelFunc

	registry waiter.Registry
	ids      waiter.IDAllocator

	disposed atomic.Bool
	writeMu  sync.Mutex

	readerDone     chan struct{}
	disconnected   chan struct{}
	disconnectOnce sync.Once

	// teardownDone closes once steps 6-8 of teardown have run (registry
	// drained, disconnected published); teardownErr is only safe to read
	// after observing that close, which is the sole write-then-read
	// ordering it needs.
	teardownDone chan struct{}
	teardownErr  error
}

// Option configures a Connection constructed with New.
type Option func(*Connection)

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

// WithWriterMiddleware appends middlewares to wrap every outbound call,
// applied in the order given — see package middleware.
func WithWriterMiddleware(mw ...WriterMiddleware) Option {
	return func(c *Connection) { c.writerMiddlewares = append(c.writerMiddlewares, mw...) }
}

// New constructs an unconnected Connection. Call Connect to open the duplex
// stream and start the reader task.
func New(opener transport.Opener, methodDescriptor, host string, resolver dispatch.Resolver, opts ...Option) *Connection {
	c := &Connection{
		opener:           opener,
		methodDescriptor: methodDescriptor,
		host:             host,
		resolver:         resolver,
		logger:           zap.NewNop(),
		disconnected:     make(chan struct{}),
		teardownDone:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the duplex streaming call, binds receiver, and launches the
// reader task. Not reentrant: a second call returns the error from the
// first.
//
// The stream itself is opened against a Connection-owned context derived
// from context.Background, not the ctx passed in here: the stream must
// outlive Connect's own ctx (which may carry a short dial deadline) and be
// reachable by teardown's cancel, so a blocked ResponseStream().Next
// actually unblocks when Dispose runs instead of hanging until the
// transport notices on its own.
func (c *Connection) Connect(ctx context.Context, receiver dispatch.ReceiverDispatcher) error {
	c.connectOnce.Do(func() {
		readerCtx, cancel := context.WithCancel(context.Background())

		stream, err := c.opener.OpenDuplex(readerCtx, c.methodDescriptor, c.host)
		if err != nil {
			cancel()
			c.connectErr = &TransportError{Op: "open_duplex", Err: err}
			return
		}

		c.stream = stream
		c.receiver = receiver
		c.cancel = cancel
		c.readerDone = make(chan struct{})

		go c.runReader(readerCtx)
	})
	return c.connectErr
}

// WaitForDisconnect returns once teardown has completed and the
// disconnected signal has been published. Any number of observers may
// await it; it resolves exactly once and all subsequent waits resolve
// immediately.
func (c *Connection) WaitForDisconnect(ctx context.Context) error {
	select {
	case <-c.disconnected:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispose requests orderly teardown and waits for the reader task to exit
// and all waiters to terminate. Idempotent: calling it N times resolves all
// N callers; the underlying teardown work happens once.
func (c *Connection) Dispose(ctx context.Context) error {
	return c.teardown(ctx, true)
}

// teardown is the internal, idempotent shutdown sequence. waitForSelf
// distinguishes the two call sites: Dispose (true, the caller wants to
// block until the reader has actually exited) and the reader loop's own
// deferred cleanup (false — a goroutine must never await itself).
//
// Only the call that wins the CompareAndSwap below ever runs steps 3-8; it
// runs steps 6-8 (registry drain, disconnected publish) in a background
// goroutine rather than inline, so a caller whose ctx expires while waiting
// can return ctx.Err() without stranding those steps unrun for everyone
// else — the background goroutine completes them regardless of whether
// anyone is still waiting on it.
func (c *Connection) teardown(ctx context.Context, waitForSelf bool) error {
	if !c.disposed.CompareAndSwap(false, true) {
		// Already disposed (or disposal in progress) — later callers of
		// Dispose still need to observe completion, so fall through to
		// wait on teardownDone rather than returning early.
		if waitForSelf {
			select {
			case <-c.teardownDone:
				return c.teardownErr
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	// Step 3: attempt half-close; ignore errors. Setting disposed already
	// happened via the CompareAndSwap above, which intentionally races
	// ahead of this half-close: a new caller racing against Dispose
	// observes "disposed" before the stream is actually closed, preserving
	// fail-fast ordering.
	if c.stream != nil {
		_ = c.stream.RequestStream().Complete(ctx)
	}

	// Step 4: signal cancellation so the reader's blocked Next returns.
	if c.cancel != nil {
		c.cancel()
	}

	go func() {
		// Step 5: await the reader task, unconditionally — this goroutine
		// owns steps 5-8 regardless of which caller (if any) is still
		// waiting on teardownDone below.
		if c.readerDone != nil {
			<-c.readerDone
		}

		// Step 6: drain the registry and cancel every waiter, aggregating
		// any non-cancellation error a registered cancel hook returns.
		// Every non-cancellation error is unconditionally appended via
		// multierr.
		var aggregated error
		for _, w := range c.registry.Drain() {
			cancelled, hookErr := w.Cancel()
			if !cancelled {
				// Already terminated by the reader before the drain
				// reached it — not an error, just a race this step
				// tolerates.
				continue
			}
			if hookErr != nil {
				aggregated = multierr.Append(aggregated, hookErr)
			}
		}

		// Step 7: publish the disconnected signal, exactly once.
		c.disconnectOnce.Do(func() {
			close(c.disconnected)
		})

		// Step 8: surface any aggregated non-cancellation errors to
		// whoever is (or later becomes) waitForSelf-bound on this call.
		c.teardownErr = aggregated
		close(c.teardownDone)
	}()

	if waitForSelf {
		select {
		case <-c.teardownDone:
			return c.teardownErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// checkNotDisposed is the guard shared by both writer operations.
func (c *Connection) checkNotDisposed() error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	return nil
}
