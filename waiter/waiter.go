package waiter

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is the terminal error delivered to a Waiter that is still
// outstanding when the owning connection tears down.
var ErrCancelled = errors.New("waiter: cancelled")

// Waiter is a one-shot completion handle for a pending request/response
// call. It has three terminal transitions — Resolve, Fail, Cancel — and only
// the first of any of them takes effect; later calls are no-ops. The core
// stores Waiters type-erased; the decoder closure that turns a raw payload
// into its typed result is chosen by method id in the Resolver (see the
// dispatch package) rather than stored on the Waiter itself.
//
// A Waiter lives in a registry shared between the reader goroutine and the
// teardown path, either of which may try to complete it concurrently, so the
// idempotence of the three terminal transitions is load-bearing.
type Waiter struct {
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	value   any
	err     error
	onCancel func() error
}

// New returns a fresh, unresolved Waiter.
func New() *Waiter {
	return &Waiter{done: make(chan struct{})}
}

// Resolve completes the waiter successfully with value. Returns false if the
// waiter had already terminated.
func (w *Waiter) Resolve(value any) bool {
	return w.complete(value, nil)
}

// Fail completes the waiter with err. Returns false if the waiter had
// already terminated.
func (w *Waiter) Fail(err error) bool {
	return w.complete(nil, err)
}

// SetCancelHook registers fn to run exactly once, at the moment this waiter
// is cancelled by teardown — e.g. to release a resource the caller attached
// to the pending call. A hook that errors does not stop the waiter from
// terminating; its error is returned from Cancel so the caller (teardown)
// can aggregate it. There is no equivalent hook for Resolve or Fail.
func (w *Waiter) SetCancelHook(fn func() error) {
	w.mu.Lock()
	w.onCancel = fn
	w.mu.Unlock()
}

// Cancel completes the waiter with ErrCancelled and runs any registered
// cancel hook. cancelled reports whether this call was the one that
// terminated the waiter (false if it had already terminated). hookErr
// carries a non-nil error only when cancelled is true and a registered
// hook returned one.
func (w *Waiter) Cancel() (cancelled bool, hookErr error) {
	w.once.Do(func() {
		w.mu.Lock()
		hook := w.onCancel
		w.mu.Unlock()
		if hook != nil {
			hookErr = hook()
		}
		w.mu.Lock()
		w.value, w.err = nil, ErrCancelled
		w.mu.Unlock()
		close(w.done)
		cancelled = true
	})
	return cancelled, hookErr
}

func (w *Waiter) complete(value any, err error) bool {
	took := false
	w.once.Do(func() {
		w.mu.Lock()
		w.value, w.err = value, err
		w.mu.Unlock()
		close(w.done)
		took = true
	})
	return took
}

// Wait blocks until the waiter terminates or ctx is cancelled, whichever
// comes first. A context cancellation does not complete the waiter — the
// entry remains in the registry and may still be resolved by an arriving
// response; eager removal on caller-side cancellation is not implemented
// here.
func (w *Waiter) Wait(ctx context.Context) (any, error) {
	select {
	case <-w.done:
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.value, w.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
