// Package waiter implements the invocation id allocator and the waiter
// registry that correlates in-flight request/response calls with the
// response frames that eventually complete them.
package waiter

import "sync/atomic"

// IDAllocator hands out strictly monotonically increasing invocation ids,
// starting from 1. It is lock-free and safe to call from any goroutine.
type IDAllocator struct {
	counter atomic.Int32
}

// Next returns the next invocation id. The first call returns 1.
func (a *IDAllocator) Next() int32 {
	return a.counter.Add(1)
}
