package waiter

import "sync"

// Registry is a concurrent map from invocation id to the Waiter awaiting its
// response.
type Registry struct {
	m sync.Map // int32 -> *Waiter
}

// Insert registers w under id. The caller is responsible for the
// precondition that id was freshly allocated and not previously inserted,
// and for checking the connection is not disposed before calling Insert —
// the registry itself enforces neither.
func (r *Registry) Insert(id int32, w *Waiter) {
	r.m.Store(id, w)
}

// Take atomically removes and returns the waiter registered under id, if
// any. A response for an unknown id returns ok == false and must be dropped
// by the caller without crashing.
func (r *Registry) Take(id int32) (w *Waiter, ok bool) {
	v, ok := r.m.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	return v.(*Waiter), true
}

// Drain removes and returns every waiter still registered, leaving the
// registry empty. Used only by teardown; after Drain, Take always misses
// until the connection — which never reuses a registry — is garbage
// collected.
func (r *Registry) Drain() []*Waiter {
	var all []*Waiter
	r.m.Range(func(key, value any) bool {
		all = append(all, value.(*Waiter))
		r.m.Delete(key)
		return true
	})
	return all
}

// Size reports the number of outstanding waiters.
func (r *Registry) Size() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
