package loadbalance

import (
	"fmt"
	"sync/atomic"

	"hubrpc/registry"
)

// RoundRobinBalancer distributes connections evenly across all endpoints
// in order, using an atomic counter for lock-free, goroutine-safe
// operation. Best for hubs where every endpoint has similar capacity.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(endpoints))
	return &endpoints[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
