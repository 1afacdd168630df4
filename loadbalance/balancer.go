// Package loadbalance provides strategies for picking one hub endpoint
// out of the set a registry.Registry currently reports for a method
// descriptor.
//
// Three strategies are implemented:
//   - RoundRobin:      stateless hubs, equal-capacity endpoints
//   - WeightedRandom:  heterogeneous endpoints (different CPU/memory)
//   - ConsistentHash:  hubs that keep per-connection state, so repeat
//     traffic for the same key should keep landing on the same endpoint
package loadbalance

import "hubrpc/registry"

// Balancer picks one endpoint from the set a registry currently reports.
// Callers invoke Pick before opening each duplex stream; implementations
// must be goroutine-safe.
type Balancer interface {
	Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error)
	Name() string
}
