// Package registry discovers live hub endpoints for a method descriptor,
// giving a production client a discovery mechanism instead of a hardcoded
// address.
package registry

// Endpoint is one hub host willing to serve a method descriptor.
type Endpoint struct {
	Addr    string
	Weight  int // used by loadbalance's weighted-random strategy
	Version string
}

// Registry registers, deregisters, and discovers Endpoints for a method
// descriptor.
type Registry interface {
	Register(methodDescriptor string, endpoint Endpoint, ttl int64) error
	Deregister(methodDescriptor string, addr string) error
	Discover(methodDescriptor string) ([]Endpoint, error)
	Watch(methodDescriptor string) <-chan []Endpoint
}
