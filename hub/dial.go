package hub

import (
	"context"
	"fmt"

	"hubrpc/dispatch"
	"hubrpc/loadbalance"
	"hubrpc/registry"
	"hubrpc/transport"
)

// Dial is the production entry point a hub client actually uses instead of
// hardcoding New's host argument: it discovers the live endpoints reg
// currently reports for methodDescriptor, picks one with bal, and connects
// to it.
func Dial(ctx context.Context, reg registry.Registry, bal loadbalance.Balancer, opener transport.Opener, methodDescriptor string, resolver dispatch.Resolver, receiver dispatch.ReceiverDispatcher, opts ...Option) (*Connection, error) {
	endpoints, err := reg.Discover(methodDescriptor)
	if err != nil {
		return nil, fmt.Errorf("hub: discover endpoints for %s: %w", methodDescriptor, err)
	}

	endpoint, err := bal.Pick(endpoints)
	if err != nil {
		return nil, fmt.Errorf("hub: pick endpoint for %s via %s: %w", methodDescriptor, bal.Name(), err)
	}

	conn := New(opener, methodDescriptor, endpoint.Addr, resolver, opts...)
	if err := conn.Connect(ctx, receiver); err != nil {
		return nil, err
	}
	return conn, nil
}
