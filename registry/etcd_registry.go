// Package registry's etcd-backed implementation.
//
// etcd is a distributed key-value store with strong consistency (Raft
// protocol). It serves as a phonebook for hub endpoints:
//
//	Key:   /hubrpc/{MethodDescriptor}/{Addr}
//	Value: JSON-encoded Endpoint
//
// Registration uses TTL-based leases: if a hub server crashes, its lease
// expires and the entry is automatically removed, preventing "ghost"
// endpoints from being handed to loadbalance.
package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry implements Registry using etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry creates a new registry connected to the given etcd
// endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register adds an endpoint for methodDescriptor to etcd with a TTL
// lease, then starts a background KeepAlive to renew it.
//
// leaseID is a local variable, not stored on the struct: storing it would
// race when multiple callers share one EtcdRegistry to register different
// method descriptors concurrently.
func (r *EtcdRegistry) Register(methodDescriptor string, endpoint Endpoint, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(endpoint)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, "/hubrpc/"+methodDescriptor+"/"+endpoint.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes an endpoint from etcd. Called during graceful
// shutdown before a hub server stops accepting streams.
func (r *EtcdRegistry) Deregister(methodDescriptor string, addr string) error {
	ctx := context.TODO()
	_, err := r.client.Delete(ctx, "/hubrpc/"+methodDescriptor+"/"+addr)
	return err
}

// Watch monitors a method descriptor's prefix in etcd and emits the
// updated endpoint list whenever it changes, using etcd's server-push
// Watch API rather than polling.
func (r *EtcdRegistry) Watch(methodDescriptor string) <-chan []Endpoint {
	ctx := context.TODO()
	ch := make(chan []Endpoint, 1)
	prefix := "/hubrpc/" + methodDescriptor + "/"

	go func() {
		watchChan := r.client.Watch(ctx, prefix, clientv3.WithPrefix())
		for range watchChan {
			// Re-fetch the full list on any change rather than parsing
			// individual watch events.
			endpoints, _ := r.Discover(methodDescriptor)
			ch <- endpoints
		}
	}()

	return ch
}

// Discover returns every endpoint currently registered for
// methodDescriptor.
func (r *EtcdRegistry) Discover(methodDescriptor string) ([]Endpoint, error) {
	ctx := context.TODO()
	prefix := "/hubrpc/" + methodDescriptor + "/"

	resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var endpoint Endpoint
		if err := json.Unmarshal(kv.Value, &endpoint); err != nil {
			continue // skip malformed entries
		}
		endpoints = append(endpoints, endpoint)
	}

	return endpoints, nil
}
