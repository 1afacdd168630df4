package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"hubrpc/registry"
)

// ConsistentHashBalancer maps keys to endpoints using a hash ring. The
// same key always maps to the same endpoint until the ring changes,
// giving cache/session affinity for hubs that keep per-connection state.
//
// Each real endpoint is mapped to 100 virtual nodes on the ring; without
// virtual nodes a handful of endpoints can cluster together on the ring,
// causing uneven load.
type ConsistentHashBalancer struct {
	replicas int
	ring     []uint32
	nodes    map[uint32]*registry.Endpoint
}

// NewConsistentHashBalancer creates a hash ring with 100 virtual nodes per
// endpoint.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		ring:     []uint32{},
		nodes:    make(map[uint32]*registry.Endpoint),
	}
}

// Add places an endpoint onto the hash ring with its virtual nodes, each
// hashed from "{addr}#{i}" to spread evenly across the ring.
func (b *ConsistentHashBalancer) Add(endpoint *registry.Endpoint) {
	for i := 0; i < b.replicas; i++ {
		key := fmt.Sprintf("%s#%d", endpoint.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = endpoint
	}
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// Pick finds the endpoint responsible for the given key: hash the key,
// then take the first node on the ring whose hash is >= the key's hash,
// wrapping around to the first node if the key's hash exceeds all of
// them.
//
// Pick takes a string key rather than a slice of endpoints, since
// consistent hashing is key-based; it does not implement Balancer
// directly.
func (b *ConsistentHashBalancer) Pick(key string) (*registry.Endpoint, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}

	hash := crc32.ChecksumIEEE([]byte(key))

	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}

	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
