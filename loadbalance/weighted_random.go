package loadbalance

import (
	"fmt"
	"math/rand"

	"hubrpc/registry"
)

// WeightedRandomBalancer picks an endpoint at random, weighted by
// registry.Endpoint.Weight, for hubs running on heterogeneous hardware.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}

	totalWeight := 0
	for _, e := range endpoints {
		totalWeight += e.Weight
	}

	r := rand.Intn(totalWeight)
	for i := range endpoints {
		r -= endpoints[i].Weight
		if r < 0 {
			return &endpoints[i], nil
		}
	}

	return nil, fmt.Errorf("loadbalance: unexpected error in weighted random selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
