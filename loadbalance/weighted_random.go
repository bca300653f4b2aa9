package loadbalance

import (
	"fmt"
	"math/rand"

	"github.com/peerlink/peerlink/discovery"
)

// WeightedRandomBalancer selects endpoints probabilistically based on
// their weight: an endpoint with weight 10 gets roughly 2x the traffic of
// one with weight 5.
//
// Best for: heterogeneous listeners (e.g. some hosts have more capacity).
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(endpoints []discovery.Endpoint) (*discovery.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}

	totalWeight := 0
	for _, v := range endpoints {
		totalWeight += v.Weight
	}
	if totalWeight <= 0 {
		return &endpoints[rand.Intn(len(endpoints))], nil
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
