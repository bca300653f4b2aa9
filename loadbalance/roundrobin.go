package loadbalance

import (
	"fmt"
	"sync/atomic"

	"github.com/peerlink/peerlink/discovery"
)

// RoundRobinBalancer distributes dials evenly across all endpoints in
// order. Uses an atomic counter for lock-free, goroutine-safe operation.
//
// Best for: equal-capacity listeners.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(endpoints []discovery.Endpoint) (*discovery.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(endpoints))
	return &endpoints[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
