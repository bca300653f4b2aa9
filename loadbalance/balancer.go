// Package loadbalance selects one discovery.Endpoint from several when a
// dialer resolves a peer name to more than one registered address — a
// domain-stack addition with no analogue in the single-address §4.8
// client connector, exercised only when a Dialer is configured with a
// discovery.Registry.
//
// Strategies mirror the teacher's loadbalance package (RoundRobin,
// WeightedRandom, ConsistentHash), renamed from RPC service instances to
// peerlink endpoints.
package loadbalance

import "github.com/peerlink/peerlink/discovery"

// Balancer picks one endpoint from the available set. Implementations
// must be goroutine-safe; Pick is called on every dial.
type Balancer interface {
	Pick(endpoints []discovery.Endpoint) (*discovery.Endpoint, error)
	Name() string
}
