package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"
	"sync"

	"github.com/peerlink/peerlink/discovery"
)

// ConsistentHashBalancer maps keys to endpoints using a hash ring.
// The same key always maps to the same endpoint (until the ring changes),
// providing affinity — useful when a peer wants repeated dials for the
// same logical key to land on the same remote.
//
// Virtual nodes: each real endpoint is mapped to N virtual nodes on the ring.
// Without virtual nodes, 3 endpoints might cluster together on the ring,
// causing uneven load distribution. 100 virtual nodes per endpoint ensures
// statistical uniformity.
type ConsistentHashBalancer struct {
	replicas int                          // Virtual nodes per real endpoint
	ring     []uint32                     // Sorted hash values on the ring
	nodes    map[uint32]*discovery.Endpoint // Hash value → endpoint mapping
	mu       sync.Mutex                     // Serializes Pick's ring rebuilds
}

// NewConsistentHashBalancer creates a hash ring with 100 virtual nodes per endpoint.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		ring:     []uint32{},
		nodes:    make(map[uint32]*discovery.Endpoint),
	}
}

// Add places an endpoint onto the hash ring with N virtual nodes.
// Each virtual node is hashed from "{addr}#{i}" to spread evenly across the ring.
func (b *ConsistentHashBalancer) Add(ep *discovery.Endpoint) {
	for i := 0; i < b.replicas; i++ {
		key := fmt.Sprintf("%s#%d", ep.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = ep
	}
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// PickKey finds the endpoint responsible for the given key.
// It hashes the key, then binary-searches for the first node >= hash on the ring.
// If the hash is larger than all nodes, it wraps around to the first node (ring property).
func (b *ConsistentHashBalancer) PickKey(key string) (*discovery.Endpoint, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("loadbalance: hash ring is empty")
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

// Pick satisfies the Balancer interface by rebuilding the ring from the
// given endpoints and keying on their joined addresses. Callers that care
// about key affinity across calls should use Add/PickKey directly instead.
func (b *ConsistentHashBalancer) Pick(endpoints []discovery.Endpoint) (*discovery.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring = b.ring[:0]
	b.nodes = make(map[uint32]*discovery.Endpoint, len(endpoints)*b.replicas)
	key := ""
	for i := range endpoints {
		b.Add(&endpoints[i])
		key += endpoints[i].Addr
	}

	return b.PickKey(key)
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
