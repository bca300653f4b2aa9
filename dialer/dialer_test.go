package dialer

import (
	"errors"
	"sync"
	"testing"

	"github.com/peerlink/peerlink/discovery"
	"github.com/peerlink/peerlink/listener"
	"github.com/peerlink/peerlink/loadbalance"
)

// fakeRegistry is an in-memory discovery.Registry for tests that don't
// want to depend on a live etcd, mirroring the shape the teacher's own
// registry.Registry interface is built around.
type fakeRegistry struct {
	mu        sync.Mutex
	endpoints map[string][]discovery.Endpoint
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{endpoints: make(map[string][]discovery.Endpoint)}
}

func (r *fakeRegistry) Register(name string, ep discovery.Endpoint, ttlSeconds int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[name] = append(r.endpoints[name], ep)
	return nil
}

func (r *fakeRegistry) Deregister(name, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	eps := r.endpoints[name]
	out := eps[:0]
	for _, ep := range eps {
		if ep.Addr != addr {
			out = append(out, ep)
		}
	}
	r.endpoints[name] = out
	return nil
}

func (r *fakeRegistry) Discover(name string) ([]discovery.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eps := r.endpoints[name]
	if len(eps) == 0 {
		return nil, errors.New("fakeRegistry: no endpoints for " + name)
	}
	out := make([]discovery.Endpoint, len(eps))
	copy(out, eps)
	return out, nil
}

func (r *fakeRegistry) Watch(name string) <-chan []discovery.Endpoint {
	ch := make(chan []discovery.Endpoint)
	close(ch)
	return ch
}

func TestDialPeerResolvesThroughRegistry(t *testing.T) {
	ln, err := listener.New(0, listener.WithPingThreshold(200), listener.WithLoopPeriod(20))
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	reg := newFakeRegistry()
	reg.Register("echo-service", discovery.Endpoint{Addr: ln.Addr().String(), Weight: 1}, 10)

	d := New(
		WithPingThreshold(200),
		WithLoopPeriod(20),
		WithDiscovery(reg, &loadbalance.RoundRobinBalancer{}),
	)

	acceptCh := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		acceptCh <- err
	}()

	c, err := d.DialPeer("echo-service")
	if err != nil {
		t.Fatalf("DialPeer failed: %v", err)
	}
	defer c.Stop()

	if err := <-acceptCh; err != nil {
		t.Fatalf("listener failed to accept the resolved peer: %v", err)
	}
}

func TestDialPeerWithoutRegistry(t *testing.T) {
	d := New()
	if _, err := d.DialPeer("anything"); err == nil {
		t.Fatal("expect error when no Registry is configured")
	}
}
