package discovery

import (
	"testing"
	"time"
)

// TestRegisterAndDiscover requires a live etcd at localhost:2379, matching
// the teacher's own EtcdRegistry test — service discovery integration
// tests hit a real etcd rather than mocking the client.
func TestRegisterAndDiscover(t *testing.T) {
	reg, err := NewEtcdRegistry([]string{"localhost:2379"})
	if err != nil {
		t.Fatal(err)
	}

	ep1 := Endpoint{Addr: "127.0.0.1:9001", Weight: 10}
	ep2 := Endpoint{Addr: "127.0.0.1:9002", Weight: 5}

	if err := reg.Register("echo", ep1, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("echo", ep2, 10); err != nil {
		t.Fatal(err)
	}

	endpoints, err := reg.Discover("echo")
	if err != nil {
		t.Fatal(err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("expect 2 endpoints, got %d", len(endpoints))
	}

	if err := reg.Deregister("echo", ep1.Addr); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	endpoints, err = reg.Discover("echo")
	if err != nil {
		t.Fatal(err)
	}
	if len(endpoints) != 1 {
		t.Fatalf("expect 1 endpoint after deregister, got %d", len(endpoints))
	}
	if endpoints[0].Addr != ep2.Addr {
		t.Fatalf("expect %s, got %s", ep2.Addr, endpoints[0].Addr)
	}

	reg.Deregister("echo", ep2.Addr)
}
