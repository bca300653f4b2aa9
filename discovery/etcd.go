package discovery

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry implements Registry using etcd v3, the way the teacher's
// EtcdRegistry backs service discovery for mini-RPC: a TTL lease per
// registration, renewed by KeepAlive, with the key namespaced by name.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

func key(name, addr string) string {
	return "/peerlink/" + name + "/" + addr
}

func prefix(name string) string {
	return "/peerlink/" + name + "/"
}

// Register stores ep under name with a TTL lease and starts a background
// KeepAlive renewal, draining its response channel so it never blocks.
func (r *EtcdRegistry) Register(name string, ep Endpoint, ttlSeconds int64) error {
	ctx := context.Background()

	lease, err := r.client.Grant(ctx, ttlSeconds)
	if err != nil {
		return err
	}

	val, err := json.Marshal(ep)
	if err != nil {
		return err
	}

	if _, err := r.client.Put(ctx, key(name, ep.Addr), string(val), clientv3.WithLease(lease.ID)); err != nil {
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

// Deregister removes name's entry for addr.
func (r *EtcdRegistry) Deregister(name string, addr string) error {
	_, err := r.client.Delete(context.Background(), key(name, addr))
	return err
}

// Discover lists all endpoints currently registered under name.
func (r *EtcdRegistry) Discover(name string) ([]Endpoint, error) {
	resp, err := r.client.Get(context.Background(), prefix(name), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var ep Endpoint
		if err := json.Unmarshal(kv.Value, &ep); err != nil {
			continue
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// Watch re-fetches and emits the full endpoint list for name on every
// change under its prefix.
func (r *EtcdRegistry) Watch(name string) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)
	go func() {
		watchChan := r.client.Watch(context.Background(), prefix(name), clientv3.WithPrefix())
		for range watchChan {
			endpoints, err := r.Discover(name)
			if err != nil {
				continue
			}
			ch <- endpoints
		}
	}()
	return ch
}
