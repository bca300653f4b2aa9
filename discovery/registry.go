// Package discovery is a domain-stack addition: an optional address book
// so a dialer can resolve a named peer instead of a hardcoded host:port,
// and a listener can advertise itself under a name. Nothing in the core
// pairing handshake depends on it — a Dialer.Dial(addr) call never
// touches this package.
//
// It is grounded on the teacher's registry package (registry.Registry /
// registry.EtcdRegistry), with ServiceInstance renamed Endpoint and the
// etcd keyspace moved under "/peerlink/" instead of "/mini-rpc/".
package discovery

// Endpoint is one registered, reachable listener.
type Endpoint struct {
	Addr   string // host:port of the listener's accept port
	Weight int    // used by loadbalance.Balancer implementations
}

// Registry is the service-discovery interface. EtcdRegistry is the
// production implementation; tests may supply an in-memory fake.
type Registry interface {
	// Register advertises an endpoint under name with a TTL-based lease;
	// the entry disappears automatically if KeepAlive stops.
	Register(name string, ep Endpoint, ttlSeconds int64) error

	// Deregister removes an endpoint. Listener.Close calls it during
	// shutdown, after the accept loop has stopped.
	Deregister(name string, addr string) error

	// Discover returns all currently registered endpoints for name.
	Discover(name string) ([]Endpoint, error)

	// Watch emits updated endpoint lists whenever name's registration set
	// changes.
	Watch(name string) <-chan []Endpoint
}
