package heartbeat

import "sync"

// Role selects which half of the heartbeat protocol a Worker runs. Exactly
// one is active per live connection.
type Role int

const (
	// RoleClientInitiator measures RTT and drives the ping/delay exchange.
	RoleClientInitiator Role = iota
	// RoleServerAcceptor reflects the RTT measurement back to the initiator.
	RoleServerAcceptor
)

// State is the shared, mutex-guarded (ping, active) cell. Both the owning
// Connection and its background Worker hold a handle to the same *State;
// moving the Connection only relocates the outer handle, so the worker
// never needs to chase a self-pointer across a move — it already has the
// one thing that can change, not the thing that holds it.
type State struct {
	mu     sync.Mutex
	ping   int64
	active bool
}

// NewState returns a State for a freshly paired connection: active, with
// no RTT measured yet.
func NewState() *State {
	return &State{ping: -1, active: true}
}

// Snapshot returns the current ping and active flag together, the unit in
// which both the worker and user-facing accessors must read them.
func (s *State) Snapshot() (ping int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ping, s.active
}

// SetPing publishes a newly measured RTT (or the -1 dead sentinel).
func (s *State) SetPing(v int64) {
	s.mu.Lock()
	s.ping = v
	s.mu.Unlock()
}

// MarkDead records that the heartbeat has declared the connection dead:
// ping becomes the -1 sentinel and the active flag is cleared.
func (s *State) MarkDead() {
	s.mu.Lock()
	s.ping = -1
	s.active = false
	s.mu.Unlock()
}

// Stop clears the active flag and sets ping to the dead sentinel, keeping
// the §3 invariant "ms_ping == -1 iff the connection is no longer usable"
// true immediately rather than waiting on the worker's own exit path.
func (s *State) Stop() {
	s.mu.Lock()
	s.active = false
	s.ping = -1
	s.mu.Unlock()
}
