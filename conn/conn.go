// Package conn implements the Connection object of §3/§4.5/§4.6/§4.9: the
// pairing of a heartbeat socket and a main socket into one logical,
// symmetric peer connection, exposing Send, Receive, IsAvailable,
// IsConnected, Ping and Stop.
//
// It is grounded on the teacher's transport.ClientTransport — the
// per-connection write mutex serializing frames onto a shared socket, and
// the background heartbeat goroutine started alongside the connection —
// generalized from mini-RPC's single-socket multiplexed frame protocol
// into the spec's dual-socket block-transfer protocol.
package conn

import (
	"sync"

	"go.uber.org/multierr"

	"github.com/peerlink/peerlink/heartbeat"
	"github.com/peerlink/peerlink/netutil"
	"github.com/peerlink/peerlink/perr"
	"github.com/peerlink/peerlink/pllog"
	"github.com/peerlink/peerlink/wire"
)

// Options configures a Connection's heartbeat cadence and logging. Both
// Listener and Dialer build one of these before pairing a Connection.
type Options struct {
	PingThresholdMS int
	LoopPeriodMS    int
	Logger          pllog.Logger
}

const (
	DefaultPingThresholdMS = 1000
	DefaultLoopPeriodMS    = 100
)

func (o Options) withDefaults() Options {
	if o.PingThresholdMS <= 0 {
		o.PingThresholdMS = DefaultPingThresholdMS
	}
	if o.LoopPeriodMS <= 0 {
		o.LoopPeriodMS = DefaultLoopPeriodMS
	}
	if o.Logger == nil {
		o.Logger = pllog.Noop
	}
	return o
}

// Connection is a live pair of TCP sockets (heartbeat + main) plus the
// per-peer liveness state. Exactly one heartbeat goroutine exists per live
// Connection, joined exactly once during Stop.
type Connection struct {
	mainSock *netutil.Socket
	hbSock   *netutil.Socket
	state    *heartbeat.State
	worker   *heartbeat.Worker
	role     heartbeat.Role
	logger   pllog.Logger

	sendMu   sync.Mutex
	stopOnce sync.Once
	stopErr  error
}

func newConnection(hb, main *netutil.Socket, role heartbeat.Role, opts Options) *Connection {
	opts = opts.withDefaults()
	state := heartbeat.NewState()
	worker := heartbeat.NewWorker(hb, state, role, opts.LoopPeriodMS, opts.PingThresholdMS, opts.Logger)

	c := &Connection{
		mainSock: main,
		hbSock:   hb,
		state:    state,
		worker:   worker,
		role:     role,
		logger:   opts.Logger,
	}
	go worker.Run()
	return c
}

// NewServerAcceptor pairs an already-paired (heartbeat, main) socket pair
// into a Connection running the server-acceptor heartbeat half. Used by
// listener once a pairing arrival completes.
func NewServerAcceptor(hb, main *netutil.Socket, opts Options) *Connection {
	return newConnection(hb, main, heartbeat.RoleServerAcceptor, opts)
}

// NewClientInitiator pairs a (heartbeat, main) socket pair into a
// Connection running the client-initiator heartbeat half. Used by dialer
// once the handshake completes.
func NewClientInitiator(hb, main *netutil.Socket, opts Options) *Connection {
	return newConnection(hb, main, heartbeat.RoleClientInitiator, opts)
}

// IsConnected reports is_active ∧ ms_ping ≥ 0 per the spec's fixed
// semantics (§9's Open Question: this is the non-inverted variant).
func (c *Connection) IsConnected() bool {
	ping, active := c.state.Snapshot()
	return active && ping >= 0
}

// IsAvailable reports whether the connection may still be used. A dead
// connection is stopped as a side effect, per §4.9/§7.
func (c *Connection) IsAvailable() (bool, error) {
	if !c.IsConnected() {
		c.Stop()
		return false, perr.New(perr.ConnectionBreak, nil)
	}
	return true, nil
}

// Ping returns the last measured RTT in milliseconds, or -1 if dead.
func (c *Connection) Ping() int64 {
	ping, _ := c.state.Snapshot()
	return ping
}

// Send transmits data on the main socket per §4.5. Concurrent sends on
// the same Connection are rejected with Multithreading rather than
// silently interleaved.
func (c *Connection) Send(data []byte) error {
	if !c.sendMu.TryLock() {
		return perr.New(perr.Multithreading, nil)
	}
	defer c.sendMu.Unlock()

	if !c.IsConnected() {
		return c.classify(perr.New(perr.ConnectionBreak, nil))
	}

	full := len(data) / wire.BlockSize
	rem := len(data) % wire.BlockSize

	if err := wire.WriteBytes(c.mainSock, encodeControl(full, rem)); err != nil {
		return c.classify(err)
	}

	offset := 0
	for i := 0; i < full; i++ {
		if err := wire.WriteBytes(c.mainSock, data[offset:offset+wire.BlockSize]); err != nil {
			return c.classify(err)
		}
		offset += wire.BlockSize
	}

	trailer := make([]byte, rem+1)
	copy(trailer, data[offset:offset+rem])
	if err := wire.WriteBytes(c.mainSock, trailer); err != nil {
		return c.classify(err)
	}
	return nil
}

// Receive waits up to timeoutMS for a framed message on the main socket
// per §4.6. A timeout while the connection is still alive returns (nil,
// nil); a timeout on a dead connection raises ConnectionBreak.
func (c *Connection) Receive(timeoutMS int) ([]byte, error) {
	_, ok, err := c.mainSock.WaitForData(timeoutMS)
	if err != nil {
		return nil, c.classify(err)
	}
	if !ok {
		if !c.IsConnected() {
			c.Stop()
			return nil, perr.New(perr.ConnectionBreak, nil)
		}
		return nil, nil
	}

	ctrlBuf, err := wire.ReadBytes(c.mainSock, 2*wire.FieldWidth)
	if err != nil {
		return nil, c.classify(err)
	}
	full, rem, err := decodeControl(ctrlBuf)
	if err != nil {
		return nil, c.classify(perr.New(perr.Receiving, err))
	}

	out := make([]byte, 0, full*wire.BlockSize+rem)
	for i := 0; i < full; i++ {
		block, err := wire.ReadBytes(c.mainSock, wire.BlockSize)
		if err != nil {
			return nil, c.classify(err)
		}
		out = append(out, block...)
	}

	trailer, err := wire.ReadBytes(c.mainSock, rem+1)
	if err != nil {
		return nil, c.classify(err)
	}
	out = append(out, trailer[:rem]...)
	return out, nil
}

// Stop closes both sockets, joins the heartbeat goroutine, and is
// idempotent: repeated calls are a no-op returning the first result.
func (c *Connection) Stop() error {
	c.stopOnce.Do(func() {
		c.state.Stop()
		mainErr := c.mainSock.Close()
		hbErr := c.hbSock.Close()
		<-c.worker.Done()
		c.stopErr = multierr.Combine(mainErr, hbErr)
	})
	return c.stopErr
}

// classify triggers the implicit stop §7 requires whenever a user call
// observes a ConnectionBreak, so the caller always sees a clean terminal
// state afterward.
func (c *Connection) classify(err error) error {
	if perr.IsKind(err, perr.ConnectionBreak) {
		c.Stop()
	}
	return err
}
