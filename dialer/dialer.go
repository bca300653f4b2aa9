// Package dialer implements the client connector of §4.8: the mirror of
// the listener's pairing state machine, run from the initiating side.
//
// It is grounded on the teacher's client.Client — Call's
// discover-then-balance-then-connect flow is reused almost verbatim in
// DialPeer, generalized from "pick an RPC server instance" to "pick a
// peerlink listener endpoint" — while Dial itself has no teacher
// analogue (mini-RPC dials a single multiplexed socket; peerlink dials
// a heartbeat socket and a main socket and runs the §4.8 handshake
// across both).
package dialer

import (
	"errors"
	"net"
	"time"

	"github.com/peerlink/peerlink/conn"
	"github.com/peerlink/peerlink/netutil"
	"github.com/peerlink/peerlink/perr"
	"github.com/peerlink/peerlink/pllog"
	"github.com/peerlink/peerlink/wire"
)

// defaultKeepAlivePeriod is the OS-level TCP keep-alive period set on the
// main socket. It is far longer than the heartbeat cadence and ping
// threshold, so the application-level heartbeat detects a dead peer first.
const defaultKeepAlivePeriod = 30 * time.Second

var errNoRegistry = errors.New("dialer: no discovery.Registry configured")

// Dialer opens peerlink connections against a listener's accept port.
type Dialer struct {
	opts Options
}

// New builds a Dialer.
func New(opts ...Option) *Dialer {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dialer{opts: o.withDefaults()}
}

// Dial performs the full §4.8 handshake against addr and returns a
// Connection running the client-initiator heartbeat half. Any
// intermediate failure closes every socket already opened in this
// attempt.
func (d *Dialer) Dial(addr string) (*conn.Connection, error) {
	hbRaw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, perr.New(perr.Connection, err)
	}
	hbSock := netutil.New(hbRaw)

	if err := wire.WriteField(hbSock, 0); err != nil {
		hbSock.Close()
		return nil, err
	}

	if _, ok, err := hbSock.WaitForData(d.opts.PingThresholdMS); err != nil || !ok {
		hbSock.Close()
		if err != nil {
			return nil, err
		}
		return nil, perr.New(perr.Acceptance, nil)
	}

	token, err := wire.ReadField(hbSock)
	if err != nil {
		hbSock.Close()
		return nil, err
	}
	if token == 0 {
		hbSock.Close()
		return nil, perr.New(perr.Acceptance, nil)
	}

	mainRaw, err := net.Dial("tcp", addr)
	if err != nil {
		hbSock.Close()
		return nil, perr.New(perr.SocketCreation, err)
	}
	if tcpConn, ok := mainRaw.(*net.TCPConn); ok {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			hbSock.Close()
			mainRaw.Close()
			return nil, perr.New(perr.SocketCreation, err)
		}
		_ = tcpConn.SetKeepAlivePeriod(defaultKeepAlivePeriod)
	}
	mainSock := netutil.New(mainRaw)

	if err := wire.WriteField(mainSock, token); err != nil {
		hbSock.Close()
		mainSock.Close()
		return nil, err
	}

	if _, ok, err := mainSock.WaitForData(d.opts.PingThresholdMS); err != nil || !ok {
		hbSock.Close()
		mainSock.Close()
		if err != nil {
			return nil, err
		}
		return nil, perr.New(perr.Acceptance, nil)
	}

	confirm, err := wire.ReadByte(mainSock)
	if err != nil {
		hbSock.Close()
		mainSock.Close()
		return nil, err
	}
	if confirm != '1' {
		hbSock.Close()
		mainSock.Close()
		return nil, perr.New(perr.Acceptance, nil)
	}

	return conn.NewClientInitiator(hbSock, mainSock, conn.Options{
		PingThresholdMS: d.opts.PingThresholdMS,
		LoopPeriodMS:    d.opts.LoopPeriodMS,
		Logger:          d.opts.Logger,
	}), nil
}

// DialPeer resolves name through the configured discovery.Registry,
// selects one endpoint with the configured loadbalance.Balancer, and
// dials it. It is a domain-stack addition with no §4.8 analogue —
// mirroring the teacher's Client.Call discover-then-balance flow ahead
// of the actual connect step.
func (d *Dialer) DialPeer(name string) (*conn.Connection, error) {
	if d.opts.Registry == nil {
		return nil, perr.New(perr.Connection, errNoRegistry)
	}

	endpoints, err := d.opts.Registry.Discover(name)
	if err != nil {
		return nil, perr.New(perr.Connection, err)
	}

	ep, err := d.opts.Balancer.Pick(endpoints)
	if err != nil {
		return nil, perr.New(perr.Connection, err)
	}

	c, err := d.Dial(ep.Addr)
	if err != nil {
		d.opts.Logger.Log("dialer", "dial_peer", err.Error(), pllog.Warning)
		return nil, err
	}
	return c, nil
}
