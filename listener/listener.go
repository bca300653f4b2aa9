// Package listener implements the accept/pairing state machine of §4.7:
// a background goroutine accepts raw sockets, classifies each arrival as
// either an "init" arrival (a client's heartbeat socket requesting a
// token) or a "pairing" arrival (a client's main socket presenting a
// previously issued token), and emits completed Connections through a
// bounded accepted-connection queue.
//
// It is grounded on the teacher's server.Server: the accept loop pattern
// (net.Listener.Accept in a loop, atomic shutdown flag, sync.WaitGroup
// draining in-flight work) comes straight from server.Serve/handleConn,
// generalized from "dispatch an RPC request" to "run the pairing state
// machine for one raw socket".
package listener

import (
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/peerlink/peerlink/conn"
	"github.com/peerlink/peerlink/discovery"
	"github.com/peerlink/peerlink/netutil"
	"github.com/peerlink/peerlink/perr"
	"github.com/peerlink/peerlink/pllog"
	"github.com/peerlink/peerlink/wire"
)

// tokenBound keeps the issued token counter within [1, tokenBound], the
// range §4.7 requires for a one-shot pairing token.
const tokenBound = int64(math.MaxInt64 - 1)

// Listener is the passive side of the pairing handshake: it owns the
// listening socket, the pending-peer table keyed by one-shot tokens, and
// the bounded queue of completed Connections waiting on Accept.
type Listener struct {
	ln     *net.TCPListener
	opts   Options
	active atomic.Bool

	pending sync.Map // map[int64]*netutil.Socket
	counter atomic.Int64

	queue chan *conn.Connection

	wg sync.WaitGroup
}

// New starts listening on the wildcard address at port and launches the
// accept loop. Construction fails only if the listening socket itself
// cannot be created or bound.
func New(port int, opts ...Option) (*Listener, error) {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	o = o.withDefaults()

	addr := &net.TCPAddr{Port: port}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, perr.New(perr.Listening, err)
	}

	l := &Listener{
		ln:    ln,
		opts:  o,
		queue: make(chan *conn.Connection, o.QueueSize),
	}
	l.active.Store(true)

	if o.Registry != nil && o.AdvertiseName != "" {
		advertiseAddr := o.AdvertiseAddr
		if advertiseAddr == "" {
			advertiseAddr = ln.Addr().String()
		}
		if err := o.Registry.Register(o.AdvertiseName, discovery.Endpoint{Addr: advertiseAddr}, 10); err != nil {
			o.Logger.Log("listener", "register", err.Error(), pllog.Warning)
		}
	}

	l.wg.Add(1)
	go l.acceptLoop()
	return l, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// IsListenerOpen reports whether the listener is still active.
func (l *Listener) IsListenerOpen() bool { return l.active.Load() }

// Accept blocks for the next completed Connection. If the listener is
// closed while a caller is waiting, it returns ConnectionBreak.
func (l *Listener) Accept() (*conn.Connection, error) {
	c, ok := <-l.queue
	if !ok {
		return nil, perr.New(perr.ConnectionBreak, nil)
	}
	if c == nil {
		return nil, perr.New(perr.NoData, nil)
	}
	return c, nil
}

// Close stops accepting new connections, joins the accept loop goroutine,
// and unblocks any caller currently blocked in Accept.
func (l *Listener) Close() error {
	l.active.Store(false)
	err := l.ln.Close()
	l.wg.Wait()
	close(l.queue)

	l.pending.Range(func(key, val any) bool {
		if sock, ok := val.(*netutil.Socket); ok {
			sock.Close()
		}
		l.pending.Delete(key)
		return true
	})

	if l.opts.Registry != nil && l.opts.AdvertiseName != "" {
		advertiseAddr := l.opts.AdvertiseAddr
		if advertiseAddr == "" {
			advertiseAddr = l.ln.Addr().String()
		}
		_ = l.opts.Registry.Deregister(l.opts.AdvertiseName, advertiseAddr)
	}
	if err != nil {
		return perr.New(perr.Listening, err)
	}
	return nil
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		if !l.active.Load() {
			return
		}

		_ = l.ln.SetDeadline(time.Now().Add(time.Duration(l.opts.LoopPeriodMS) * time.Millisecond))
		raw, err := l.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if !l.active.Load() {
				return
			}
			l.opts.Logger.Log("listener", "accept", err.Error(), pllog.Warning)
			continue
		}

		if !l.active.Load() {
			raw.Close()
			return
		}

		if !l.opts.RateLimiter.Allow() {
			raw.Close()
			continue
		}

		l.wg.Add(1)
		go l.handleArrival(raw)
	}
}

// handleArrival runs §4.7 steps 3-4 for one freshly accepted raw socket.
func (l *Listener) handleArrival(raw net.Conn) {
	defer l.wg.Done()
	sock := netutil.New(raw)

	_, ok, err := sock.WaitForData(l.opts.PingThresholdMS)
	if err != nil || !ok {
		_ = wire.WriteField(sock, 0)
		raw.Close()
		return
	}

	mode, err := wire.ReadField(sock)
	if err != nil {
		raw.Close()
		return
	}

	switch {
	case mode == 0:
		l.handleInitArrival(sock)
	default:
		l.handlePairingArrival(sock, mode)
	}
}

func (l *Listener) handleInitArrival(sock *netutil.Socket) {
	token := l.nextToken()

	if old, loaded := l.pending.Swap(token, sock); loaded {
		// Collision under rotation: drop the stale pending entry rather
		// than refuse the new one, per §4.7/§9.
		if oldSock, ok := old.(*netutil.Socket); ok {
			oldSock.Close()
		}
	}

	if err := wire.WriteField(sock, token); err != nil {
		l.pending.Delete(token)
		sock.Close()
		return
	}
}

func (l *Listener) handlePairingArrival(sock *netutil.Socket, token int64) {
	val, loaded := l.pending.LoadAndDelete(token)
	if !loaded {
		_ = wire.WriteByte(sock, '0')
		sock.Close()
		return
	}
	hbSock := val.(*netutil.Socket)

	if err := wire.WriteByte(sock, '1'); err != nil {
		hbSock.Close()
		sock.Close()
		return
	}

	c := conn.NewServerAcceptor(hbSock, sock, conn.Options{
		PingThresholdMS: l.opts.PingThresholdMS,
		LoopPeriodMS:    l.opts.LoopPeriodMS,
		Logger:          l.opts.Logger,
	})

	select {
	case l.queue <- c:
	default:
		l.opts.Logger.Log("listener", "enqueue", "accepted queue full, dropping connection", pllog.Warning)
		c.Stop()
	}
}

func (l *Listener) nextToken() int64 {
	v := l.counter.Add(1)
	return (v % tokenBound) + 1
}
