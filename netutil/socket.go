// Package netutil implements the single-socket readiness waiter used by
// every protocol layer above it: wait up to a millisecond timeout for a
// socket to become readable, returning elapsed time on success.
//
// Go's net.Conn has no non-consuming "is this fd readable" primitive
// comparable to a raw poll/select call, so Socket peeks exactly one byte
// under a read deadline and holds it for the next real Read — the
// standard idiomatic workaround (the same trick bufio.Reader.Peek relies
// on), kept minimal here so it composes with wire's exact-length reads
// instead of bufio's own buffering.
package netutil

import (
	"net"
	"sync"
	"time"

	"github.com/peerlink/peerlink/perr"
)

// Socket wraps a net.Conn, adding WaitForData. It satisfies net.Conn
// itself so callers (wire, heartbeat, conn) can use it as a drop-in
// replacement for the raw connection.
type Socket struct {
	net.Conn

	mu       sync.Mutex
	peekByte byte
	hasPeek  bool
}

// New wraps conn in a Socket.
func New(conn net.Conn) *Socket {
	return &Socket{Conn: conn}
}

// Read consumes the peeked byte (if WaitForData stashed one) before
// falling through to the underlying connection.
func (s *Socket) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	if s.hasPeek {
		s.hasPeek = false
		b := s.peekByte
		s.mu.Unlock()
		p[0] = b
		if len(p) == 1 {
			return 1, nil
		}
		n, err := s.Conn.Read(p[1:])
		return n + 1, err
	}
	s.mu.Unlock()
	return s.Conn.Read(p)
}

// WaitForData blocks up to timeoutMS milliseconds for the socket to
// become readable. On readable, it returns the elapsed milliseconds and
// ok=true. On timeout it returns ok=false with a nil error. A timeout of
// 0 performs a non-blocking poll. A connection reset is raised as
// ConnectionBreak; any other I/O failure is raised as IncomeChecking.
func (s *Socket) WaitForData(timeoutMS int) (elapsedMS int64, ok bool, err error) {
	s.mu.Lock()
	if s.hasPeek {
		s.mu.Unlock()
		return 0, true, nil
	}
	s.mu.Unlock()

	entry := time.Now()
	deadline := entry.Add(time.Duration(timeoutMS) * time.Millisecond)
	if timeoutMS <= 0 {
		deadline = entry
	}
	if err := s.Conn.SetReadDeadline(deadline); err != nil {
		return 0, false, perr.New(perr.IncomeChecking, err)
	}
	defer s.Conn.SetReadDeadline(time.Time{})

	var buf [1]byte
	n, readErr := s.Conn.Read(buf[:])
	if readErr != nil {
		if ne, isNetErr := readErr.(net.Error); isNetErr && ne.Timeout() {
			return 0, false, nil
		}
		return 0, false, perr.Classify(perr.IncomeChecking, readErr)
	}
	if n == 0 {
		return 0, false, nil
	}

	s.mu.Lock()
	s.peekByte = buf[0]
	s.hasPeek = true
	s.mu.Unlock()

	return time.Since(entry).Milliseconds(), true, nil
}
