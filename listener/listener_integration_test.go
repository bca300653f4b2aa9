package listener_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/peerlink/peerlink/dialer"
	"github.com/peerlink/peerlink/listener"
)

func TestPairingHandshakeAndEcho(t *testing.T) {
	ln, err := listener.New(0, listener.WithPingThreshold(200), listener.WithLoopPeriod(20))
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	d := dialer.New(dialer.WithPingThreshold(200), dialer.WithLoopPeriod(20))

	type acceptResult struct {
		c   interface {
			Send([]byte) error
			Receive(int) ([]byte, error)
			Stop() error
		}
		err error
	}
	acceptCh := make(chan acceptResult, 1)
	go func() {
		c, err := ln.Accept()
		acceptCh <- acceptResult{c, err}
	}()

	clientConn, err := d.Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer clientConn.Stop()

	var server acceptResult
	select {
	case server = <-acceptCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for listener to accept")
	}
	if server.err != nil {
		t.Fatalf("accept failed: %v", server.err)
	}
	defer server.c.Stop()

	msg := []byte("ping from client")
	if err := clientConn.Send(msg); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	got, err := server.c.Receive(1000)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("expect %q, got %q", msg, got)
	}

	reply := []byte("pong from server")
	if err := server.c.Send(reply); err != nil {
		t.Fatalf("reply send failed: %v", err)
	}
	gotReply, err := clientConn.Receive(1000)
	if err != nil {
		t.Fatalf("reply receive failed: %v", err)
	}
	if !bytes.Equal(gotReply, reply) {
		t.Fatalf("expect %q, got %q", reply, gotReply)
	}
}

func TestListenerCloseUnblocksAccept(t *testing.T) {
	ln, err := listener.New(0, listener.WithPingThreshold(200), listener.WithLoopPeriod(20))
	if err != nil {
		t.Fatal(err)
	}

	doneCh := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		doneCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	ln.Close()

	select {
	case err := <-doneCh:
		if err == nil {
			t.Fatal("expect ConnectionBreak after Close unblocks Accept")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expect Accept to unblock promptly after Close")
	}
}

func TestDialRejectedWhenNoListener(t *testing.T) {
	d := dialer.New()
	_, err := d.Dial("127.0.0.1:1")
	if err == nil {
		t.Fatal("expect dial to a closed port to fail")
	}
}
