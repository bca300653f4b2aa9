package conn

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/peerlink/peerlink/netutil"
)

func pipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	acceptCh := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		acceptCh <- c
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	server := <-acceptCh
	return client, server
}

func newPairedConnections(t *testing.T) (client, server *Connection) {
	t.Helper()
	clientHB, serverHB := pipe(t)
	clientMain, serverMain := pipe(t)

	opts := Options{PingThresholdMS: 200, LoopPeriodMS: 20}

	client = NewClientInitiator(netutil.New(clientHB), netutil.New(clientMain), opts)
	server = NewServerAcceptor(netutil.New(serverHB), netutil.New(serverMain), opts)
	return client, server
}

func waitConnected(t *testing.T, c *Connection) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.IsConnected() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expect connection to become connected before deadline")
}

func TestSendReceiveSmall(t *testing.T) {
	client, server := newPairedConnections(t)
	defer client.Stop()
	defer server.Stop()

	waitConnected(t, client)
	waitConnected(t, server)

	msg := []byte("hello peerlink")
	if err := client.Send(msg); err != nil {
		t.Fatal(err)
	}

	got, err := server.Receive(1000)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("expect %q, got %q", msg, got)
	}
}

func TestSendReceiveMultiBlock(t *testing.T) {
	client, server := newPairedConnections(t)
	defer client.Stop()
	defer server.Stop()

	waitConnected(t, client)
	waitConnected(t, server)

	msg := bytes.Repeat([]byte("x"), 2*1024+37)
	if err := client.Send(msg); err != nil {
		t.Fatal(err)
	}

	got, err := server.Receive(1000)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("expect %d bytes round-tripped, got %d", len(msg), len(got))
	}
}

func TestSendReceiveExactBlock(t *testing.T) {
	client, server := newPairedConnections(t)
	defer client.Stop()
	defer server.Stop()

	waitConnected(t, client)
	waitConnected(t, server)

	msg := bytes.Repeat([]byte("y"), 1024)
	if err := client.Send(msg); err != nil {
		t.Fatal(err)
	}

	got, err := server.Receive(1000)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("expect exact block round trip, got %d bytes", len(got))
	}
}

func TestReceiveTimeoutWhileAlive(t *testing.T) {
	client, server := newPairedConnections(t)
	defer client.Stop()
	defer server.Stop()

	waitConnected(t, client)
	waitConnected(t, server)

	got, err := server.Receive(50)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expect nil payload on timeout with no data sent")
	}
}

func TestConcurrentSendRejected(t *testing.T) {
	client, server := newPairedConnections(t)
	defer client.Stop()
	defer server.Stop()

	waitConnected(t, client)
	waitConnected(t, server)

	client.sendMu.Lock()
	err := client.Send([]byte("x"))
	client.sendMu.Unlock()
	if err == nil {
		t.Fatal("expect Multithreading error when sendMu already held")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	client, _ := newPairedConnections(t)
	if err := client.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := client.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestStopMarksDisconnected(t *testing.T) {
	client, server := newPairedConnections(t)
	defer server.Stop()

	waitConnected(t, client)
	client.Stop()

	if client.IsConnected() {
		t.Fatal("expect IsConnected=false after Stop")
	}
}
