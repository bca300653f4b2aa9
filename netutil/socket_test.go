package netutil

import (
	"net"
	"testing"
	"time"
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

func TestWaitForDataTimeout(t *testing.T) {
	a, b := pipe(t)
	defer a.Close()
	defer b.Close()

	sock := New(b)
	_, ok, err := sock.WaitForData(50)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expect timeout with no data written")
	}
}

func TestWaitForDataThenRead(t *testing.T) {
	a, b := pipe(t)
	defer a.Close()
	defer b.Close()

	sock := New(b)

	go func() {
		time.Sleep(20 * time.Millisecond)
		a.Write([]byte("hello"))
	}()

	_, ok, err := sock.WaitForData(500)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expect readiness before timeout")
	}

	buf := make([]byte, 5)
	n, err := sock.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || string(buf) != "hello" {
		t.Fatalf("expect to read the peeked byte plus the rest, got %q", buf[:n])
	}
}

func TestWaitForDataDoesNotConsume(t *testing.T) {
	a, b := pipe(t)
	defer a.Close()
	defer b.Close()

	sock := New(b)
	a.Write([]byte("x"))

	_, ok, err := sock.WaitForData(500)
	if err != nil || !ok {
		t.Fatalf("expect readiness, ok=%v err=%v", ok, err)
	}

	// Calling WaitForData again should report readiness instantly from the
	// stashed peek byte, without blocking on a fresh read.
	_, ok2, err2 := sock.WaitForData(500)
	if err2 != nil || !ok2 {
		t.Fatalf("expect still-readable from stashed peek, ok=%v err=%v", ok2, err2)
	}

	buf := make([]byte, 1)
	n, err := sock.Read(buf)
	if err != nil || n != 1 || buf[0] != 'x' {
		t.Fatalf("expect to read the stashed byte 'x', got %q err=%v", buf[:n], err)
	}
}
