package perr

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestLeakedError(t *testing.T) {
	err := Leaked(Sending)
	if err.Error() == "" {
		t.Fatal("expect non-empty message")
	}
	if !err.Leak {
		t.Fatal("expect Leak=true")
	}
}

func TestIsKind(t *testing.T) {
	err := New(ConnectionBreak, nil)
	if !IsKind(err, ConnectionBreak) {
		t.Fatal("expect IsKind to match")
	}
	if IsKind(err, Receiving) {
		t.Fatal("expect IsKind not to match a different kind")
	}
}

func TestErrorsIsByKind(t *testing.T) {
	a := New(ConnectionBreak, fmt.Errorf("boom"))
	b := New(ConnectionBreak, nil)
	if !errors.Is(a, b) {
		t.Fatal("expect errors.Is to match same Kind regardless of Cause")
	}
}

func TestClassifyRemapsConnReset(t *testing.T) {
	wrapped := fmt.Errorf("read: %w", syscall.ECONNRESET)
	got := Classify(Receiving, wrapped)
	if got.Kind != ConnectionBreak {
		t.Fatalf("expect ConnectionBreak, got %v", got.Kind)
	}
}

func TestClassifyDefaultKind(t *testing.T) {
	got := Classify(Sending, fmt.Errorf("some other failure"))
	if got.Kind != Sending {
		t.Fatalf("expect Sending, got %v", got.Kind)
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(Sending, nil) != nil {
		t.Fatal("expect nil passthrough")
	}
}
