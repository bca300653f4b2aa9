// Package perr implements the closed error taxonomy described in §4.3 and
// §7 of the connection library's specification. Every failure the core
// raises is one of a fixed set of kinds, optionally carrying the
// underlying platform error and a "message leak" flag marking a short
// framed transfer rather than an OS-reported failure.
package perr

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind is the closed set of failure classes.
type Kind int

const (
	SocketCreation Kind = iota
	Binding
	Listening
	Acceptance
	Connection
	Receiving
	Sending
	ConnectionBreak
	Setting
	IncomeChecking
	NoData
	Multithreading
)

func (k Kind) String() string {
	switch k {
	case SocketCreation:
		return "SocketCreation"
	case Binding:
		return "Binding"
	case Listening:
		return "Listening"
	case Acceptance:
		return "Acceptance"
	case Connection:
		return "Connection"
	case Receiving:
		return "Receiving"
	case Sending:
		return "Sending"
	case ConnectionBreak:
		return "ConnectionBreak"
	case Setting:
		return "Setting"
	case IncomeChecking:
		return "IncomeChecking"
	case NoData:
		return "NoData"
	case Multithreading:
		return "Multithreading"
	default:
		return "Unknown"
	}
}

// Error is the library's tagged error type. Cause is the wrapped platform
// error, if any; Leak marks a short send/receive rather than an OS error.
type Error struct {
	Kind  Kind
	Leak  bool
	Cause error
}

// New builds an Error of the given kind wrapping cause (which may be nil).
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Leaked builds a Sending/Receiving Error whose rendered message notes a
// short transfer instead of an OS error.
func Leaked(kind Kind) *Error {
	return &Error{Kind: kind, Leak: true}
}

func (e *Error) Error() string {
	if e.Leak {
		action := "received"
		if e.Kind == Sending {
			action = "sent"
		}
		return fmt.Sprintf("%s: the message could not be %s in full", e.Kind, action)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match two *Error values by Kind alone, the way a
// caller discriminates on the taxonomy rather than on message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsKind reports whether err is (or wraps) a perr.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsConnReset reports whether err is an ECONNRESET, the one OS error the
// spec requires remapping to ConnectionBreak regardless of which socket
// saw it.
func IsConnReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}

// Classify maps a raw I/O error to the taxonomy, following §4.5/§4.6:
// ECONNRESET always becomes ConnectionBreak; anything else becomes the
// given default kind carrying the platform error.
func Classify(defaultKind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	if IsConnReset(err) {
		return New(ConnectionBreak, err)
	}
	return New(defaultKind, err)
}
