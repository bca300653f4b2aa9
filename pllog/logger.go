// Package pllog defines the logging callback contract used throughout
// peerlink. The core never writes to stdout or a file directly — every
// package accepts a Logger and calls Log with a (module, action, event)
// triple plus a priority, leaving the sink pluggable the way the source
// library treats logging as an external collaborator.
package pllog

// Priority mirrors the four severities the wire logger contract
// recognizes: Error=0, Warning=1, Info=2, Debug=3.
type Priority int

const (
	Error Priority = iota
	Warning
	Info
	Debug
)

func (p Priority) String() string {
	switch p {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// Logger is the callback contract: log(module, action, event, priority).
type Logger interface {
	Log(module, action, event string, priority Priority)
}

// Func adapts a plain function to the Logger interface.
type Func func(module, action, event string, priority Priority)

func (f Func) Log(module, action, event string, priority Priority) {
	f(module, action, event, priority)
}

type noop struct{}

func (noop) Log(string, string, string, Priority) {}

// Noop is the default logger: it discards everything.
var Noop Logger = noop{}
