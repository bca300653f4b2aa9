// Package heartbeat implements the per-connection liveness protocol:
// §4.4's responder half (server-acceptor role) and initiator half
// (client-initiator role), running on the dedicated heartbeat socket.
//
// It is grounded on the teacher's transport.ClientTransport.heartbeatLoop
// (a ticker-driven goroutine that writes lightweight frames and exits
// cleanly on connection failure), generalized from "keep the connection
// alive" into the full two-half RTT protocol the spec requires, and on
// the shared-state-across-goroutines idiom shown repeatedly in the
// example pack's own heartbeat implementations (atomic/mutex-guarded
// published values rather than channel-per-tick signaling).
package heartbeat

import (
	"time"

	"github.com/peerlink/peerlink/netutil"
	"github.com/peerlink/peerlink/pllog"
	"github.com/peerlink/peerlink/wire"
)

// Worker drives one half of the heartbeat protocol over a socket already
// wrapped for readiness waits. It runs until the connection is stopped or
// the peer goes silent past the ping threshold.
type Worker struct {
	sock            *netutil.Socket
	state           *State
	role            Role
	loopPeriodMS    int
	pingThresholdMS int
	logger          pllog.Logger
	done            chan struct{}
}

// NewWorker builds a Worker for the given role. Call Run in its own
// goroutine; Done reports when it has exited.
func NewWorker(sock *netutil.Socket, state *State, role Role, loopPeriodMS, pingThresholdMS int, logger pllog.Logger) *Worker {
	if logger == nil {
		logger = pllog.Noop
	}
	return &Worker{
		sock:            sock,
		state:           state,
		role:            role,
		loopPeriodMS:    loopPeriodMS,
		pingThresholdMS: pingThresholdMS,
		logger:          logger,
		done:            make(chan struct{}),
	}
}

// Done reports when the worker's loop has exited. Stop joins on it.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run dispatches to the role-appropriate loop. It must be called exactly
// once, from the goroutine that owns this worker.
func (w *Worker) Run() {
	defer close(w.done)
	switch w.role {
	case RoleServerAcceptor:
		w.responderLoop()
	default:
		w.initiatorLoop()
	}
}

func (w *Worker) period() time.Duration {
	return time.Duration(w.loopPeriodMS) * time.Millisecond
}

// responderLoop implements §4.4.1: the server side reflects its current
// ping observation and measures the initiator's reported one-way delay to
// compute the next RTT.
func (w *Worker) responderLoop() {
	for {
		ping, active := w.state.Snapshot()
		if !active {
			w.logger.Log("heartbeat", "responder", "connection inactive, exiting", pllog.Debug)
			return
		}

		sendTime := time.Now()
		if err := wire.WriteField(w.sock, ping); err != nil {
			w.logger.Log("heartbeat", "responder", "failed to emit ping: "+err.Error(), pllog.Warning)
			w.state.MarkDead()
			return
		}

		_, ok, err := w.sock.WaitForData(w.loopPeriodMS + w.pingThresholdMS)
		if err != nil {
			w.logger.Log("heartbeat", "responder", "readiness wait failed: "+err.Error(), pllog.Warning)
			w.state.MarkDead()
			return
		}
		if !ok {
			w.logger.Log("heartbeat", "responder", "initiator went silent", pllog.Info)
			w.state.MarkDead()
			return
		}
		recvTime := time.Now()

		delay, err := wire.ReadField(w.sock)
		if err != nil {
			w.logger.Log("heartbeat", "responder", "failed to read delay: "+err.Error(), pllog.Warning)
			w.state.MarkDead()
			return
		}

		newPing := (recvTime.Sub(sendTime).Milliseconds() - delay) / 2
		w.state.SetPing(newPing)

		time.Sleep(w.period())
	}
}

// initiatorLoop implements §4.4.2: the client side waits for the
// responder's ping observation, republishes it, and reports back how long
// it took to notice and respond — the measurement the responder subtracts
// out as processing overhead.
func (w *Worker) initiatorLoop() {
	lastContact := time.Now()
	for {
		waitEntry := time.Now()
		elapsedMS, ok, err := w.sock.WaitForData(2 * w.loopPeriodMS)

		if _, active := w.state.Snapshot(); !active {
			w.logger.Log("heartbeat", "initiator", "connection inactive, exiting", pllog.Debug)
			return
		}

		if err != nil {
			w.logger.Log("heartbeat", "initiator", "readiness wait failed: "+err.Error(), pllog.Warning)
			w.state.MarkDead()
			return
		}

		if !ok {
			if time.Since(lastContact) > time.Duration(w.pingThresholdMS)*time.Millisecond {
				w.logger.Log("heartbeat", "initiator", "responder went silent past threshold", pllog.Info)
				w.state.MarkDead()
				return
			}
			continue
		}

		recvPing, err := wire.ReadField(w.sock)
		if err != nil {
			w.logger.Log("heartbeat", "initiator", "failed to read ping: "+err.Error(), pllog.Warning)
			w.state.MarkDead()
			return
		}
		w.state.SetPing(recvPing)

		readyAt := waitEntry.Add(time.Duration(elapsedMS) * time.Millisecond)
		delay := time.Since(readyAt).Milliseconds()
		if err := wire.WriteField(w.sock, delay); err != nil {
			w.logger.Log("heartbeat", "initiator", "failed to send delay: "+err.Error(), pllog.Warning)
			w.state.MarkDead()
			return
		}

		lastContact = time.Now()
	}
}
