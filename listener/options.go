package listener

import (
	"github.com/peerlink/peerlink/conn"
	"github.com/peerlink/peerlink/discovery"
	"github.com/peerlink/peerlink/pllog"
	"github.com/peerlink/peerlink/ratelimit"
)

// Options configures a Listener. Zero values fall back to the spec's
// defaults (1000ms ping threshold, 100ms loop period, no-op logger).
type Options struct {
	PingThresholdMS int
	LoopPeriodMS    int
	Logger          pllog.Logger

	// QueueSize bounds the accepted-connection queue (§3 AcceptedQueue).
	QueueSize int

	// RateLimiter, if set, throttles the accept loop's raw-socket
	// acceptance rate (domain-stack addition, not in the original spec).
	RateLimiter *ratelimit.Limiter

	// Registry and AdvertiseAddr/Name, if set, advertise this listener
	// under a name so a dialer can resolve it via discovery instead of a
	// hardcoded address (domain-stack addition).
	Registry      discovery.Registry
	AdvertiseName string
	AdvertiseAddr string
}

const defaultQueueSize = 4096

func (o Options) withDefaults() Options {
	if o.PingThresholdMS <= 0 {
		o.PingThresholdMS = conn.DefaultPingThresholdMS
	}
	if o.LoopPeriodMS <= 0 {
		o.LoopPeriodMS = conn.DefaultLoopPeriodMS
	}
	if o.Logger == nil {
		o.Logger = pllog.Noop
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	return o
}

// Option mutates Options; New applies them in order.
type Option func(*Options)

func WithPingThreshold(ms int) Option { return func(o *Options) { o.PingThresholdMS = ms } }
func WithLoopPeriod(ms int) Option    { return func(o *Options) { o.LoopPeriodMS = ms } }
func WithLogger(l pllog.Logger) Option { return func(o *Options) { o.Logger = l } }
func WithQueueSize(n int) Option      { return func(o *Options) { o.QueueSize = n } }
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(o *Options) { o.RateLimiter = l }
}
func WithDiscovery(reg discovery.Registry, name, advertiseAddr string) Option {
	return func(o *Options) {
		o.Registry = reg
		o.AdvertiseName = name
		o.AdvertiseAddr = advertiseAddr
	}
}
