package dialer

import (
	"github.com/peerlink/peerlink/discovery"
	"github.com/peerlink/peerlink/loadbalance"
	"github.com/peerlink/peerlink/pllog"
)

// Options configures a Dialer. Zero value is usable: default heartbeat
// cadence, a noop logger, and no discovery/load-balancing.
type Options struct {
	PingThresholdMS int
	LoopPeriodMS    int
	Logger          pllog.Logger

	// Registry and Balancer are only consulted by DialPeer; Dial never
	// touches them.
	Registry discovery.Registry
	Balancer loadbalance.Balancer
}

func (o Options) withDefaults() Options {
	if o.PingThresholdMS <= 0 {
		o.PingThresholdMS = 1000
	}
	if o.LoopPeriodMS <= 0 {
		o.LoopPeriodMS = 100
	}
	if o.Logger == nil {
		o.Logger = pllog.Noop
	}
	if o.Balancer == nil {
		o.Balancer = &loadbalance.RoundRobinBalancer{}
	}
	return o
}

// Option mutates Options during New.
type Option func(*Options)

func WithPingThreshold(ms int) Option {
	return func(o *Options) { o.PingThresholdMS = ms }
}

func WithLoopPeriod(ms int) Option {
	return func(o *Options) { o.LoopPeriodMS = ms }
}

func WithLogger(l pllog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithDiscovery(reg discovery.Registry, bal loadbalance.Balancer) Option {
	return func(o *Options) {
		o.Registry = reg
		o.Balancer = bal
	}
}
