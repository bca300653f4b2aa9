// Package ratelimit is a domain-stack addition throttling how fast a
// Listener accepts raw sockets, protecting the pending-peer table from a
// flood of half-finished handshakes.
//
// It wraps golang.org/x/time/rate the same way the teacher's
// middleware.RateLimitMiddleware does for RPC calls; here the token
// bucket governs socket acceptance instead of request handling.
package ratelimit

import "golang.org/x/time/rate"

// Limiter is a token-bucket rate limiter: r tokens refill per second, up
// to burst tokens banked for traffic spikes.
type Limiter struct {
	l *rate.Limiter
}

// New creates a Limiter. The limiter is shared across every arrival the
// listener processes — creating a fresh one per connection would defeat
// the bucket entirely.
func New(r float64, burst int) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Limit(r), burst)}
}

// Allow reports whether a token is available, consuming one if so.
func (lim *Limiter) Allow() bool {
	if lim == nil {
		return true
	}
	return lim.l.Allow()
}
