// ratelimit.go implements token-bucket rate limiting for the vendor API.
//
// The vendor meters each key by endpoint category over 10-second windows.
// Buckets refill continuously (rather than in 10s bursts) so sustained UI
// traffic spreads out instead of slamming the window edge.
//
// Two buckets are maintained:
//   - Book:   150 burst / 15 per sec (maps to the vendor's 1500/10s limit)
//   - Trades: 150 burst / 15 per sec (maps to the vendor's 1500/10s limit)
package exchange

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a rate limiter with continuous refill. Callers block in
// Wait() until a token is available or the context is cancelled.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64   // current available tokens (fractional allowed)
	capacity float64   // maximum burst size
	rate     float64   // tokens refilled per second
	lastTime time.Time // last time tokens were recalculated
}

// NewTokenBucket creates a full bucket with the given capacity and refill rate.
func NewTokenBucket(capacity, ratePerSecond float64) *TokenBucket {
	return &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     ratePerSecond,
		lastTime: time.Now(),
	}
}

// refill credits tokens for the time elapsed since the last recalculation.
// Callers must hold mu.
func (tb *TokenBucket) refill(now time.Time) {
	tb.tokens += now.Sub(tb.lastTime).Seconds() * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastTime = now
}

// Wait blocks until a token is available or ctx is cancelled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill(time.Now())

		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			// retry
		}
	}
}

// RateLimiter groups token buckets by vendor endpoint category. Each fetch
// calls the matching bucket's Wait() before issuing the HTTP request.
type RateLimiter struct {
	Book   *TokenBucket // order book snapshot reads
	Trades *TokenBucket // trade window reads
}

// NewRateLimiter creates buckets tuned to the vendor's per-category limits.
// Capacities match the 10-second burst allowance, rates 1/10th of it for
// smooth refill.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		Book:   NewTokenBucket(150, 15),
		Trades: NewTokenBucket(150, 15),
	}
}
