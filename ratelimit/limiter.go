// Package ratelimit paces outbound requests with a token bucket per key.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter implements token bucket rate limiting per key (a remote host).
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
	rate     float64 // tokens per second
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether a request for key may proceed now.
// A rate of 0 or less means unlimited.
func (l *Limiter) Allow(key string, rate float64) bool {
	if rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(key, rate)
	b.refill()

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Wait blocks until a request for key may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string, rate float64) error {
	if rate <= 0 {
		return nil
	}

	interval := time.Duration(float64(time.Second) / rate)
	for {
		if l.Allow(key, rate) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (l *Limiter) bucketFor(key string, rate float64) *bucket {
	b, ok := l.buckets[key]
	if !ok || b.rate != rate {
		b = &bucket{
			tokens:   burst(rate),
			lastFill: time.Now(),
			rate:     rate,
		}
		l.buckets[key] = b
	}
	return b
}

func (b *bucket) refill() {
	now := time.Now()
	b.tokens += now.Sub(b.lastFill).Seconds() * b.rate
	if limit := burst(b.rate); b.tokens > limit {
		b.tokens = limit
	}
	b.lastFill = now
}

// burst is one second of traffic, and never less than a single request.
func burst(rate float64) float64 {
	return max(rate, 1)
}
