// Package ratelimit provides per-key token bucket rate limiting for
// high-volume log output such as batch progress and per-run outcomes.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens     float64
	lastCheck  time.Time
	suppressed int
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Every converts a minimum interval between events to a token rate.
// The interval must be positive.
func Every(interval time.Duration) float64 {
	return 1 / interval.Seconds()
}

// Allow reports whether an event for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.Take(key)
	return ok
}

// Take is Allow that also reports, when allowed, how many events for key
// were rejected since the last allowed one. The count resets on every
// allowed event.
func (l *Limiter) Take(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens:    float64(l.burst),
			lastCheck: now,
		}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}

	if b.tokens < 1.0 {
		b.suppressed++
		return false, 0
	}

	b.tokens--
	suppressed := b.suppressed
	b.suppressed = 0
	return true, suppressed
}

// Suppressed returns the number of events for key rejected since the last
// allowed one, for a final summary line.
func (l *Limiter) Suppressed(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b.suppressed
	}
	return 0
}
