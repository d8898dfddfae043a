package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one Check call.
type Result struct {
	IsLimited bool
	// Remaining is how many more calls fit in the current window, never negative.
	Remaining int
	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
}

// Limiter is a sliding-window request counter keyed by an arbitrary string (usually a symbol).
//
// Every Check prunes timestamps that fell out of the window and then records the current call
// before evaluating the limit, so the call being checked is always counted.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

func NewLimiter() *Limiter {
	return NewLimiterWithClock(time.Now)
}

// NewLimiterWithClock creates a limiter reading time from now.
func NewLimiterWithClock(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}

	return &Limiter{
		requests: make(map[string][]time.Time),
		now:      now,
	}
}

// Check records a request for key and reports whether more than maxRequests fell within window.
func (l *Limiter) Check(key string, maxRequests int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	timestamps := l.requests[key]

	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	kept = append(kept, now)
	l.requests[key] = kept

	remaining := maxRequests - len(kept)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		IsLimited: len(kept) > maxRequests,
		Remaining: remaining,
		ResetAt:   kept[0].Add(window),
	}
}

// Reset forgets every recorded request for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.requests, key)
}

// Keys returns the number of keys currently tracked.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.requests)
}
