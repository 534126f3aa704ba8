package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window request counter keyed by an arbitrary string.
// Windows are discrete: a burst can straddle a window boundary, which is
// an accepted approximation. Purely in-memory, never blocks.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	window time.Duration
	max    int
}

type bucket struct {
	count       int
	windowStart time.Time
}

// Config holds configuration for the rate limiter
type Config struct {
	// Window is the fixed window length
	Window time.Duration
	// Max is the number of requests allowed per window
	Max int
}

// DefaultConfig returns default rate-limit configuration
func DefaultConfig() Config {
	return Config{
		Window: time.Minute,
		Max:    5,
	}
}

// New creates a new fixed-window limiter
func New(cfg Config) *Limiter {
	if cfg.Window == 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.Max == 0 {
		cfg.Max = DefaultConfig().Max
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		window:  cfg.Window,
		max:     cfg.Max,
	}
}

// Allow reports whether a request under the given key is within budget.
// A fresh or rolled-over window resets the count to 1 and allows;
// otherwise the count increments and requests beyond max are rejected
// until the window rolls over.
func (l *Limiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) > l.window {
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	b.count++
	return b.count <= l.max
}

// Reset clears all buckets
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*bucket)
}
