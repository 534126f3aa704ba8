package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// OpTimeout bounds each store operation; a timeout surfaces as a
	// transient error to the caller rather than an unbounded wait
	OpTimeout time.Duration

	// MagicLinkTokenTTL governs how long token records (used or not)
	// stay around. Must exceed the token validity window so a second
	// verify still reports "already used".
	MagicLinkTokenTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379",
		PoolSize:          10,
		MinIdleConns:      2,
		OpTimeout:         5 * time.Second,
		MagicLinkTokenTTL: 24 * time.Hour,
	}
}
