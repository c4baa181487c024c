package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// ProfileTTL expires idle profiles; zero keeps them forever
	ProfileTTL time.Duration

	// MaxTxRetries bounds optimistic-lock retries in UpdateProfile
	MaxTxRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		ProfileTTL:   0,
		MaxTxRetries: 10,
	}
}
