package room

import "time"

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Config holds timing settings for the room engine
type Config struct {
	// GracePeriod is how long a disconnected participant may take to reconnect
	GracePeriod time.Duration

	// FinishedTTL is how long a finished room lingers before teardown
	FinishedTTL time.Duration

	// CountdownSeconds is announced to clients with start-countdown
	CountdownSeconds int

	// SettleTimeout bounds each round's scoring collaborator calls
	SettleTimeout time.Duration
}

// DefaultConfig returns the default room engine configuration
func DefaultConfig() Config {
	return Config{
		GracePeriod:      10 * time.Second,
		FinishedTTL:      5 * time.Second,
		CountdownSeconds: 3,
		SettleTimeout:    10 * time.Second,
	}
}
