package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which event IDs have already been handled so
// redelivered events are processed at most once per TTL window.
type IdempotencyStore interface {
	// MarkProcessed atomically records an event ID. It reports true when the
	// ID was new and false when it had been recorded within its TTL.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an event ID is currently recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// IdempotencyConfig tunes the idempotent handler decorator.
type IdempotencyConfig struct {
	// TTL bounds how long a processed event ID is remembered. After it
	// expires the same event ID would be handled again.
	TTL time.Duration

	// Enabled turns the dedup check off entirely when false.
	Enabled bool
}

// DefaultIdempotencyConfig enables deduplication with a 24 hour window.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
