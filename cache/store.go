// Package cache provides JSON-valued key/value stores with expiry, backed by
// process memory or Redis.
package cache

import (
	"context"
	"time"
)

// Store holds JSON-serialized values under string keys.
type Store interface {
	// Get decodes the value for key into dest. It reports false, with a
	// nil error, when the key is missing or expired.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key. A ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
