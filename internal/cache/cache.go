// Package cache provides a small string cache used to memoize derived
// borrowing limits. Redis backs it in production; an in-process map backs
// it in tests and when no Redis address is configured.
package cache

import (
	"context"
	"time"
)

// Cache is the contract trust lookups cache against. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
