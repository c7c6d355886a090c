package cache

import (
	"context"
	"time"
)

// Cache is the read-through layer used for completion status and plan previews.
// Implementations must treat a miss as (false, nil).
type Cache interface {
	// Get unmarshals the cached value into dest. found is false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	DeletePattern(ctx context.Context, pattern string) error

	Ping(ctx context.Context) error
}
