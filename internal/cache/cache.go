// Package cache is the read-through JSON cache fronting responses that
// are expensive to recompute, such as the global stats aggregation.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded values under string keys. A miss is not an
// error: callers fall through to the source and re-populate.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
