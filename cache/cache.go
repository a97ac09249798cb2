package cache

import (
	"context"
	"time"
)

// Cache is a best-effort store for derived data. Entries may disappear at
// any time; callers must always be able to rebuild them.
type Cache interface {
	Get(ctx context.Context, key string, val any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
