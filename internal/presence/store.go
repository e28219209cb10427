package presence

import (
	"context"
	"time"
)

// Store is a keyed set store with per-key expiry. The production
// implementation is Redis; tests use an in-memory fake.
type Store interface {
	Add(ctx context.Context, key, member string) error
	Remove(ctx context.Context, key, member string) error
	Members(ctx context.Context, key string) ([]string, error)
	Count(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
