package cache

import (
	"context"
	"time"
)

// Store is the shared cache interface. The per-request validator uses it as a
// read-through cache in front of the active-token table.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}
