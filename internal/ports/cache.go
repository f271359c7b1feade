package ports

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache lookups for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// Port: a key/value store with expiry for sessions, codes and aggregates.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Take returns the value and removes the key in one step.
	Take(ctx context.Context, key string) ([]byte, error)
}
