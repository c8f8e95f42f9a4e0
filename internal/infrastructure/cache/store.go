// Package cache provides the key-value store behind the access permission
// cache, OAuth state, calendar sync flags and locks.
package cache

import (
	"context"
	"time"
)

// Store is a string key-value store with per-key TTLs
type Store interface {
	// Get returns the value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX sets the key only if it does not exist and reports whether it did
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Take returns and deletes the value in one step
	Take(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix and returns how many
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	Close() error
}
