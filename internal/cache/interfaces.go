// Package cache provides the short-TTL response cache used by the analytics
// dashboard, with in-memory and Redis backends.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque payloads under string keys with a TTL.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found or
	// expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// CacheError is a sentinel error type for cache failures.
type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss indicates the key was not found in cache.
const ErrCacheMiss CacheError = "cache miss"
