// Package kv is the port to the shared state store. Every engine instance
// and the rate limiter share one logical store, so mutation of contended
// keys goes through Update (atomic read-modify-write) only; plain
// get-then-set sequences are not part of the contract on purpose.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("kv: key not found")

// UpdateFunc computes the next value of a key. current is nil when the key
// is absent. Returning an error aborts the update and surfaces the error.
// The function may run more than once when the store retries a lost race,
// so it must be side-effect free.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the shared state store contract: string keys, byte values,
// per-key TTL, atomic compare-and-swap update.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Update atomically replaces the value of key with fn(current) and
	// resets its TTL. Concurrent updates of the same key never observe
	// the same current value twice.
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
