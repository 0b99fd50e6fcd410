// Package kv defines the persistent key-value store margin keeps small
// cross session state in, such as the authors seen in earlier replays.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("kv: key not found")

// KV is a persistent key-value store. Keys are strings, values are
// JSON-serializable.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Keys lists the live keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
