package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TypedKV provides type-safe access to one namespace of a KV store.
type TypedKV[T any] struct {
	store  KV
	prefix string
}

// Scoped returns a TypedKV[T] that prefixes all keys with "namespace:".
func Scoped[T any](store KV, namespace string) *TypedKV[T] {
	return &TypedKV[T]{
		store:  store,
		prefix: namespace + ":",
	}
}

// Get retrieves and deserializes a value by key.
func (t *TypedKV[T]) Get(ctx context.Context, key string) (T, error) {
	var v T
	if err := t.store.Get(ctx, t.prefix+key, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Set stores a value with no expiry.
func (t *TypedKV[T]) Set(ctx context.Context, key string, value T) error {
	return t.store.Set(ctx, t.prefix+key, value)
}

// SetTTL stores a value that expires after the given duration.
func (t *TypedKV[T]) SetTTL(ctx context.Context, key string, value T, ttl time.Duration) error {
	return t.store.SetTTL(ctx, t.prefix+key, value, ttl)
}

// Delete removes a key.
func (t *TypedKV[T]) Delete(ctx context.Context, key string) error {
	return t.store.Delete(ctx, t.prefix+key)
}

// All returns every live value in the namespace keyed without the prefix.
func (t *TypedKV[T]) All(ctx context.Context) (map[string]T, error) {
	keys, err := t.store.Keys(ctx, t.prefix)
	if err != nil {
		return nil, err
	}

	out := make(map[string]T, len(keys))
	for _, key := range keys {
		var v T
		if err := t.store.Get(ctx, key, &v); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[strings.TrimPrefix(key, t.prefix)] = v
	}
	return out, nil
}
