// Package state stores application drafts. Values go through a byte-level
// Store (memory or Redis) after msgpack encoding.
package state

import (
	"context"
	"errors"
	"time"
)

// Common store errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store is closed")
	ErrInvalidData = errors.New("invalid data format")
)

// Store is the interface for state storage backends.
type Store interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero ttl keeps the value until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the store.
	Close() error
}

// TypedStore provides type-safe access to the store.
type TypedStore[T any] struct {
	store      Store
	serializer Serializer[T]
}

// NewTypedStore creates a new typed store wrapper.
func NewTypedStore[T any](store Store, serializer Serializer[T]) *TypedStore[T] {
	return &TypedStore[T]{
		store:      store,
		serializer: serializer,
	}
}

// Get retrieves and deserializes a value.
func (ts *TypedStore[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	data, err := ts.store.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	return ts.serializer.Deserialize(data)
}

// Set serializes and stores a value.
func (ts *TypedStore[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := ts.serializer.Serialize(value)
	if err != nil {
		return err
	}

	return ts.store.Set(ctx, key, data, ttl)
}

// Serializer handles serialization/deserialization.
type Serializer[T any] interface {
	Serialize(value T) ([]byte, error)
	Deserialize(data []byte) (T, error)
}
