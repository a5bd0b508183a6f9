// Package kv is the string-keyed blob storage every repository persists through.
// Each key holds one JSON document (usually an array) and is owned by a single
// repository; Update gives callers an atomic read-modify-write on that key.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written
var ErrNotFound = errors.New("kv: key not found")

// ErrConflict is returned when an optimistic update lost too many races
var ErrConflict = errors.New("kv: concurrent update conflict")

// UpdateFunc receives the current value (nil when absent) and returns the value
// to store. Returning a nil slice deletes the key.
type UpdateFunc func(current []byte) ([]byte, error)

// Backend is an abstract key-value store
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update runs fn against the current value and stores the result atomically
	// with respect to other Update calls on the same key.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
	Name() string
}
