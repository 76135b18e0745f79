// Package kv provides the namespaced key-value store backing the portal.
// Values are opaque JSON documents. The contract is deliberately small:
// no transactions, no compare-and-set. Callers tolerate read-then-write
// races; advisory data must never be treated as authoritative.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.New("key not found")

// Store is the key-value contract shared by all backends.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// GetByPrefix returns the values of every key starting with prefix.
	// Order is unspecified.
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)
	// Close releases backend resources.
	Close() error
}
