// Package storage provides the key/value persistence capability behind the
// session store.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("storage: store is closed")

// KeyValueStore is a small string key/value store.
// There are two implementations: a plaintext SQLite file (sqlite.SQLiteStore,
// the browser-local variant) and an encrypting wrapper (secure.Store, the
// native variant). One of them is chosen once at startup.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
