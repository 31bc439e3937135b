// Package kvstore is the storage boundary of the login flow: a string key-value store with
// optional per-key expiry. Callers own encoding; stores never interpret values.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kvstore: key not found")

// ErrStoreOperationFailed is returned when the backing store fails.
var ErrStoreOperationFailed = errors.New("kvstore: store operation failed")

type Store interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value. A ttl of zero keeps the key until it is deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Prefixed namespaces every key of a Store.
func Prefixed(store Store, prefix string) Store {
	return prefixed{store: store, prefix: prefix}
}

type prefixed struct {
	store  Store
	prefix string
}

func (p prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.store.Set(ctx, p.prefix+key, value, ttl)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, p.prefix+key)
}
