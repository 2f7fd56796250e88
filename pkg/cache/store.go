package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the namespace
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is the namespace-partitioned cache backend. Implementations
// must be safe for concurrent use; two concurrent writes to the same
// key resolve last-write-wins.
//
// Get returns ErrCacheMiss when the key is absent. Set overwrites any
// existing entry for the key. DropNamespace removes a namespace and
// every entry in it; it is a no-op for an unknown namespace.
type Store interface {
	Get(ctx context.Context, ns Namespace, key Key) (*Entry, error)
	Set(ctx context.Context, ns Namespace, key Key, entry *Entry) error
	Delete(ctx context.Context, ns Namespace, key Key) error

	// Namespaces enumerates every namespace that currently holds at
	// least one entry. Used by the activation sweep.
	Namespaces(ctx context.Context) ([]Namespace, error)

	// DropNamespace deletes a namespace and all of its entries.
	DropNamespace(ctx context.Context, ns Namespace) error

	// Len reports the number of entries in a namespace.
	Len(ctx context.Context, ns Namespace) (int, error)

	// Keys lists the normalized key strings stored in a namespace, in
	// no particular order.
	Keys(ctx context.Context, ns Namespace) ([]string, error)

	// Close releases backend resources.
	Close() error
}
