// Package store provides keyed blob storage for call artifacts and the typed
// call store layered on top of it.
package store

import "context"

// ContentType constants for stored artifacts.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// BlobStore is durable keyed object storage. Objects are written once at
// ingestion and never mutated in place, so no locking is needed above the
// backend's own.
type BlobStore interface {
	// Put stores data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object's bytes, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys starting with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the given keys and reports how many existed.
	Delete(ctx context.Context, keys ...string) (int, error)
}
