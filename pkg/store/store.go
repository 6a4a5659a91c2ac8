// Package store defines the key-value storage abstraction that ZarrFS
// containers, groups and datasets are persisted on.
//
// A Store addresses two kinds of entities:
//
//   - Keys: flat, slash-separated paths to byte payloads (metadata
//     documents and chunk data). Keys are opaque to the store; the zarr
//     layer decides their layout.
//
//   - Nodes: container points in the hierarchy (a file root, a group, a
//     dataset directory). On media with native directories a node is a
//     directory; on pure key-value media (badger, s3, memory) a node is
//     materialized with a marker key so that an empty node is still
//     observable.
//
// Separation of Concerns:
// The store manages raw bytes only. Metadata semantics (dtype, shape,
// chunk layout) belong to pkg/zarr; the store never interprets values.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same key are last-write-wins; the store does
// not arbitrate races between callers targeting the same path.
package store

import "context"

// Store is the interface every ZarrFS storage backend implements.
//
// All operations are synchronous and context-aware: implementations check
// the context before touching the underlying medium and propagate
// cancellation errors unchanged.
type Store interface {
	// Get returns the value stored under key.
	// Returns ErrKeyNotFound (possibly wrapped) if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting any previous value.
	// Parent nodes do not need to exist beforehand.
	Put(ctx context.Context, key string, value []byte) error

	// Has reports whether key exists.
	Has(ctx context.Context, key string) (bool, error)

	// Delete removes the value stored under key.
	// Returns ErrKeyNotFound (possibly wrapped) if the key does not exist.
	Delete(ctx context.Context, key string) error

	// List returns all keys that start with prefix, in unspecified order.
	// A missing prefix is not an error; it yields an empty slice.
	List(ctx context.Context, prefix string) ([]string, error)

	// CreateNode materializes a container node at path.
	// Creating a node that already exists is not an error.
	CreateNode(ctx context.Context, path string) error

	// NodeExists reports whether a container node exists at path, either
	// because it was created explicitly or because keys live under it.
	NodeExists(ctx context.Context, path string) (bool, error)
}

// NodeMarkerKey is the reserved key name used by pure key-value backends
// to materialize an otherwise empty node. Filesystem-backed stores use
// real directories instead and never write it.
//
// The zarr layer treats keys ending in NodeMarkerKey as invisible.
const NodeMarkerKey = ".zarrfs-node"
