package store

import "errors"

// Standard store errors shared by all backend implementations. Callers
// check them with errors.Is; implementations wrap them with the failing
// key for context:
//
//	return fmt.Errorf("get %s: %w", key, store.ErrKeyNotFound)
var (
	// ErrKeyNotFound indicates the requested key does not exist.
	//
	// Returned by Get and Delete when the key is absent. The zarr layer
	// maps it to its NotFound or MalformedMetadata conditions depending
	// on which record was being read.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidKey indicates a key the backend cannot represent
	// (empty, or escaping the store root via "..").
	ErrInvalidKey = errors.New("invalid key")
)
