// Package badger implements a BadgerDB-persisted ZarrFS store.
package badger

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/zarrfs/pkg/store"
)

// BadgerStore implements store.Store on top of BadgerDB, a fast embedded
// key-value store. It is suitable for:
//   - Single-process persistent arrays without a shared filesystem
//   - Workloads with many small chunks, where one file per chunk is
//     wasteful
//   - Tests that need persistence semantics without touching disk
//     (in-memory mode)
//
// Storage Model:
// Keys are stored verbatim. Container nodes have no native representation
// in a flat key space, so CreateNode writes a zero-byte marker key
// (path + "/" + store.NodeMarkerKey); NodeExists checks the marker first
// and falls back to a bounded prefix scan.
//
// Thread Safety:
// BadgerDB transactions provide isolation; the store is safe for
// concurrent use by multiple goroutines.
type BadgerStore struct {
	db      *badger.DB
	metrics store.Metrics
}

// BadgerStoreConfig configures a BadgerStore.
type BadgerStoreConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `mapstructure:"path"`

	// InMemory runs the database without persistence. Intended for tests.
	InMemory bool `mapstructure:"in_memory"`

	// SyncWrites forces an fsync on every write. Slower but durable
	// across power loss.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// NewBadgerStore opens (or creates) a Badger database and wraps it as a
// store. metrics may be nil.
func NewBadgerStore(ctx context.Context, cfg BadgerStoreConfig, metrics store.Metrics) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("badger store: path is required")
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerStore{db: db, metrics: store.EnsureMetrics(metrics)}, nil
}

// Close releases the underlying database. The store must not be used
// afterwards.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) observe(op string, start time.Time, bytes int, err error) {
	s.metrics.ObserveOp(op, time.Since(start), bytes, err)
}

func (s *BadgerStore) Get(ctx context.Context, key string) (data []byte, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, len(data), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("get %s: %w", key, store.ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *BadgerStore) Put(ctx context.Context, key string, value []byte) (err error) {
	start := time.Now()
	defer func() { s.observe("put", start, len(value), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("put: %w", store.ErrInvalidKey)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Has(ctx context.Context, key string) (exists bool, err error) {
	start := time.Now()
	defer func() { s.observe("has", start, 0, err) }()

	if err = ctx.Err(); err != nil {
		return false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has %s: %w", key, err)
	}
	return true, nil
}

func (s *BadgerStore) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, 0, err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		// Badger deletes are blind; probe first to honor the sentinel.
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("delete %s: %w", key, store.ErrKeyNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) List(ctx context.Context, prefix string) (keys []string, err error) {
	start := time.Now()
	defer func() { s.observe("list", start, 0, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return keys, nil
}

func (s *BadgerStore) CreateNode(ctx context.Context, path string) error {
	return s.Put(ctx, nodeMarker(path), nil)
}

func (s *BadgerStore) NodeExists(ctx context.Context, path string) (bool, error) {
	exists, err := s.Has(ctx, nodeMarker(path))
	if err != nil || exists {
		return exists, err
	}

	// No marker: the node still exists if any key lives under it.
	prefix := path + "/"
	if path == "" {
		prefix = ""
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Rewind()
		exists = it.Valid()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("node exists %s: %w", path, err)
	}
	return exists, nil
}

func nodeMarker(path string) string {
	if path == "" {
		return store.NodeMarkerKey
	}
	return path + "/" + store.NodeMarkerKey
}
