// Package memory implements an in-memory ZarrFS store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/marmos91/zarrfs/pkg/store"
)

// MemoryStore implements store.Store using in-memory maps.
//
// It is suitable for tests, ephemeral arrays and as the reference
// implementation of the store contract. All operations are protected by
// a single read-write mutex, making the store safe for concurrent use.
//
// Values are copied on Put and Get so callers can never alias the
// store's internal buffers.
type MemoryStore struct {
	mu sync.RWMutex

	// values maps keys to payloads.
	values map[string][]byte

	// nodes tracks explicitly created container nodes. A node also
	// exists implicitly while any key lives under it.
	nodes map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
		nodes:  make(map[string]struct{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, store.ErrKeyNotFound)
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("put: %w", store.ErrInvalidKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.values[key]
	return ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("delete %s: %w", key, store.ErrKeyNotFound)
	}
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *MemoryStore) CreateNode(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes[path] = struct{}{}
	return nil
}

func (s *MemoryStore) NodeExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[path]; ok {
		return true, nil
	}

	// A node also exists while keys live under it.
	prefix := path + "/"
	if path == "" {
		prefix = ""
	}
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			return true, nil
		}
	}
	return false, nil
}
