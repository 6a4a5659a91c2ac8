// Package testing provides a reusable conformance suite for store.Store
// implementations. Every backend runs the same suite so that the zarr
// layer can rely on identical semantics regardless of the medium.
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/zarrfs/pkg/store"
)

// StoreTestSuite runs the store contract tests against an implementation.
type StoreTestSuite struct {
	// NewStore returns a fresh, empty store for each subtest.
	// Cleanup should be registered on t.
	NewStore func(t *testing.T) store.Store
}

// Run executes the complete suite.
func (s *StoreTestSuite) Run(t *testing.T) {
	t.Run("PutGetRoundTrip", s.testPutGetRoundTrip)
	t.Run("GetMissingKey", s.testGetMissingKey)
	t.Run("PutOverwrite", s.testPutOverwrite)
	t.Run("PutEmptyKey", s.testPutEmptyKey)
	t.Run("HasLifecycle", s.testHasLifecycle)
	t.Run("DeleteMissingKey", s.testDeleteMissingKey)
	t.Run("ListPrefix", s.testListPrefix)
	t.Run("NodeLifecycle", s.testNodeLifecycle)
	t.Run("ImplicitNode", s.testImplicitNode)
}

func (s *StoreTestSuite) testPutGetRoundTrip(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, st.Put(ctx, "a/b/c", payload))

	got, err := st.Get(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Mutating the returned slice must not affect the stored value.
	got[0] = 0x00
	again, err := st.Get(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, payload, again)
}

func (s *StoreTestSuite) testGetMissingKey(t *testing.T) {
	st := s.NewStore(t)

	_, err := st.Get(context.Background(), "no/such/key")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func (s *StoreTestSuite) testPutOverwrite(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "k", []byte("first")))
	require.NoError(t, st.Put(ctx, "k", []byte("second")))

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func (s *StoreTestSuite) testPutEmptyKey(t *testing.T) {
	st := s.NewStore(t)

	err := st.Put(context.Background(), "", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidKey)
}

func (s *StoreTestSuite) testHasLifecycle(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	exists, err := st.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, st.Put(ctx, "k", []byte("v")))

	exists, err = st.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, st.Delete(ctx, "k"))

	exists, err = st.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func (s *StoreTestSuite) testDeleteMissingKey(t *testing.T) {
	st := s.NewStore(t)

	err := st.Delete(context.Background(), "no/such/key")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func (s *StoreTestSuite) testListPrefix(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "g/ds/.zarray", []byte("{}")))
	require.NoError(t, st.Put(ctx, "g/ds/0.0", []byte("chunk")))
	require.NoError(t, st.Put(ctx, "g/other/.zgroup", []byte("{}")))

	keys, err := st.List(ctx, "g/ds/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g/ds/.zarray", "g/ds/0.0"}, keys)

	keys, err = st.List(ctx, "does/not/exist/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func (s *StoreTestSuite) testNodeLifecycle(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	exists, err := st.NodeExists(ctx, "lab/raw")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, st.CreateNode(ctx, "lab/raw"))

	exists, err = st.NodeExists(ctx, "lab/raw")
	require.NoError(t, err)
	assert.True(t, exists, "node must be observable right after CreateNode")

	// Idempotent on success.
	require.NoError(t, st.CreateNode(ctx, "lab/raw"))
}

func (s *StoreTestSuite) testImplicitNode(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "lab/raw/.zarray", []byte("{}")))

	exists, err := st.NodeExists(ctx, "lab/raw")
	require.NoError(t, err)
	assert.True(t, exists, "a node with keys under it exists even without CreateNode")
}
