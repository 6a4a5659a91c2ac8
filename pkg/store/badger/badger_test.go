package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/zarrfs/pkg/store"
	storetesting "github.com/marmos91/zarrfs/pkg/store/testing"
)

// TestBadgerStore runs the store conformance suite against BadgerStore
// in in-memory mode.
func TestBadgerStore(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			st, err := NewBadgerStore(context.Background(), BadgerStoreConfig{InMemory: true}, nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			return st
		},
	}

	suite.Run(t)
}

// TestBadgerStorePersistence verifies values survive a close/reopen cycle
// on an on-disk database.
func TestBadgerStorePersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewBadgerStore(ctx, BadgerStoreConfig{Path: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, "lab/raw/.zarray", []byte(`{"zarr_format":2}`)))
	require.NoError(t, st.Close())

	st, err = NewBadgerStore(ctx, BadgerStoreConfig{Path: dir}, nil)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Get(ctx, "lab/raw/.zarray")
	require.NoError(t, err)
	require.JSONEq(t, `{"zarr_format":2}`, string(got))
}
