package memory

import (
	"testing"

	"github.com/marmos91/zarrfs/pkg/store"
	storetesting "github.com/marmos91/zarrfs/pkg/store/testing"
)

// TestMemoryStore runs the store conformance suite against MemoryStore.
func TestMemoryStore(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			return NewMemoryStore()
		},
	}

	suite.Run(t)
}
