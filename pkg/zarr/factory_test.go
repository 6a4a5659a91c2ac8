package zarr

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/zarrfs/pkg/store"
	"github.com/marmos91/zarrfs/pkg/store/memory"
)

// recordingStore wraps a store and records the order of operations, so
// tests can assert protocol sequencing.
type recordingStore struct {
	store.Store

	mu  sync.Mutex
	ops []string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memory.NewMemoryStore()}
}

func (r *recordingStore) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingStore) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func (r *recordingStore) Get(ctx context.Context, key string) ([]byte, error) {
	r.record("get")
	return r.Store.Get(ctx, key)
}

func (r *recordingStore) Put(ctx context.Context, key string, value []byte) error {
	r.record("put")
	return r.Store.Put(ctx, key, value)
}

func (r *recordingStore) CreateNode(ctx context.Context, path string) error {
	r.record("createnode")
	return r.Store.CreateNode(ctx, path)
}

func (r *recordingStore) NodeExists(ctx context.Context, path string) (bool, error) {
	r.record("nodeexists")
	return r.Store.NodeExists(ctx, path)
}

// Every tag in the closed set must dispatch to a dataset reporting
// exactly that tag, both straight from create and after reopening.
func TestDispatchCoversAllDTypes(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()

	for _, dt := range AllDTypes() {
		for _, flavor := range []Flavor{FlavorZarr, FlavorN5} {
			h := NewHandle(st, "ds_"+flavor.String()+"_"+dt.String())

			created, err := CreateDataset(ctx, h, &DatasetMetadata{
				DType:  dt,
				Shape:  []uint64{4, 4},
				Chunks: []uint64{2, 2},
				Flavor: flavor,
			})
			require.NoError(t, err, "%s/%s", flavor, dt)
			assert.Equal(t, dt, created.DType())

			opened, err := OpenDataset(ctx, h)
			require.NoError(t, err, "%s/%s", flavor, dt)
			assert.Equal(t, dt, opened.DType())

			if dt.IsUnicode() {
				codec, ok := opened.(StringCodec)
				require.True(t, ok, "%s must expose StringCodec", dt)
				assert.Equal(t, dt.UnicodeWidth(), codec.Width())
			} else {
				_, ok := opened.(StringCodec)
				assert.False(t, ok, "%s must not expose StringCodec", dt)
			}
		}
	}
}

// Opening a missing node fails with NotFound before any metadata is
// read: the only store operation performed is the existence check.
func TestOpenDatasetNotFound(t *testing.T) {
	rec := newRecordingStore()

	_, err := OpenDataset(context.Background(), NewHandle(rec, "missing"))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, []string{"nodeexists"}, rec.Ops())
}

// Node creation and the metadata write must both complete, in that
// order, before the dataset handle is handed out.
func TestCreateDatasetOrdering(t *testing.T) {
	rec := newRecordingStore()

	_, err := CreateDataset(context.Background(), NewHandle(rec, "ds"), &DatasetMetadata{
		DType:  DTypeFloat32,
		Shape:  []uint64{4},
		Chunks: []uint64{2},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"createnode", "put"}, rec.Ops())
}

func TestCreateOpenRoundTrip(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()
	h := NewHandle(st, "volume")

	_, err := CreateDataset(ctx, h, &DatasetMetadata{
		DType:  DTypeFloat32,
		Shape:  []uint64{100, 100},
		Chunks: []uint64{10, 10},
	})
	require.NoError(t, err)

	ds, err := OpenDataset(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, DTypeFloat32, ds.DType())
	assert.Equal(t, []uint64{100, 100}, ds.Shape())
	assert.Equal(t, []uint64{10, 10}, ds.Chunks())
}

func TestOpenDatasetMalformedDType(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateNode(ctx, "bad"))
	require.NoError(t, st.Put(ctx, "bad/.zarray",
		[]byte(`{"zarr_format":2,"shape":[4],"chunks":[2],"dtype":"<q9","order":"C"}`)))

	_, err := OpenDataset(ctx, NewHandle(st, "bad"))
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))
	assert.False(t, IsNotFound(err))
}

// A persisted chunk dimension too large for an addressable payload must
// surface as malformed metadata at open time; it must never hand out a
// dataset whose chunk buffer cannot be allocated.
func TestOpenDatasetRejectsOversizedChunks(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateNode(ctx, "huge"))
	require.NoError(t, st.Put(ctx, "huge/.zarray",
		[]byte(`{"zarr_format":2,"shape":[9223372036854775808],"chunks":[9223372036854775808],"dtype":"<i1","order":"C"}`)))

	_, err := OpenDataset(ctx, NewHandle(st, "huge"))
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))
}

func TestOpenDatasetNoMetadataRecord(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateNode(ctx, "empty"))

	_, err := OpenDataset(ctx, NewHandle(st, "empty"))
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))
}

func TestCreateDatasetRejectsInvalidMetadata(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()

	_, err := CreateDataset(ctx, NewHandle(st, "ds"), nil)
	assert.True(t, IsInvalidArgument(err))

	_, err = CreateDataset(ctx, NewHandle(st, "ds"), &DatasetMetadata{
		DType:  DTypeInt32,
		Shape:  []uint64{4, 4},
		Chunks: []uint64{2},
	})
	assert.True(t, IsInvalidArgument(err))

	// Nothing may have been created on storage.
	exists, err := st.NodeExists(ctx, "ds")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateGroupAndFile(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, CreateFile(ctx, NewHandle(st, ""), true))
	data, err := st.Get(ctx, ".zgroup")
	require.NoError(t, err)
	assert.JSONEq(t, `{"zarr_format":2}`, string(data))

	require.NoError(t, CreateGroup(ctx, NewHandle(st, "lab"), true))
	data, err = st.Get(ctx, "lab/.zgroup")
	require.NoError(t, err)
	assert.JSONEq(t, `{"zarr_format":2}`, string(data))

	require.NoError(t, CreateGroup(ctx, NewHandle(st, "n5lab"), false))
	data, err = st.Get(ctx, "n5lab/attributes.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n5":"2.0.0"}`, string(data))

	exists, err := NewHandle(st, "lab").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

// Full scenario: a float32 [100,100] dataset written through one handle
// reads back through a second with identical type, shape and content.
func TestDatasetEndToEnd(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()
	h := NewHandle(st, "experiment/frames")

	require.NoError(t, CreateFile(ctx, NewHandle(st, ""), true))
	require.NoError(t, CreateGroup(ctx, NewHandle(st, "experiment"), true))

	created, err := CreateDataset(ctx, h, &DatasetMetadata{
		DType:      DTypeFloat32,
		Shape:      []uint64{100, 100},
		Chunks:     []uint64{10, 10},
		Compressor: CompressorConfig{ID: "zlib"},
	})
	require.NoError(t, err)

	payload := make([]byte, 10*10*4)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, created.WriteChunk(ctx, []uint64{3, 7}, payload))

	opened, err := OpenDataset(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, DTypeFloat32, opened.DType())
	assert.Equal(t, []uint64{100, 100}, opened.Shape())

	got, err := opened.ReadChunk(ctx, []uint64{3, 7})
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
