// Package zarr implements the entry points of the ZarrFS chunked
// N-dimensional array library: opening and creating datasets, groups and
// container files on a pluggable store, with the concrete dataset
// representation selected from the element-type tag persisted in
// metadata.
package zarr

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/zarrfs/pkg/store"
)

// OpenDataset opens the existing dataset addressed by h.
//
// Sequencing: the node's existence is checked first and a missing node
// fails with NotFound before any metadata is read. The persisted
// metadata is then decoded and the dataset specialized for its dtype is
// constructed. The returned dataset's element type always equals what is
// recorded on storage; there is no coercion.
func OpenDataset(ctx context.Context, h Handle) (Dataset, error) {
	exists, err := h.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, newNotFound(h.Path())
	}

	meta, err := readDatasetMetadata(ctx, h)
	if err != nil {
		return nil, err
	}

	return dispatch(h, meta)
}

// CreateDataset creates a new dataset at h described by meta and returns
// its handle.
//
// Ordering invariant: the storage node is created first, the metadata is
// persisted second, and only then is the in-memory handle constructed —
// a concurrent reader that observes the node existing can always read
// valid metadata before receiving chunks. No existence check is
// performed; creating over an existing location is delegated to the
// store's node-creation semantics.
func CreateDataset(ctx context.Context, h Handle, meta *DatasetMetadata) (Dataset, error) {
	if meta == nil {
		return nil, newInvalidArgument("metadata is required")
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	if err := h.Create(ctx); err != nil {
		return nil, err
	}
	if err := writeDatasetMetadata(ctx, h, meta); err != nil {
		return nil, err
	}

	return dispatch(h, meta)
}

// CreateGroup creates a group node at h and writes its flavor-tagged
// container metadata record (Zarr ".zgroup" or N5 "attributes.json").
// The node is created before the record is written, mirroring the
// dataset creation ordering.
func CreateGroup(ctx context.Context, h Handle, isZarr bool) error {
	return createContainer(ctx, h, isZarr)
}

// CreateFile creates a container file root at h. The on-storage record
// is identical to a group's; the distinction is purely hierarchical
// (a file is the root container of a store).
func CreateFile(ctx context.Context, h Handle, isZarr bool) error {
	return createContainer(ctx, h, isZarr)
}

func createContainer(ctx context.Context, h Handle, isZarr bool) error {
	if err := h.Create(ctx); err != nil {
		return err
	}

	key, data := containerRecord(isZarr)
	if err := h.store.Put(ctx, h.key(key), data); err != nil {
		return newStorageFailure(h.Path(), err)
	}
	return nil
}

// readDatasetMetadata loads and decodes the dataset metadata record at
// h, probing the Zarr key first and the N5 key second. A node carrying
// neither record is malformed, not missing: existence was already
// established by the caller.
func readDatasetMetadata(ctx context.Context, h Handle) (*DatasetMetadata, error) {
	data, err := h.store.Get(ctx, h.key(zarrArrayKey))
	if err == nil {
		return decodeDatasetMetadata(h.Path(), FlavorZarr, data)
	}
	if !errors.Is(err, store.ErrKeyNotFound) {
		return nil, newStorageFailure(h.Path(), err)
	}

	data, err = h.store.Get(ctx, h.key(n5AttributesKey))
	if err == nil {
		return decodeDatasetMetadata(h.Path(), FlavorN5, data)
	}
	if !errors.Is(err, store.ErrKeyNotFound) {
		return nil, newStorageFailure(h.Path(), err)
	}

	return nil, newMalformedMetadata(h.Path(), "node carries no dataset metadata record", nil)
}

// writeDatasetMetadata persists the dataset metadata record for meta's
// flavor at h.
func writeDatasetMetadata(ctx context.Context, h Handle, meta *DatasetMetadata) error {
	data, err := meta.encode()
	if err != nil {
		return newStorageFailure(h.Path(), err)
	}
	if err := h.store.Put(ctx, h.key(meta.arrayKey()), data); err != nil {
		return newStorageFailure(h.Path(), err)
	}
	return nil
}

// dispatch maps an element-type tag to the construction of the dataset
// specialized for that tag's representation. The mapping is total over
// the closed tag set: every DType constant has a branch, and the default
// branch is reachable only through a decode bug, in which case it
// surfaces as MalformedMetadata rather than a silently substituted type.
func dispatch(h Handle, meta *DatasetMetadata) (Dataset, error) {
	switch meta.DType {
	case DTypeInt8:
		return newDataset[int8](h, meta)
	case DTypeInt16:
		return newDataset[int16](h, meta)
	case DTypeInt32:
		return newDataset[int32](h, meta)
	case DTypeInt64:
		return newDataset[int64](h, meta)
	case DTypeUint8:
		return newDataset[uint8](h, meta)
	case DTypeUint16:
		return newDataset[uint16](h, meta)
	case DTypeUint32:
		return newDataset[uint32](h, meta)
	case DTypeUint64:
		return newDataset[uint64](h, meta)
	case DTypeFloat32:
		return newDataset[float32](h, meta)
	case DTypeFloat64:
		return newDataset[float64](h, meta)
	case DTypeComplex64:
		return newDataset[complex64](h, meta)
	case DTypeComplex128:
		return newDataset[complex128](h, meta)
	case DTypeUnicode1:
		return newUnicodeDataset[[1]rune](h, meta)
	case DTypeUnicode2:
		return newUnicodeDataset[[2]rune](h, meta)
	case DTypeUnicode3:
		return newUnicodeDataset[[3]rune](h, meta)
	case DTypeUnicode4:
		return newUnicodeDataset[[4]rune](h, meta)
	case DTypeUnicode5:
		return newUnicodeDataset[[5]rune](h, meta)
	case DTypeUnicode6:
		return newUnicodeDataset[[6]rune](h, meta)
	case DTypeUnicode7:
		return newUnicodeDataset[[7]rune](h, meta)
	case DTypeUnicode8:
		return newUnicodeDataset[[8]rune](h, meta)
	case DTypeUnicode9:
		return newUnicodeDataset[[9]rune](h, meta)
	case DTypeUnicode10:
		return newUnicodeDataset[[10]rune](h, meta)
	default:
		return nil, newMalformedMetadata(h.Path(),
			fmt.Sprintf("unmapped dtype %d", int(meta.DType)), nil)
	}
}
