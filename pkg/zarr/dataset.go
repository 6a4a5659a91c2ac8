package zarr

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/marmos91/zarrfs/pkg/store"
)

// Dataset is the type-erased handle to a chunked N-dimensional array.
//
// The concrete element representation is selected from the metadata's
// dtype at open/create time and never leaks across this boundary; chunk
// payloads are exchanged as little-endian encoded bytes. A Dataset is
// exclusively owned by the caller it was returned to and is safe for
// concurrent use on distinct chunks.
type Dataset interface {
	// Path returns the node path of the dataset.
	Path() string

	// DType returns the element type tag. It always matches the
	// persisted metadata the dataset was constructed from.
	DType() DType

	// Shape returns the array extent per dimension.
	Shape() []uint64

	// Chunks returns the chunk extent per dimension.
	Chunks() []uint64

	// ChunkGrid returns the number of chunks per dimension.
	ChunkGrid() []uint64

	// Metadata returns a copy of the dataset descriptor.
	Metadata() DatasetMetadata

	// ReadChunk returns the decoded payload of the chunk at index.
	// A chunk that was never written decodes as fill-value elements.
	ReadChunk(ctx context.Context, index []uint64) ([]byte, error)

	// WriteChunk stores the payload of the chunk at index. The payload
	// must be exactly one full chunk of encoded elements.
	WriteChunk(ctx context.Context, index []uint64, data []byte) error

	// HasChunk reports whether the chunk at index was written.
	HasChunk(ctx context.Context, index []uint64) (bool, error)

	// RemoveChunk deletes the chunk at index, reverting it to fill
	// values. Removing an unwritten chunk is not an error.
	RemoveChunk(ctx context.Context, index []uint64) error
}

// StringCodec is implemented by the fixed-length unicode datasets. It
// transcodes between Go strings and the dataset's UTF-32LE element
// encoding, enforcing the tag's exact code-unit width.
type StringCodec interface {
	// Width returns the fixed element width in UTF-32 code units.
	Width() int

	// EncodeStrings encodes elements for WriteChunk. Every string must
	// be exactly Width runes long.
	EncodeStrings(elements []string) ([]byte, error)

	// DecodeStrings decodes a ReadChunk payload into one string per
	// element. Trailing NUL code units (fill) are stripped.
	DecodeStrings(data []byte) ([]string, error)
}

// dataset is the concrete implementation behind Dataset, generic over
// the element representation T. T carries the representation selected by
// the dispatch table (int8 ... complex128, [1]rune ... [10]rune); all
// framing is derived from the dtype so that the on-disk encoding is
// identical across platforms.
type dataset[T any] struct {
	handle   Handle
	meta     DatasetMetadata
	comp     compressor
	elemSize int
	chunkLen int // full chunk payload size in bytes
	grid     []uint64
}

func newDataset[T any](h Handle, meta *DatasetMetadata) (*dataset[T], error) {
	comp, err := newCompressor(meta.Compressor)
	if err != nil {
		return nil, err
	}

	d := &dataset[T]{
		handle:   h,
		meta:     *meta,
		comp:     comp,
		elemSize: meta.DType.Size(),
	}
	d.meta.Shape = slices.Clone(meta.Shape)
	d.meta.Chunks = slices.Clone(meta.Chunks)

	elems := 1
	for _, c := range d.meta.Chunks {
		elems *= int(c)
	}
	d.chunkLen = elems * d.elemSize

	d.grid = make([]uint64, len(d.meta.Shape))
	for i := range d.grid {
		d.grid[i] = (d.meta.Shape[i] + d.meta.Chunks[i] - 1) / d.meta.Chunks[i]
	}

	return d, nil
}

func (d *dataset[T]) Path() string        { return d.handle.Path() }
func (d *dataset[T]) DType() DType        { return d.meta.DType }
func (d *dataset[T]) Shape() []uint64     { return slices.Clone(d.meta.Shape) }
func (d *dataset[T]) Chunks() []uint64    { return slices.Clone(d.meta.Chunks) }
func (d *dataset[T]) ChunkGrid() []uint64 { return slices.Clone(d.grid) }

func (d *dataset[T]) Metadata() DatasetMetadata {
	meta := d.meta
	meta.Shape = slices.Clone(d.meta.Shape)
	meta.Chunks = slices.Clone(d.meta.Chunks)
	return meta
}

// chunkKey encodes a chunk index per the dataset's flavor: "0.0.1" for
// Zarr, "0/0/1" for N5.
func (d *dataset[T]) chunkKey(index []uint64) string {
	parts := make([]string, len(index))
	for i, v := range index {
		parts[i] = fmt.Sprintf("%d", v)
	}
	sep := "."
	if d.meta.Flavor == FlavorN5 {
		sep = "/"
	}
	return d.handle.key(strings.Join(parts, sep))
}

func (d *dataset[T]) checkIndex(index []uint64) error {
	if len(index) != len(d.grid) {
		return newInvalidArgument(fmt.Sprintf(
			"chunk index rank %d does not match dataset rank %d", len(index), len(d.grid)))
	}
	for i, v := range index {
		if v >= d.grid[i] {
			return newInvalidArgument(fmt.Sprintf(
				"chunk index %d out of range in dimension %d (grid size %d)", v, i, d.grid[i]))
		}
	}
	return nil
}

func (d *dataset[T]) ReadChunk(ctx context.Context, index []uint64) ([]byte, error) {
	if err := d.checkIndex(index); err != nil {
		return nil, err
	}

	raw, err := d.handle.store.Get(ctx, d.chunkKey(index))
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return d.fillChunk(), nil
		}
		return nil, newStorageFailure(d.handle.Path(), err)
	}

	data, err := d.comp.decompress(raw)
	if err != nil {
		return nil, newMalformedMetadata(d.handle.Path(), "undecodable chunk", err)
	}
	if len(data) != d.chunkLen {
		return nil, newMalformedMetadata(d.handle.Path(), fmt.Sprintf(
			"chunk payload is %d bytes, want %d", len(data), d.chunkLen), nil)
	}
	return data, nil
}

func (d *dataset[T]) WriteChunk(ctx context.Context, index []uint64, data []byte) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	if len(data) != d.chunkLen {
		return newInvalidArgument(fmt.Sprintf(
			"chunk payload must be %d bytes (%d-byte %s elements), got %d",
			d.chunkLen, d.elemSize, d.meta.DType, len(data)))
	}

	encoded, err := d.comp.compress(data)
	if err != nil {
		return newStorageFailure(d.handle.Path(), err)
	}
	if err := d.handle.store.Put(ctx, d.chunkKey(index), encoded); err != nil {
		return newStorageFailure(d.handle.Path(), err)
	}
	return nil
}

func (d *dataset[T]) HasChunk(ctx context.Context, index []uint64) (bool, error) {
	if err := d.checkIndex(index); err != nil {
		return false, err
	}

	exists, err := d.handle.store.Has(ctx, d.chunkKey(index))
	if err != nil {
		return false, newStorageFailure(d.handle.Path(), err)
	}
	return exists, nil
}

func (d *dataset[T]) RemoveChunk(ctx context.Context, index []uint64) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}

	err := d.handle.store.Delete(ctx, d.chunkKey(index))
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return newStorageFailure(d.handle.Path(), err)
	}
	return nil
}

// fillChunk synthesizes a full chunk of fill-value elements.
func (d *dataset[T]) fillChunk() []byte {
	buf := make([]byte, d.chunkLen)
	if d.meta.FillValue == 0 {
		return buf
	}

	elem := fillElement(d.meta.DType, d.meta.FillValue)
	for off := 0; off < len(buf); off += d.elemSize {
		copy(buf[off:off+d.elemSize], elem)
	}
	return buf
}

// fillElement encodes a single fill-value element for dt. Unicode
// elements always fill with NUL code units regardless of the value.
func fillElement(dt DType, fv float64) []byte {
	buf := make([]byte, dt.Size())
	switch dt {
	case DTypeInt8, DTypeInt16, DTypeInt32, DTypeInt64:
		v := uint64(int64(fv))
		for i := 0; i < dt.Size(); i++ {
			buf[i] = byte(v >> (8 * i))
		}
	case DTypeUint8, DTypeUint16, DTypeUint32, DTypeUint64:
		v := uint64(fv)
		for i := 0; i < dt.Size(); i++ {
			buf[i] = byte(v >> (8 * i))
		}
	case DTypeFloat32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(fv)))
	case DTypeFloat64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(fv))
	case DTypeComplex64:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(fv)))
	case DTypeComplex128:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(fv))
	}
	return buf
}

// unicodeDataset augments the generic dataset with the StringCodec
// surface for the ten fixed-length unicode tags. T is the [N]rune array
// type selected by the dispatch table; the width is the array length, so
// it is part of the dataset's type rather than a runtime parameter.
type unicodeDataset[T any] struct {
	*dataset[T]
	width int
}

func newUnicodeDataset[T any](h Handle, meta *DatasetMetadata) (*unicodeDataset[T], error) {
	base, err := newDataset[T](h, meta)
	if err != nil {
		return nil, err
	}
	return &unicodeDataset[T]{dataset: base, width: meta.DType.UnicodeWidth()}, nil
}

// utf32Codec is the UTF-32 little-endian transcoding used for unicode
// element payloads. BOMs are never written into element data.
var utf32Codec = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)

func (d *unicodeDataset[T]) Width() int { return d.width }

func (d *unicodeDataset[T]) EncodeStrings(elements []string) ([]byte, error) {
	encoder := utf32Codec.NewEncoder()
	out := make([]byte, 0, len(elements)*d.elemSize)

	for i, element := range elements {
		encoded, err := encoder.Bytes([]byte(element))
		if err != nil {
			return nil, newInvalidArgument(fmt.Sprintf("element %d: %v", i, err))
		}
		if len(encoded) != d.elemSize {
			return nil, newInvalidArgument(fmt.Sprintf(
				"element %d is %d code units, %s requires exactly %d",
				i, len(encoded)/4, d.meta.DType, d.width))
		}
		out = append(out, encoded...)
	}
	return out, nil
}

func (d *unicodeDataset[T]) DecodeStrings(data []byte) ([]string, error) {
	if len(data)%d.elemSize != 0 {
		return nil, newInvalidArgument(fmt.Sprintf(
			"payload length %d is not a multiple of the %d-byte element size",
			len(data), d.elemSize))
	}

	decoder := utf32Codec.NewDecoder()
	out := make([]string, 0, len(data)/d.elemSize)

	for off := 0; off < len(data); off += d.elemSize {
		element := data[off : off+d.elemSize]

		// Strip trailing NUL code units: fill elements decode as "".
		end := len(element)
		for end >= 4 && element[end-4] == 0 && element[end-3] == 0 &&
			element[end-2] == 0 && element[end-1] == 0 {
			end -= 4
		}

		decoded, err := decoder.Bytes(element[:end])
		if err != nil {
			return nil, newMalformedMetadata(d.handle.Path(), "undecodable string element", err)
		}
		out = append(out, string(decoded))
	}
	return out, nil
}
