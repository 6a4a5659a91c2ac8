package zarr

import (
	"encoding/json"
	"fmt"
	"math"
)

// Flavor selects between the two supported metadata schema conventions.
type Flavor int

const (
	// FlavorZarr is the Zarr v2 convention: ".zarray" for datasets,
	// ".zgroup" for containers, "."-separated chunk keys.
	FlavorZarr Flavor = iota

	// FlavorN5 is the N5 convention: "attributes.json" for every node,
	// "/"-separated chunk keys.
	FlavorN5
)

func (f Flavor) String() string {
	if f == FlavorN5 {
		return "n5"
	}
	return "zarr"
}

const (
	// ZarrFormatVersion is the Zarr spec version written to .zarray and
	// .zgroup records.
	ZarrFormatVersion = 2

	// N5Version is the N5 spec version written to container
	// attributes.json records.
	N5Version = "2.0.0"

	zarrArrayKey    = ".zarray"
	zarrGroupKey    = ".zgroup"
	n5AttributesKey = "attributes.json"
)

// DatasetMetadata describes a dataset: its element type, shape, chunk
// layout and chunk encoding. It is immutable once constructed; the
// factory consumes it to build exactly one Dataset and the Dataset keeps
// its own copy.
//
// Shape, chunk shape, compressor and fill value are forwarded to the
// dataset implementation; the factory itself only interprets DType and
// Flavor.
type DatasetMetadata struct {
	// DType is the element type tag.
	DType DType

	// Shape is the array extent per dimension.
	Shape []uint64

	// Chunks is the chunk extent per dimension. Same rank as Shape.
	Chunks []uint64

	// Compressor selects the chunk codec. The zero value means
	// uncompressed chunks.
	Compressor CompressorConfig

	// FillValue is the value synthesized for unwritten chunks.
	// Interpreted per DType; unicode datasets always fill with NULs.
	FillValue float64

	// Order is the chunk memory layout; only row-major "C" is written.
	Order string

	// Flavor is the metadata schema convention the dataset is stored in.
	Flavor Flavor
}

// Validate checks the descriptor for internal consistency.
func (m *DatasetMetadata) Validate() error {
	if !m.DType.valid() {
		return newInvalidArgument(fmt.Sprintf("invalid dtype %d", int(m.DType)))
	}
	if len(m.Shape) == 0 {
		return newInvalidArgument("shape must have at least one dimension")
	}
	if len(m.Chunks) != len(m.Shape) {
		return newInvalidArgument(fmt.Sprintf(
			"chunk rank %d does not match shape rank %d", len(m.Chunks), len(m.Shape)))
	}
	for i, d := range m.Shape {
		if d == 0 {
			return newInvalidArgument(fmt.Sprintf("shape dimension %d is zero", i))
		}
	}
	for i, c := range m.Chunks {
		if c == 0 {
			return newInvalidArgument(fmt.Sprintf("chunk dimension %d is zero", i))
		}
	}
	// A full chunk payload must be addressable as a byte slice; reject
	// chunk shapes whose element count would overflow that bound.
	maxElems := uint64(math.MaxInt) / uint64(m.DType.Size())
	elems := uint64(1)
	for _, c := range m.Chunks {
		if c > maxElems/elems {
			return newInvalidArgument(fmt.Sprintf(
				"chunk shape %v exceeds the addressable payload size for %s elements",
				m.Chunks, m.DType))
		}
		elems *= c
	}
	if m.Order != "" && m.Order != "C" {
		return newInvalidArgument(fmt.Sprintf("unsupported order %q", m.Order))
	}
	if _, err := newCompressor(m.Compressor); err != nil {
		return err
	}
	return nil
}

// arrayKey returns the store key name of the dataset metadata record.
func (m *DatasetMetadata) arrayKey() string {
	if m.Flavor == FlavorN5 {
		return n5AttributesKey
	}
	return zarrArrayKey
}

// zarrArrayJSON is the wire form of a Zarr v2 ".zarray" record.
type zarrArrayJSON struct {
	ZarrFormat int                 `json:"zarr_format"`
	Shape      []uint64            `json:"shape"`
	Chunks     []uint64            `json:"chunks"`
	DType      string              `json:"dtype"`
	Compressor *zarrCompressorJSON `json:"compressor"`
	FillValue  *float64            `json:"fill_value"`
	Order      string              `json:"order"`
	Filters    json.RawMessage     `json:"filters"`
}

type zarrCompressorJSON struct {
	ID    string `json:"id"`
	Level int    `json:"level,omitempty"`
}

// n5DatasetJSON is the wire form of an N5 dataset "attributes.json".
type n5DatasetJSON struct {
	Dimensions  []uint64          `json:"dimensions"`
	BlockSize   []uint64          `json:"blockSize"`
	DataType    string            `json:"dataType"`
	Compression n5CompressionJSON `json:"compression"`
}

type n5CompressionJSON struct {
	Type  string `json:"type"`
	Level int    `json:"level,omitempty"`
}

// encode serializes the descriptor per its flavor.
func (m *DatasetMetadata) encode() ([]byte, error) {
	if m.Flavor == FlavorN5 {
		compression := n5CompressionJSON{Type: compressorRaw}
		if m.Compressor.ID != "" {
			compression.Type = m.Compressor.ID
			compression.Level = m.Compressor.Level
		}
		return json.Marshal(n5DatasetJSON{
			Dimensions:  m.Shape,
			BlockSize:   m.Chunks,
			DataType:    m.DType.String(),
			Compression: compression,
		})
	}

	record := zarrArrayJSON{
		ZarrFormat: ZarrFormatVersion,
		Shape:      m.Shape,
		Chunks:     m.Chunks,
		DType:      m.DType.ZarrString(),
		Order:      "C",
		Filters:    json.RawMessage("null"),
	}
	fill := m.FillValue
	record.FillValue = &fill
	if m.Compressor.ID != "" && m.Compressor.ID != compressorRaw {
		record.Compressor = &zarrCompressorJSON{ID: m.Compressor.ID, Level: m.Compressor.Level}
	}
	return json.Marshal(record)
}

// decodeDatasetMetadata parses a persisted metadata record of the given
// flavor. Undecodable records and unknown dtype strings surface as
// MalformedMetadata.
func decodeDatasetMetadata(path string, flavor Flavor, data []byte) (*DatasetMetadata, error) {
	if flavor == FlavorN5 {
		var record n5DatasetJSON
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, newMalformedMetadata(path, "undecodable attributes.json", err)
		}
		dt, err := ParseDType(record.DataType)
		if err != nil {
			return nil, newMalformedMetadata(path, fmt.Sprintf("unknown dataType %q", record.DataType), nil)
		}
		meta := &DatasetMetadata{
			DType:  dt,
			Shape:  record.Dimensions,
			Chunks: record.BlockSize,
			Order:  "C",
			Flavor: FlavorN5,
		}
		if record.Compression.Type != "" && record.Compression.Type != compressorRaw {
			meta.Compressor = CompressorConfig{ID: record.Compression.Type, Level: record.Compression.Level}
		}
		if err := meta.Validate(); err != nil {
			return nil, newMalformedMetadata(path, "inconsistent attributes.json", err)
		}
		return meta, nil
	}

	var record zarrArrayJSON
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, newMalformedMetadata(path, "undecodable .zarray", err)
	}
	dt, err := ParseZarrDType(record.DType)
	if err != nil {
		return nil, newMalformedMetadata(path, fmt.Sprintf("unknown dtype %q", record.DType), nil)
	}
	// Carry the persisted order into validation so that a column-major
	// record is rejected rather than silently reread as row-major.
	order := record.Order
	if order == "" {
		order = "C"
	}
	meta := &DatasetMetadata{
		DType:  dt,
		Shape:  record.Shape,
		Chunks: record.Chunks,
		Order:  order,
		Flavor: FlavorZarr,
	}
	if record.FillValue != nil {
		meta.FillValue = *record.FillValue
	}
	if record.Compressor != nil {
		meta.Compressor = CompressorConfig{ID: record.Compressor.ID, Level: record.Compressor.Level}
	}
	if err := meta.Validate(); err != nil {
		return nil, newMalformedMetadata(path, "inconsistent .zarray", err)
	}
	return meta, nil
}

// containerRecord returns the store key name and payload of a
// flavor-tagged container (file or group) metadata record.
func containerRecord(isZarr bool) (key string, data []byte) {
	if isZarr {
		return zarrGroupKey, []byte(fmt.Sprintf(`{"zarr_format":%d}`, ZarrFormatVersion))
	}
	return n5AttributesKey, []byte(fmt.Sprintf(`{"n5":%q}`, N5Version))
}
