package zarr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetMetadataZarrCodec(t *testing.T) {
	meta := &DatasetMetadata{
		DType:      DTypeFloat32,
		Shape:      []uint64{100, 100},
		Chunks:     []uint64{10, 10},
		Compressor: CompressorConfig{ID: "zlib", Level: 5},
		FillValue:  1,
		Flavor:     FlavorZarr,
	}
	require.NoError(t, meta.Validate())

	data, err := meta.encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 2, raw["zarr_format"])
	assert.Equal(t, "<f4", raw["dtype"])
	assert.Equal(t, "C", raw["order"])
	assert.Nil(t, raw["filters"])

	decoded, err := decodeDatasetMetadata("ds", FlavorZarr, data)
	require.NoError(t, err)
	assert.Equal(t, meta.DType, decoded.DType)
	assert.Equal(t, meta.Shape, decoded.Shape)
	assert.Equal(t, meta.Chunks, decoded.Chunks)
	assert.Equal(t, meta.Compressor, decoded.Compressor)
	assert.Equal(t, meta.FillValue, decoded.FillValue)
	assert.Equal(t, FlavorZarr, decoded.Flavor)
}

func TestDatasetMetadataZarrNullCompressor(t *testing.T) {
	meta := &DatasetMetadata{
		DType:  DTypeUint8,
		Shape:  []uint64{4},
		Chunks: []uint64{2},
		Flavor: FlavorZarr,
	}

	data, err := meta.encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "compressor")
	assert.Nil(t, raw["compressor"])

	decoded, err := decodeDatasetMetadata("ds", FlavorZarr, data)
	require.NoError(t, err)
	assert.Equal(t, CompressorConfig{}, decoded.Compressor)
}

func TestDatasetMetadataN5Codec(t *testing.T) {
	meta := &DatasetMetadata{
		DType:      DTypeUnicode5,
		Shape:      []uint64{8, 8},
		Chunks:     []uint64{4, 4},
		Compressor: CompressorConfig{ID: "gzip"},
		Flavor:     FlavorN5,
	}

	data, err := meta.encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "unicode5", raw["dataType"])
	assert.Contains(t, raw, "dimensions")
	assert.Contains(t, raw, "blockSize")

	decoded, err := decodeDatasetMetadata("ds", FlavorN5, data)
	require.NoError(t, err)
	assert.Equal(t, DTypeUnicode5, decoded.DType)
	assert.Equal(t, meta.Shape, decoded.Shape)
	assert.Equal(t, "gzip", decoded.Compressor.ID)
	assert.Equal(t, FlavorN5, decoded.Flavor)
}

func TestDecodeDatasetMetadataMalformed(t *testing.T) {
	_, err := decodeDatasetMetadata("ds", FlavorZarr, []byte("not json"))
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))

	// Unknown dtype string never falls back to a default type.
	_, err = decodeDatasetMetadata("ds", FlavorZarr,
		[]byte(`{"zarr_format":2,"shape":[4],"chunks":[2],"dtype":"<x7","order":"C"}`))
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))

	_, err = decodeDatasetMetadata("ds", FlavorN5,
		[]byte(`{"dimensions":[4],"blockSize":[2],"dataType":"float16"}`))
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))

	// Column-major records are rejected, never silently reread as C.
	_, err = decodeDatasetMetadata("ds", FlavorZarr,
		[]byte(`{"zarr_format":2,"shape":[4],"chunks":[2],"dtype":"<i1","order":"F"}`))
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))
}

// Chunk shapes whose element count cannot be addressed as a byte slice
// must fail validation instead of producing a dataset that panics on
// its first chunk read.
func TestDatasetMetadataRejectsOversizedChunks(t *testing.T) {
	meta := DatasetMetadata{
		DType:  DTypeInt8,
		Shape:  []uint64{1 << 63},
		Chunks: []uint64{1 << 63},
	}
	err := meta.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	// Products that wrap across dimensions are caught as well.
	meta = DatasetMetadata{
		DType:  DTypeUint8,
		Shape:  []uint64{1 << 32, 1 << 32},
		Chunks: []uint64{1 << 32, 1 << 32},
	}
	err = meta.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	// Wide elements lower the bound accordingly.
	meta = DatasetMetadata{
		DType:  DTypeComplex128,
		Shape:  []uint64{1 << 61},
		Chunks: []uint64{1 << 61},
	}
	err = meta.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestDatasetMetadataValidate(t *testing.T) {
	valid := DatasetMetadata{DType: DTypeInt32, Shape: []uint64{4, 4}, Chunks: []uint64{2, 2}}
	require.NoError(t, valid.Validate())

	cases := map[string]DatasetMetadata{
		"rank mismatch": {DType: DTypeInt32, Shape: []uint64{4, 4}, Chunks: []uint64{2}},
		"empty shape":   {DType: DTypeInt32},
		"zero chunk":    {DType: DTypeInt32, Shape: []uint64{4}, Chunks: []uint64{0}},
		"zero shape":    {DType: DTypeInt32, Shape: []uint64{0}, Chunks: []uint64{2}},
		"bad order":     {DType: DTypeInt32, Shape: []uint64{4}, Chunks: []uint64{2}, Order: "F"},
		"bad codec":     {DType: DTypeInt32, Shape: []uint64{4}, Chunks: []uint64{2}, Compressor: CompressorConfig{ID: "blosc"}},
		"bad dtype":     {DType: DType(99), Shape: []uint64{4}, Chunks: []uint64{2}},
	}
	for name, meta := range cases {
		err := meta.Validate()
		require.Error(t, err, name)
		assert.True(t, IsInvalidArgument(err), name)
	}
}

func TestContainerRecord(t *testing.T) {
	key, data := containerRecord(true)
	assert.Equal(t, ".zgroup", key)
	assert.JSONEq(t, `{"zarr_format":2}`, string(data))

	key, data = containerRecord(false)
	assert.Equal(t, "attributes.json", key)
	assert.JSONEq(t, `{"n5":"2.0.0"}`, string(data))
}
