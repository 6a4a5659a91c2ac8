package zarr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTypeStringRoundTrip(t *testing.T) {
	for _, dt := range AllDTypes() {
		parsed, err := ParseDType(dt.String())
		require.NoError(t, err, dt.String())
		assert.Equal(t, dt, parsed)

		parsed, err = ParseZarrDType(dt.ZarrString())
		require.NoError(t, err, dt.ZarrString())
		assert.Equal(t, dt, parsed)
	}
}

func TestDTypeTableIsClosed(t *testing.T) {
	assert.Len(t, AllDTypes(), 22)
}

func TestParseDTypeUnknown(t *testing.T) {
	_, err := ParseDType("float16")
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))

	_, err = ParseZarrDType("<q9")
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))

	// Big-endian variants are unsupported, never silently accepted.
	_, err = ParseZarrDType(">f4")
	require.Error(t, err)
	assert.True(t, IsMalformedMetadata(err))
}

func TestDTypeSizes(t *testing.T) {
	cases := map[DType]int{
		DTypeInt8:       1,
		DTypeUint64:     8,
		DTypeFloat32:    4,
		DTypeFloat64:    8,
		DTypeComplex64:  8,
		DTypeComplex128: 16,
		DTypeUnicode1:   4,
		DTypeUnicode5:   20,
		DTypeUnicode10:  40,
	}
	for dt, size := range cases {
		assert.Equal(t, size, dt.Size(), dt.String())
	}
}

func TestDTypeUnicodeWidth(t *testing.T) {
	assert.Equal(t, 0, DTypeFloat32.UnicodeWidth())
	assert.False(t, DTypeFloat32.IsUnicode())

	for width := 1; width <= 10; width++ {
		dt := DTypeUnicode1 + DType(width-1)
		assert.True(t, dt.IsUnicode())
		assert.Equal(t, width, dt.UnicodeWidth())
		assert.Equal(t, 4*width, dt.Size())
	}
}
