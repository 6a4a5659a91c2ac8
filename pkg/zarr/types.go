package zarr

import "fmt"

// DType identifies a dataset's per-element storage representation.
//
// The set is closed and versioned: every tag maps to exactly one element
// representation, and the dispatch in factory.go covers every tag. An
// unmapped tag can only be produced by a decode bug, never by a caller.
type DType int

const (
	DTypeInt8 DType = iota
	DTypeInt16
	DTypeInt32
	DTypeInt64
	DTypeUint8
	DTypeUint16
	DTypeUint32
	DTypeUint64
	DTypeFloat32
	DTypeFloat64
	DTypeComplex64
	DTypeComplex128

	// The unicode variants store fixed-length arrays of UTF-32 code
	// units, one array per element. The width (1..10 code units) is part
	// of the type tag itself rather than of the metadata shape; this is
	// a known limitation carried over from the on-disk format.
	DTypeUnicode1
	DTypeUnicode2
	DTypeUnicode3
	DTypeUnicode4
	DTypeUnicode5
	DTypeUnicode6
	DTypeUnicode7
	DTypeUnicode8
	DTypeUnicode9
	DTypeUnicode10
)

// dtypeCount is the number of defined tags. Used by AllDTypes and by the
// exhaustiveness test.
const dtypeCount = 22

// dtypeNames maps tags to their N5 data type strings.
var dtypeNames = [dtypeCount]string{
	"int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64",
	"float32", "float64",
	"complex64", "complex128",
	"unicode1", "unicode2", "unicode3", "unicode4", "unicode5",
	"unicode6", "unicode7", "unicode8", "unicode9", "unicode10",
}

// dtypeZarrStrings maps tags to their Zarr v2 dtype strings
// (little-endian, per numpy array-protocol type strings).
var dtypeZarrStrings = [dtypeCount]string{
	"<i1", "<i2", "<i4", "<i8",
	"<u1", "<u2", "<u4", "<u8",
	"<f4", "<f8",
	"<c8", "<c16",
	"<U1", "<U2", "<U3", "<U4", "<U5",
	"<U6", "<U7", "<U8", "<U9", "<U10",
}

// dtypeSizes maps tags to element sizes in bytes.
var dtypeSizes = [dtypeCount]int{
	1, 2, 4, 8,
	1, 2, 4, 8,
	4, 8,
	8, 16,
	4, 8, 12, 16, 20,
	24, 28, 32, 36, 40,
}

// AllDTypes returns the full, fixed tag set in declaration order.
func AllDTypes() []DType {
	out := make([]DType, dtypeCount)
	for i := range out {
		out[i] = DType(i)
	}
	return out
}

func (d DType) valid() bool {
	return d >= 0 && int(d) < dtypeCount
}

// String returns the N5 data type name (also used in logs and the CLI).
func (d DType) String() string {
	if !d.valid() {
		return fmt.Sprintf("DType(%d)", int(d))
	}
	return dtypeNames[d]
}

// ZarrString returns the Zarr v2 dtype string, e.g. "<f4".
func (d DType) ZarrString() string {
	if !d.valid() {
		return fmt.Sprintf("DType(%d)", int(d))
	}
	return dtypeZarrStrings[d]
}

// Size returns the element size in bytes.
func (d DType) Size() int {
	if !d.valid() {
		return 0
	}
	return dtypeSizes[d]
}

// IsUnicode reports whether d is one of the fixed-length unicode tags.
func (d DType) IsUnicode() bool {
	return d >= DTypeUnicode1 && d <= DTypeUnicode10
}

// UnicodeWidth returns the fixed element width in UTF-32 code units, or
// 0 for non-unicode tags.
func (d DType) UnicodeWidth() int {
	if !d.IsUnicode() {
		return 0
	}
	return int(d-DTypeUnicode1) + 1
}

// ParseDType decodes an N5 data type name. An unrecognized name is a
// MalformedMetadata error; there is no default type.
func ParseDType(s string) (DType, error) {
	for i, name := range dtypeNames {
		if name == s {
			return DType(i), nil
		}
	}
	return 0, newMalformedMetadata("", fmt.Sprintf("unknown data type %q", s), nil)
}

// ParseZarrDType decodes a Zarr v2 dtype string. Big-endian variants
// (">"-prefixed) are not supported and decode as malformed, matching the
// little-endian-only chunk framing of this implementation.
func ParseZarrDType(s string) (DType, error) {
	for i, zs := range dtypeZarrStrings {
		if zs == s {
			return DType(i), nil
		}
	}
	return 0, newMalformedMetadata("", fmt.Sprintf("unknown dtype %q", s), nil)
}
