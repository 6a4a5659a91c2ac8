package zarr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compressor identifiers accepted in CompressorConfig.ID. The empty
// string and "raw" both mean uncompressed chunks (Zarr writes a null
// compressor, N5 writes {"type":"raw"}).
const (
	compressorRaw  = "raw"
	compressorZlib = "zlib"
	compressorGzip = "gzip"
)

// CompressorConfig selects and parameterizes the chunk codec.
type CompressorConfig struct {
	// ID names the codec: "", "raw", "zlib" or "gzip".
	ID string

	// Level is the codec compression level; 0 selects the codec default.
	Level int
}

// compressor encodes and decodes whole chunk payloads.
type compressor interface {
	compress(data []byte) ([]byte, error)
	decompress(data []byte) ([]byte, error)
}

// newCompressor resolves a CompressorConfig. Unknown codec IDs are
// rejected; a dataset must never be constructed with a codec it cannot
// decode.
func newCompressor(cfg CompressorConfig) (compressor, error) {
	switch cfg.ID {
	case "", compressorRaw:
		return rawCompressor{}, nil
	case compressorZlib:
		return &zlibCompressor{level: normalizeLevel(cfg.Level)}, nil
	case compressorGzip:
		return &gzipCompressor{level: normalizeLevel(cfg.Level)}, nil
	default:
		return nil, newInvalidArgument(fmt.Sprintf("unknown compressor %q", cfg.ID))
	}
}

func normalizeLevel(level int) int {
	if level == 0 {
		return zlib.DefaultCompression
	}
	return level
}

type rawCompressor struct{}

func (rawCompressor) compress(data []byte) ([]byte, error)   { return data, nil }
func (rawCompressor) decompress(data []byte) ([]byte, error) { return data, nil }

type zlibCompressor struct {
	level int
}

func (c *zlibCompressor) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *zlibCompressor) decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return out, nil
}

type gzipCompressor struct {
	level int
}

func (c *gzipCompressor) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *gzipCompressor) decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return out, nil
}
