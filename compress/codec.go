// Package compress provides the pluggable compression codecs applied to
// an NVTable's serialized payload bytes before they are written to the
// wire frame (see package wire). A frame's format.CompressionType flag
// names which codec produced it, so the deserializer can pick the right
// Codec to invert the transform before parsing the NVTable block.
//
// Three codecs are wired: no-op, Zstandard (pure Go), and LZ4 (see
// DESIGN.md for why a cgo zstd binding and an S2 codec were left out).
package compress

import (
	"fmt"

	"github.com/nanolog/corelog/format"
)

// Compressor compresses a serialized NVTable payload blob.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor inverts Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of one compression algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec builds a new Codec instance for compressionType. target
// names the caller's usage for error messages (e.g. "nvtable payload").
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a shared built-in Codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
