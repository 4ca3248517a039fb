// Package compress provides compression and decompression codecs for a
// serialized NVTable payload blob.
//
// # Overview
//
// An NVTable's serialized bytes (header, static slots, index, entry
// payload) are already compact, but the entry payload itself — the raw
// name/value bytes — can be large for messages with sizable MESSAGE or
// structured-data fields. package wire applies compression as an optional
// stage after the NVTable block is encoded and before it is framed onto
// the wire, recording which codec it used in the frame's compression flag.
//
// # Supported algorithms
//
//   - None (format.CompressionNone): fastest, no size reduction.
//   - Zstandard (format.CompressionZstd): best ratio, moderate speed; pure
//     Go via klauspost/compress/zstd, no cgo dependency.
//   - LZ4 (format.CompressionLZ4): fast decompression, moderate ratio,
//     via pierrec/lz4.
//
// # Thread safety
//
// All codec implementations are safe for concurrent use.
package compress
