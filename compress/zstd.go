package compress

// ZstdCompressor compresses an NVTable payload blob with Zstandard. Best
// used when the payload's MESSAGE/SDATA fields are large and compression
// ratio matters more than CPU cost, e.g. spooling to a slow destination.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
