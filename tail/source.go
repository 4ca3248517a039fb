// Package tail implements the buffered tail source (C6): it reads from a
// file-like transport, transcodes raw bytes through a configurable
// encoding, buffers partial frames, tracks a persisted read position
// across restarts, and applies backpressure when the transport or the
// decode buffer isn't ready.
//
// Transcoding uses golang.org/x/text/encoding + transform rather than a
// cgo iconv binding: transform.Transformer's ErrShortSrc and ErrShortDst
// play the role of iconv's EINVAL (incomplete trailing sequence) and
// E2BIG (destination buffer too small), and an invalid byte sequence
// that transform reports as a hard error is handled the same way
// iconv's EILSEQ is — skip one byte, log, and continue.
package tail

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/internal/pool"
	"github.com/nanolog/corelog/logging"
)

// Status is the outcome of a non-blocking Fetch or Prepare call.
type Status int

const (
	// StatusOK means a decoded chunk is available in the Source's buffer.
	StatusOK Status = iota
	// StatusAgain means no data was ready; the caller must wait for
	// readiness (see Prepare) and retry.
	StatusAgain
	// StatusEOF means the underlying transport reported a clean end of
	// stream with no pending leftover bytes.
	StatusEOF
)

// Readiness names what condition the caller should poll for before
// calling Fetch again, returned by Prepare.
type Readiness int

const (
	ReadinessRead Readiness = iota
	ReadinessWrite
)

// maxLeftover bounds the raw leftover buffer: a partial multi-byte
// character held across reads can never exceed this many bytes (UTF-8's
// longest sequence is 4 bytes; this leaves headroom for wider legacy
// encodings).
const maxLeftover = 8

// defaultBufferSize and maxBufferSize bound the decoded-buffer growth
// policy applied on a transcoder ErrShortDst (E2BIG equivalent).
const (
	defaultBufferSize = 64 * 1024
	maxBufferSize     = 16 * 1024 * 1024
)

// Source is a buffered, transcoding tail reader over a single file-like
// transport.
type Source struct {
	r       io.Reader
	decoder *encoding.Decoder // nil: no transcoding, raw bytes pass through
	rawPool *pool.ByteBufferPool

	rawLeftover   []byte
	decodedBuf    []byte
	decodedBufCap int
	bufferPos     int // first unprocessed byte in decodedBuf
	pendingBufPos int // not-yet-acked position
	pendingBufEnd int // last decoded byte

	rawStreamPos         int64
	pendingRawStreamPos  int64
	rawBufferSize        int
	pendingRawBufferSize int

	fileSize  int64
	fileInode uint64

	closed bool
}

// Option configures a new Source.
type Option func(*Source)

// WithDecoder installs a transcoding decoder. Without one, raw bytes pass
// through unchanged.
func WithDecoder(dec *encoding.Decoder) Option {
	return func(s *Source) { s.decoder = dec }
}

// New creates a Source reading from r, starting at stream offset 0.
func New(r io.Reader, opts ...Option) *Source {
	s := &Source{
		r:             r,
		decodedBufCap: defaultBufferSize,
		rawPool:       pool.NewByteBufferPool(defaultBufferSize, maxBufferSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach restores a Source's position from a previously persisted State:
// if inode and size still match and the stream position is still within
// range, seek and re-read the bytes that were in flight (including any
// raw leftover); otherwise restart from offset zero.
//
// seeker, when non-nil, is used to reposition r (an *os.File satisfies
// io.Seeker; callers feeding a non-seekable transport pass nil and accept
// the restart-from-zero fallback).
func Attach(r io.Reader, seeker io.Seeker, st State, currentInode uint64, currentSize int64, opts ...Option) (*Source, bool, error) {
	s := New(r, opts...)

	if st.FileInode != currentInode {
		return s, false, nil
	}
	if st.FileSize != currentSize {
		return s, false, nil
	}
	if st.RawStreamPos > uint64(currentSize) {
		return s, false, nil
	}

	if seeker != nil {
		if _, err := seeker.Seek(int64(st.RawStreamPos), io.SeekStart); err != nil {
			return s, false, fmt.Errorf("%w: seeking to saved position: %v", errs.ErrIO, err)
		}
	}

	s.rawStreamPos = int64(st.RawStreamPos)
	s.rawLeftover = append([]byte(nil), st.RawBufferLeftover...)
	s.fileInode = currentInode
	s.fileSize = currentSize

	return s, true, nil
}

// Prepare reports what readiness condition the caller's event loop should
// poll for before calling Fetch again, and a timeout hint in
// milliseconds (0 meaning "no specific deadline").
func (s *Source) Prepare() (Readiness, int) {
	return ReadinessRead, 0
}

// Fetch attempts to produce one decoded chunk. It never blocks: if the
// transport has nothing ready it returns StatusAgain immediately (the
// caller is expected to have waited on the readiness condition from
// Prepare first; Fetch itself does a single non-blocking-equivalent read
// attempt).
func (s *Source) Fetch() (chunk []byte, status Status, err error) {
	if s.closed {
		return nil, StatusAgain, nil
	}

	rawBuf := s.rawPool.Get()
	rawBuf.Reset()
	rawBuf.ExtendOrGrow(defaultBufferSize)
	n, readErr := s.r.Read(rawBuf.B)
	raw := rawBuf.B[:n]

	if n == 0 {
		s.rawPool.Put(rawBuf)
		if readErr == io.EOF {
			if len(s.rawLeftover) > 0 {
				return nil, StatusAgain, fmt.Errorf("%w: %d leftover bytes pending at eof", errs.ErrTruncated, len(s.rawLeftover))
			}
			return nil, StatusEOF, nil
		}
		if readErr != nil {
			return nil, StatusAgain, fmt.Errorf("%w: %v", errs.ErrIO, readErr)
		}
		return nil, StatusAgain, nil
	}

	s.rawStreamPos += int64(n)
	s.rawBufferSize = n

	// combined is a fresh copy, so raw's backing buffer can return to the
	// pool immediately rather than waiting on the decode below.
	combined := append(append([]byte(nil), s.rawLeftover...), raw...)
	s.rawLeftover = nil
	s.rawPool.Put(rawBuf)

	decoded, err := s.decode(combined)
	if err != nil {
		return nil, StatusAgain, err
	}

	s.decodedBuf = decoded
	s.bufferPos = 0
	s.pendingBufPos = 0
	s.pendingBufEnd = len(decoded)

	return decoded, StatusOK, nil
}

// decode transcodes combined through s.decoder (if any), handling the
// three transform error classes the way iconv's EINVAL/E2BIG/EILSEQ are
// handled: incomplete trailing sequence, short destination buffer, and
// invalid input.
func (s *Source) decode(combined []byte) ([]byte, error) {
	if s.decoder == nil {
		return combined, nil
	}

	bufSize := s.decodedBufCap
	for {
		dst := make([]byte, bufSize)
		nDst, nSrc, err := s.decoder.Transform(dst, combined, false)

		switch {
		case err == nil:
			return dst[:nDst], nil

		case err == transform.ErrShortDst:
			if bufSize >= maxBufferSize {
				return nil, fmt.Errorf("%w: decode buffer would exceed %d bytes", errs.ErrOverflow, maxBufferSize)
			}
			bufSize *= 2
			continue

		case err == transform.ErrShortSrc:
			// EINVAL equivalent: an incomplete trailing multi-byte
			// sequence. Save it as leftover for the next read.
			leftover := combined[nSrc:]
			if len(leftover) > maxLeftover {
				return nil, fmt.Errorf("%w: incomplete sequence of %d bytes exceeds %d byte leftover limit", errs.ErrFormat, len(leftover), maxLeftover)
			}
			s.rawLeftover = append([]byte(nil), leftover...)
			return dst[:nDst], nil

		default:
			// EILSEQ equivalent: skip the offending byte and continue
			// from just past it.
			logging.Warn("tail: skipping invalid input byte", "offset", nSrc, "error", err)
			if nSrc >= len(combined) {
				return dst[:nDst], nil
			}
			rest, rErr := s.decode(combined[nSrc+1:])
			if rErr != nil {
				return nil, rErr
			}
			return append(dst[:nDst], rest...), nil
		}
	}
}

// Ack advances the committed (pending) read position to newPos within the
// current decoded buffer, recording the corresponding raw stream position
// for the next durable-state write. Called by the frame-extraction layer
// once it has successfully consumed messages up to newPos.
func (s *Source) Ack(newPos int) {
	s.pendingBufPos = newPos
	s.pendingRawStreamPos = s.rawStreamPos
	s.pendingRawBufferSize = s.rawBufferSize
}

// Close is idempotent; it marks the source stopped. Flushing pending
// state to the persistent store is the caller's responsibility (package
// persist), since Source has no store reference of its own.
func (s *Source) Close() {
	s.closed = true
}

// State snapshots the source's current position for persistence.
func (s *Source) State() State {
	return State{
		Version:              StateVersion,
		BigEndian:            false,
		BufferPos:            uint32(s.bufferPos),
		PendingBufferPos:     uint32(s.pendingBufPos),
		PendingBufferEnd:     uint32(s.pendingBufEnd),
		BufferSize:           uint32(len(s.decodedBuf)),
		RawStreamPos:         uint64(s.pendingRawStreamPos),
		RawBufferSize:        uint32(s.pendingRawBufferSize),
		PendingRawStreamPos:  uint64(s.pendingRawStreamPos),
		PendingRawBufferSize: uint32(s.pendingRawBufferSize),
		FileSize:             uint64(s.fileSize),
		FileInode:            s.fileInode,
		RawBufferLeftover:    append([]byte(nil), s.rawLeftover...),
	}
}
