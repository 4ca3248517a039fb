// Package errs defines the sentinel error kinds raised by corelog's
// serialization, arena, and tailing layers.
//
// Callers distinguish error kinds with errors.Is against the sentinels in
// this package; functions that raise them wrap the sentinel with
// contextual detail via fmt.Errorf("...: %w", ...), so the message stays
// descriptive while the kind remains machine-checkable.
package errs

import "errors"

var (
	// ErrFormat marks malformed serialized data: bad magic, a corrupt entry
	// header, a short read, an unknown socket family, or an oversized
	// leftover buffer.
	ErrFormat = errors.New("corelog: malformed data")

	// ErrVersion marks a serialized version outside the supported set.
	ErrVersion = errors.New("corelog: unsupported version")

	// ErrOverflow marks a decode buffer that would grow past its configured
	// maximum.
	ErrOverflow = errors.New("corelog: buffer would exceed maximum size")

	// ErrEncoding marks a non-recoverable transcoding failure (an invalid
	// byte sequence survived the skip-and-continue policy).
	ErrEncoding = errors.New("corelog: invalid byte sequence")

	// ErrIO marks an underlying transport read or write failure.
	ErrIO = errors.New("corelog: io failure")

	// ErrTruncated marks a clean EOF that left a partial multi-byte
	// character pending in the leftover buffer.
	ErrTruncated = errors.New("corelog: truncated multi-byte sequence at eof")

	// ErrState marks a persistent-state mismatch that forces a restart
	// from offset zero.
	ErrState = errors.New("corelog: persistent state mismatch")

	// ErrExhausted marks an NVTable arena that cannot grow past its
	// ceiling.
	ErrExhausted = errors.New("corelog: arena exhausted")
)
