// Package nvtable implements the NVTable arena: a compact,
// reference-counted, copy-on-grow byte arena that stores a LogMessage's
// name-value pairs. The arena grows downward from a fixed top: a header,
// a static-slot table, and a sorted dynamic index occupy the low offsets,
// while name/value entry bytes are appended from the high end toward the
// index, so the whole arena serializes as one contiguous blob.
//
// Entries come in two shapes (see Entry): direct entries own their value
// bytes; indirect entries slice into another entry's bytes, used when a
// parsed submatch reuses bytes already stored under another name.
package nvtable

import "github.com/nanolog/corelog/endian"

// EntryFlag holds the low bits of an NVEntry header.
type EntryFlag uint8

const (
	// FlagIndirect marks an entry as indirect: it slices into another
	// entry's value bytes rather than owning its own.
	FlagIndirect EntryFlag = 1 << 0
	// FlagReferenced marks an entry as being the target of at least one
	// indirect entry. Set lazily; Get does not consult it, so its absence
	// on a referenced entry is harmless.
	FlagReferenced EntryFlag = 1 << 1
	// FlagUnset marks an entry as logically removed. Its bytes remain in
	// the arena as dead space until the table is cloned or reallocated.
	FlagUnset EntryFlag = 1 << 2
)

// MaxSize is the hard ceiling on an NVTable's total byte size (256 MiB),
// applied both to live growth and to the legacy on-disk upgrade path (see
// DESIGN.md's Open Question decision).
const MaxSize = 256 * 1024 * 1024

// allocGranularity is the rounding unit for every entry's alloc_len.
const allocGranularity = 4

// directHeaderSize is flags(1) + nameLen(1) + allocLen(4) + valueLen(4).
const directHeaderSize = 10

// indirectHeaderSize is flags(1) + nameLen(1) + allocLen(4) + refHandle(4)
// + offset(4) + length(4) + typeTag(1).
const indirectHeaderSize = 19

// indexEntrySize is the on-wire size of one NVIndexEntry: handle(4) +
// offset(4).
const indexEntrySize = 8

func alignAlloc(n int) int {
	if rem := n % allocGranularity; rem != 0 {
		n += allocGranularity - rem
	}
	return n
}

// defaultEngine is used by table growth/clone paths that do not carry an
// explicit byte-order request; callers that decode a wire-tagged table use
// the engine recorded on the Table instead.
var defaultEngine = endian.GetLittleEndianEngine()
