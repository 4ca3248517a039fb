package nvtable

import (
	"fmt"

	"github.com/nanolog/corelog/endian"
	"github.com/nanolog/corelog/errs"
)

// Table is the NVTable arena. Entries are stored bottom-up: the first
// entry occupies the highest addresses in buf, and each subsequent entry
// is appended just below the previous one, so the whole arena can be
// written out as one contiguous blob (header + static slots + dynamic
// index + free space + payload).
//
// Table is not safe for concurrent mutation; callers that share a Table
// across goroutines must synchronize externally, matching the
// single-owner refcount design described in DESIGN.md (Table's ref_cnt is
// a plain int, not atomic — see logmsg.Message for the contrasting
// atomic refcount used at the LogMessage level).
type Table struct {
	engine endian.EndianEngine

	size uint32 // total arena size in bytes
	used uint32 // bytes consumed by payload, counted from the bottom

	numStatic uint32
	static    []uint32 // offsets, indexed by handle-1; 0 = not set

	index []IndexEntry // sorted ascending by handle

	buf []byte // len(buf) == size; payload lives in buf[size-used:size]

	refCnt   int
	borrowed bool
}

// New creates an empty Table with room for numStatic static slots and an
// initial total arena size of initialSize bytes (at least 256, rounded up
// to the allocation granularity); the static slots and index count
// against that size.
func New(numStatic int, initialSize int) *Table {
	if initialSize < 256 {
		initialSize = 256
	}
	initialSize = alignAlloc(initialSize)

	return &Table{
		engine:    defaultEngine,
		size:      uint32(initialSize),
		used:      0,
		numStatic: uint32(numStatic),
		static:    make([]uint32, numStatic),
		index:     nil,
		buf:       make([]byte, initialSize),
		refCnt:    1,
	}
}

// Ref increments the table's reference count.
func (t *Table) Ref() { t.refCnt++ }

// Unref decrements the table's reference count. Callers MUST stop using t
// after a call that brings the count to zero.
func (t *Table) Unref() {
	if t.refCnt > 0 {
		t.refCnt--
	}
}

// Shared reports whether more than one owner holds a reference, meaning
// any mutation must clone first.
func (t *Table) Shared() bool { return t.refCnt > 1 }

// Size returns the current total arena size in bytes.
func (t *Table) Size() int { return int(t.size) }

// Used returns the number of payload bytes currently consumed.
func (t *Table) Used() int { return int(t.used) }

// NumStatic returns the number of static slots.
func (t *Table) NumStatic() int { return int(t.numStatic) }

func (t *Table) freeSpace() int {
	header := int(t.numStatic)*4 + len(t.index)*indexEntrySize
	return int(t.size) - header - int(t.used)
}

func (t *Table) entryBytes(offset uint32) []byte {
	if offset == 0 || offset > t.used {
		return nil
	}
	start := int(t.size) - int(offset)
	return t.buf[start:]
}

// isStatic reports whether handle addresses a static slot.
func (t *Table) isStatic(handle uint32) bool {
	return handle >= 1 && handle <= t.numStatic
}

// Set stores a direct entry for handle/name/value, replacing any existing
// entry. It returns true if a new entry was created (as opposed to an
// in-place overwrite of the prior value).
func (t *Table) Set(handle uint32, name string, value []byte) (created bool, err error) {
	if t.Shared() {
		return false, fmt.Errorf("%w: Set called on a shared table; clone first", errs.ErrFormat)
	}

	existingOffset, existingEntry, found := t.lookupRaw(handle)
	if found && existingEntry.Name != name {
		// Handle collision after a fixup remap: the slot now names a
		// different value than it used to. Treat as a fresh entry.
		found = false
	}

	if found {
		need := directHeaderSize + len(name) + 1 + len(value) + 1
		if need <= existingEntry.AllocLen {
			encoded := encodeDirect(t.engine, 0, name, value, existingEntry.AllocLen)
			copy(t.entryBytes(existingOffset), encoded)
			return false, nil
		}
	}

	offset, err := t.appendEntry(encodeDirect(t.engine, 0, name, value, 0))
	if err != nil {
		return false, err
	}
	t.setSlot(handle, offset)

	return true, nil
}

// SetIndirect stores an indirect entry for handle, pointing at a slice of
// the entry currently stored under refHandle.
func (t *Table) SetIndirect(handle uint32, name string, refHandle uint32, refOffset, refLength uint32, typeTag uint8) (created bool, err error) {
	if t.Shared() {
		return false, fmt.Errorf("%w: SetIndirect called on a shared table; clone first", errs.ErrFormat)
	}

	if off, target, ok := t.lookupRaw(refHandle); ok {
		target.Flags |= FlagReferenced
		encoded := encodeDirect(t.engine, target.Flags, target.Name, target.Value, target.AllocLen)
		copy(t.entryBytes(off), encoded)
	}

	_, _, found := t.lookupRaw(handle)

	offset, err := t.appendEntry(encodeIndirect(t.engine, 0, name, refHandle, refOffset, refLength, typeTag, 0))
	if err != nil {
		return false, err
	}
	t.setSlot(handle, offset)

	return !found, nil
}

// Unset marks handle's entry as logically removed. Later Get calls return
// found=false.
func (t *Table) Unset(handle uint32) {
	offset, e, found := t.lookupRaw(handle)
	if !found {
		return
	}

	e.Flags |= FlagUnset
	var encoded []byte
	if e.IsIndirect() {
		encoded = encodeIndirect(t.engine, e.Flags, e.Name, e.RefHandle, e.RefOffset, e.RefLength, e.TypeTag, e.AllocLen)
	} else {
		encoded = encodeDirect(t.engine, e.Flags, e.Name, e.Value, e.AllocLen)
	}
	copy(t.entryBytes(offset), encoded)
}

// RepointIndirect rewrites the referenced_handle stored in the indirect
// entry at handle to newRefHandle, in place. Used by package fixup to
// correct an indirect entry after the handle it references has been
// remapped to a new consumer-local value; the entry's name, offset,
// length, and type tag are carried over unchanged.
func (t *Table) RepointIndirect(handle uint32, newRefHandle uint32) error {
	offset, e, found := t.lookupRaw(handle)
	if !found {
		return fmt.Errorf("%w: RepointIndirect: handle %d not found", errs.ErrFormat, handle)
	}
	if !e.IsIndirect() {
		return fmt.Errorf("%w: RepointIndirect: handle %d is not an indirect entry", errs.ErrFormat, handle)
	}

	encoded := encodeIndirect(t.engine, e.Flags, e.Name, newRefHandle, e.RefOffset, e.RefLength, e.TypeTag, e.AllocLen)
	copy(t.entryBytes(offset), encoded)

	return nil
}

// Get resolves handle to its value bytes, following indirect entries.
func (t *Table) Get(handle uint32) (value []byte, ok bool) {
	_, e, found := t.lookupRaw(handle)
	if !found || e.IsUnset() {
		return nil, false
	}

	if !e.IsIndirect() {
		return e.Value, true
	}

	_, target, ok := t.lookupRaw(e.RefHandle)
	if !ok || target.IsUnset() {
		return nil, false
	}

	// Tolerate a target whose indirect range is out of bounds by falling
	// back to the raw slice, rather than erroring.
	start := int(e.RefOffset)
	end := start + int(e.RefLength)
	if start < 0 || end > len(target.Value) {
		return target.Value, true
	}

	return target.Value[start:end], true
}

// IsSet reports whether handle currently has a live (not unset) entry.
func (t *Table) IsSet(handle uint32) bool {
	_, e, found := t.lookupRaw(handle)
	return found && !e.IsUnset()
}

func (t *Table) lookupRaw(handle uint32) (offset uint32, e Entry, found bool) {
	var off uint32
	if t.isStatic(handle) {
		off = t.static[handle-1]
	} else {
		pos, ok := searchIndex(t.index, handle)
		if !ok {
			return 0, Entry{}, false
		}
		off = t.index[pos].Offset
	}

	if off == 0 {
		return 0, Entry{}, false
	}

	entry, _, err := decodeEntry(t.engine, t.entryBytes(off))
	if err != nil {
		return 0, Entry{}, false
	}

	return off, entry, true
}

func (t *Table) setSlot(handle uint32, offset uint32) {
	if t.isStatic(handle) {
		t.static[handle-1] = offset
		return
	}
	t.index = insertIndex(t.index, IndexEntry{Handle: handle, Offset: offset})
}

// appendEntry writes raw entry bytes at the bottom of the arena, growing
// (or, if shared, cloning — callers must check Shared before calling
// mutating methods) the table first if there is not enough free space.
// It returns the new entry's offset from the arena top.
func (t *Table) appendEntry(encoded []byte) (uint32, error) {
	need := len(encoded)
	if t.freeSpace() < need {
		if err := t.grow(need); err != nil {
			return 0, err
		}
	}

	start := int(t.size) - int(t.used) - need
	copy(t.buf[start:start+need], encoded)
	t.used += uint32(need)

	return t.used, nil
}

// grow doubles the arena (up to MaxSize) until it can fit extra additional
// bytes of free space.
func (t *Table) grow(extra int) error {
	newSize := int(t.size)
	if newSize == 0 {
		newSize = 256
	}

	header := int(t.numStatic)*4 + len(t.index)*indexEntrySize
	for newSize-header-int(t.used) < extra {
		if newSize >= MaxSize {
			return fmt.Errorf("%w: table already at %d bytes", errs.ErrExhausted, MaxSize)
		}
		newSize *= 2
		if newSize > MaxSize {
			newSize = MaxSize
		}
	}

	if newSize == int(t.size) {
		return nil
	}

	newBuf := make([]byte, newSize)
	// Payload lives at the bottom; shift it to the bottom of the new,
	// larger buffer.
	copy(newBuf[newSize-int(t.used):], t.buf[int(t.size)-int(t.used):])
	t.buf = newBuf
	t.size = uint32(newSize)

	return nil
}

// Clone returns a deep, independent copy of t with extraSpace additional
// free bytes, and a reference count of 1.
func (t *Table) Clone(extraSpace int) *Table {
	newSize := alignAlloc(int(t.size) + extraSpace)

	clone := &Table{
		engine:    t.engine,
		size:      uint32(newSize),
		used:      t.used,
		numStatic: t.numStatic,
		static:    append([]uint32(nil), t.static...),
		index:     append([]IndexEntry(nil), t.index...),
		buf:       make([]byte, newSize),
		refCnt:    1,
	}
	copy(clone.buf[newSize-int(t.used):], t.buf[int(t.size)-int(t.used):])

	return clone
}

// Realloc grows t in place to at least newMinSize bytes, or — if the
// table is shared — returns a clone with that capacity instead. It
// returns the table to use from here on (t itself, or the clone).
func (t *Table) Realloc(newMinSize int) (*Table, error) {
	if t.Shared() {
		t.Unref()
		return t.Clone(newMinSize - int(t.size)), nil
	}

	if newMinSize <= int(t.size) {
		return t, nil
	}

	if err := t.grow(newMinSize - int(t.size) + int(t.used)); err != nil {
		return nil, err
	}

	return t, nil
}

// EntryVisitor is called by ForEachEntry for every slot, static first then
// dynamic in index order. Returning false stops the iteration early.
type EntryVisitor func(handle uint32, e Entry, idx *IndexEntry) bool

// ForEachEntry walks static slots then the dynamic index in order,
// decoding each live entry and invoking visit.
func (t *Table) ForEachEntry(visit EntryVisitor) {
	for i := uint32(0); i < t.numStatic; i++ {
		off := t.static[i]
		if off == 0 {
			continue
		}
		e, _, err := decodeEntry(t.engine, t.entryBytes(off))
		if err != nil {
			continue
		}
		if !visit(i+1, e, nil) {
			return
		}
	}

	for i := range t.index {
		ie := t.index[i]
		if ie.Offset == 0 {
			continue
		}
		e, _, err := decodeEntry(t.engine, t.entryBytes(ie.Offset))
		if err != nil {
			continue
		}
		if !visit(ie.Handle, e, &t.index[i]) {
			return
		}
	}
}

// NameResolver maps a handle back to its registered name, used by ForEach
// to yield resolved (handle, name, value) triples without requiring the
// caller to hold onto a registry itself.
type NameResolver interface {
	Name(h uint32) (string, bool)
}

// ForEach walks every live entry and yields its resolved value, skipping
// unset entries. visit returning false stops iteration early.
func (t *Table) ForEach(visit func(handle uint32, name string, value []byte) bool) {
	t.ForEachEntry(func(handle uint32, e Entry, _ *IndexEntry) bool {
		if e.IsUnset() {
			return true
		}
		value, ok := t.Get(handle)
		if !ok {
			return true
		}
		return visit(handle, e.Name, value)
	})
}

// IndexSnapshot returns a copy of the current dynamic index, in sorted
// order. Used by package fixup to build its scratch copy.
func (t *Table) IndexSnapshot() []IndexEntry {
	return append([]IndexEntry(nil), t.index...)
}

// ReplaceIndex installs a new dynamic index wholesale, already sorted by
// the caller (package fixup sorts its scratch copy before calling this).
func (t *Table) ReplaceIndex(idx []IndexEntry) {
	t.index = idx
}

// Engine returns the byte-order engine this table was decoded with (or the
// default engine for a freshly constructed table).
func (t *Table) Engine() endian.EndianEngine { return t.engine }

// SetEngine overrides the table's byte-order engine. Package wire does not
// call it: DecodeNVTable hands the engine to FromRaw directly.
func (t *Table) SetEngine(e endian.EndianEngine) { t.engine = e }

// RawStatic returns a copy of the static slot offsets, for package wire's
// framing. Offsets are in the same "distance from arena top" units Get
// and Set use internally.
func (t *Table) RawStatic() []uint32 {
	return append([]uint32(nil), t.static...)
}

// RawPayload returns the payload bytes currently in use (buf[size-used:
// size]), for package wire's framing. The returned slice aliases the
// table's internal buffer and must not be retained past the next mutation.
func (t *Table) RawPayload() []byte {
	return t.buf[int(t.size)-int(t.used) : t.size]
}

// FromRaw reconstructs a Table from already-decoded sections: package
// wire's DecodeNVTable parses the wire framing (magic, flags, sizes) and
// hands the raw static/index/payload sections here to build a usable
// Table without re-deriving offsets.
func FromRaw(engine endian.EndianEngine, size, numStatic int, static []uint32, index []IndexEntry, payload []byte) *Table {
	buf := make([]byte, size)
	copy(buf[size-len(payload):], payload)

	return &Table{
		engine:    engine,
		size:      uint32(size),
		used:      uint32(len(payload)),
		numStatic: uint32(numStatic),
		static:    static,
		index:     index,
		buf:       buf,
		refCnt:    1,
	}
}
