package nvtable

import (
	"fmt"

	"github.com/nanolog/corelog/endian"
	"github.com/nanolog/corelog/errs"
)

// Entry is the decoded, in-memory view of one NVEntry header plus its
// name/value bytes. It is a value extracted from the arena, not a pointer
// into it; callers that need to mutate the arena go through Table's
// methods instead of through Entry directly.
type Entry struct {
	Flags   EntryFlag
	AllocLen int
	Name     string

	// Direct-variant fields. Value is nil for indirect entries.
	Value []byte

	// Indirect-variant fields. Zero for direct entries.
	RefHandle uint32
	RefOffset uint32
	RefLength uint32
	TypeTag   uint8
}

// IsIndirect reports whether the entry slices into another entry.
func (e Entry) IsIndirect() bool { return e.Flags&FlagIndirect != 0 }

// IsUnset reports whether the entry has been logically removed.
func (e Entry) IsUnset() bool { return e.Flags&FlagUnset != 0 }

// IsReferenced reports whether at least one indirect entry targets this one.
func (e Entry) IsReferenced() bool { return e.Flags&FlagReferenced != 0 }

// encodeDirect renders a direct entry's bytes: header, name+NUL, value+NUL,
// padded to allocLen with zero bytes.
func encodeDirect(engine endian.EndianEngine, flags EntryFlag, name string, value []byte, allocLen int) []byte {
	need := directHeaderSize + len(name) + 1 + len(value) + 1
	if allocLen < need {
		allocLen = alignAlloc(need)
	}

	buf := make([]byte, allocLen)
	buf[0] = byte(flags &^ FlagIndirect)
	buf[1] = byte(len(name))
	engine.PutUint32(buf[2:6], uint32(allocLen))
	engine.PutUint32(buf[6:10], uint32(len(value)))

	off := directHeaderSize
	off += copy(buf[off:], name)
	buf[off] = 0
	off++
	off += copy(buf[off:], value)
	buf[off] = 0

	return buf
}

// encodeIndirect renders an indirect entry's bytes: header, name+NUL,
// padded to allocLen.
func encodeIndirect(engine endian.EndianEngine, flags EntryFlag, name string, refHandle, refOffset, refLength uint32, typeTag uint8, allocLen int) []byte {
	need := indirectHeaderSize + len(name) + 1
	if allocLen < need {
		allocLen = alignAlloc(need)
	}

	buf := make([]byte, allocLen)
	buf[0] = byte(flags | FlagIndirect)
	buf[1] = byte(len(name))
	engine.PutUint32(buf[2:6], uint32(allocLen))
	engine.PutUint32(buf[6:10], refHandle)
	engine.PutUint32(buf[10:14], refOffset)
	engine.PutUint32(buf[14:18], refLength)
	buf[18] = typeTag

	off := indirectHeaderSize
	off += copy(buf[off:], name)
	buf[off] = 0

	return buf
}

// decodeEntry parses one NVEntry starting at buf[0]. It returns the
// decoded Entry and the number of bytes consumed (the entry's alloc_len).
func decodeEntry(engine endian.EndianEngine, buf []byte) (Entry, int, error) {
	if len(buf) < 2 {
		return Entry{}, 0, fmt.Errorf("%w: entry header truncated", errs.ErrFormat)
	}

	flags := EntryFlag(buf[0])
	nameLen := int(buf[1])

	if flags&FlagIndirect != 0 {
		if len(buf) < indirectHeaderSize {
			return Entry{}, 0, fmt.Errorf("%w: indirect entry header truncated", errs.ErrFormat)
		}

		allocLen := int(engine.Uint32(buf[2:6]))
		if err := validateAllocLen(allocLen, indirectHeaderSize+nameLen+1, len(buf)); err != nil {
			return Entry{}, 0, err
		}

		e := Entry{
			Flags:     flags,
			AllocLen:  allocLen,
			RefHandle: engine.Uint32(buf[6:10]),
			RefOffset: engine.Uint32(buf[10:14]),
			RefLength: engine.Uint32(buf[14:18]),
			TypeTag:   buf[18],
		}

		nameStart := indirectHeaderSize
		if nameStart+nameLen >= allocLen {
			return Entry{}, 0, fmt.Errorf("%w: indirect entry name overruns alloc_len", errs.ErrFormat)
		}
		e.Name = string(buf[nameStart : nameStart+nameLen])

		return e, allocLen, nil
	}

	if len(buf) < directHeaderSize {
		return Entry{}, 0, fmt.Errorf("%w: direct entry header truncated", errs.ErrFormat)
	}

	allocLen := int(engine.Uint32(buf[2:6]))
	valueLen := int(engine.Uint32(buf[6:10]))
	if err := validateAllocLen(allocLen, directHeaderSize+nameLen+1+valueLen+1, len(buf)); err != nil {
		return Entry{}, 0, err
	}

	nameStart := directHeaderSize
	valueStart := nameStart + nameLen + 1
	if valueStart+valueLen >= allocLen {
		return Entry{}, 0, fmt.Errorf("%w: direct entry value overruns alloc_len", errs.ErrFormat)
	}

	e := Entry{
		Flags:    flags,
		AllocLen: allocLen,
		Name:     string(buf[nameStart : nameStart+nameLen]),
		Value:    append([]byte(nil), buf[valueStart:valueStart+valueLen]...),
	}

	return e, allocLen, nil
}

func validateAllocLen(allocLen, minNeeded, available int) error {
	if allocLen%allocGranularity != 0 {
		return fmt.Errorf("%w: alloc_len %d is not 4-byte aligned", errs.ErrFormat, allocLen)
	}
	if allocLen < minNeeded {
		return fmt.Errorf("%w: alloc_len %d smaller than required %d", errs.ErrFormat, allocLen, minNeeded)
	}
	if allocLen > available {
		return fmt.Errorf("%w: alloc_len %d exceeds remaining buffer %d", errs.ErrFormat, allocLen, available)
	}
	return nil
}
