package tail

import (
	"fmt"

	"github.com/nanolog/corelog/endian"
	"github.com/nanolog/corelog/errs"
)

// EncodeState serializes st for the persistent state store. The first
// two bytes are always {version, big_endian}, regardless of the entry
// type, so package persist's migration path can read them generically
// before dispatching to a version-specific decoder.
func EncodeState(st State) []byte {
	engine := engineFor(st.BigEndian)

	buf := make([]byte, 0, 2+4*4+8+4+8+4+8+8+4+len(st.RawBufferLeftover))
	buf = append(buf, st.Version, boolByte(st.BigEndian))
	buf = engine.AppendUint32(buf, st.BufferPos)
	buf = engine.AppendUint32(buf, st.PendingBufferPos)
	buf = engine.AppendUint32(buf, st.PendingBufferEnd)
	buf = engine.AppendUint32(buf, st.BufferSize)
	buf = engine.AppendUint64(buf, st.RawStreamPos)
	buf = engine.AppendUint32(buf, st.RawBufferSize)
	buf = engine.AppendUint64(buf, st.PendingRawStreamPos)
	buf = engine.AppendUint32(buf, st.PendingRawBufferSize)
	buf = engine.AppendUint64(buf, st.FileSize)
	buf = engine.AppendUint64(buf, st.FileInode)
	buf = engine.AppendUint32(buf, uint32(len(st.RawBufferLeftover)))
	buf = append(buf, st.RawBufferLeftover...)

	return buf
}

// DecodeState parses a State from buf, reading the version/endianness
// header first as package persist's migration path requires.
func DecodeState(buf []byte) (State, error) {
	if len(buf) < 2 {
		return State{}, fmt.Errorf("%w: tail state header truncated", errs.ErrFormat)
	}

	version := buf[0]
	bigEndian := buf[1] != 0
	if version != StateVersion {
		return State{}, fmt.Errorf("%w: tail state version %d, want %d", errs.ErrState, version, StateVersion)
	}

	engine := engineFor(bigEndian)
	off := 2

	need := off + 4*4 + 8 + 4 + 8 + 4 + 8 + 8 + 4
	if len(buf) < need {
		return State{}, fmt.Errorf("%w: tail state body truncated", errs.ErrFormat)
	}

	st := State{Version: version, BigEndian: bigEndian}
	st.BufferPos = engine.Uint32(buf[off : off+4])
	off += 4
	st.PendingBufferPos = engine.Uint32(buf[off : off+4])
	off += 4
	st.PendingBufferEnd = engine.Uint32(buf[off : off+4])
	off += 4
	st.BufferSize = engine.Uint32(buf[off : off+4])
	off += 4
	st.RawStreamPos = engine.Uint64(buf[off : off+8])
	off += 8
	st.RawBufferSize = engine.Uint32(buf[off : off+4])
	off += 4
	st.PendingRawStreamPos = engine.Uint64(buf[off : off+8])
	off += 8
	st.PendingRawBufferSize = engine.Uint32(buf[off : off+4])
	off += 4
	st.FileSize = engine.Uint64(buf[off : off+8])
	off += 8
	st.FileInode = engine.Uint64(buf[off : off+8])
	off += 8
	leftoverLen := int(engine.Uint32(buf[off : off+4]))
	off += 4

	if leftoverLen > maxLeftover {
		return State{}, fmt.Errorf("%w: leftover length %d exceeds %d byte limit", errs.ErrFormat, leftoverLen, maxLeftover)
	}
	if len(buf) < off+leftoverLen {
		return State{}, fmt.Errorf("%w: tail state leftover bytes truncated", errs.ErrFormat)
	}
	st.RawBufferLeftover = append([]byte(nil), buf[off:off+leftoverLen]...)

	return st, nil
}

func engineFor(bigEndian bool) endian.EndianEngine {
	if bigEndian {
		return endian.GetBigEndianEngine()
	}
	return endian.GetLittleEndianEngine()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
