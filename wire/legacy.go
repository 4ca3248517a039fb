package wire

import (
	"fmt"

	"github.com/nanolog/corelog/endian"
	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/nvtable"
)

// LegacyVersion names one of the two pre-v26 on-disk NVTable layouts the
// persistent-state upgrade path must still be able to read. These are
// never produced by Encode and are only reachable via
// UpgradeLegacyNVTable; live message deserialization (Decode) never reads
// them. No package in this module calls UpgradeLegacyNVTable.
type LegacyVersion uint8

const (
	// LegacyV22 is the syslog-ng 2.2-era layout: 16-bit index offsets,
	// no `unset` flag bit, a narrower entry header.
	LegacyV22 LegacyVersion = 22
	// LegacyV3 is the pre-v26, v3-series layout: 32-bit index offsets
	// but still the narrow entry header v22 used.
	LegacyV3 LegacyVersion = 3
)

// legacyIndexEntrySize differs per version: v22 packs a 16-bit offset,
// v3 widened it to 32 bits but kept the narrow entry header.
func legacyIndexEntrySize(v LegacyVersion) int {
	if v == LegacyV22 {
		return 4 + 2 // handle(4) + offset(2)
	}
	return 4 + 4 // handle(4) + offset(4)
}

// legacyDirectHeaderSize is the pre-v26 direct entry header: flags(1) +
// nameLen(1) + valueLen(4). Unlike the current format, legacy entries
// carry no alloc_len field — each entry is packed tight, so alloc_len on
// upgrade is simply the entry's exact encoded size rounded up to the
// current 4-byte granularity.
const legacyDirectHeaderSize = 6

// UpgradeLegacyNVTable parses a pre-v26 NVTable block of the given
// version and rewrites it into a current-format *nvtable.Table: 16-bit
// index offsets are scaled up to 32 bits, index entries are widened to
// the current NVIndexEntry layout, and every entry header is reshaped to
// include an alloc_len field.
func UpgradeLegacyNVTable(v LegacyVersion, buf []byte, bigEndian bool) (*nvtable.Table, error) {
	if v != LegacyV22 && v != LegacyV3 {
		return nil, fmt.Errorf("%w: unsupported legacy nvtable version %d", errs.ErrVersion, v)
	}

	engine := engineFor(bigEndian)

	if len(buf) < 4+1+4 {
		return nil, fmt.Errorf("%w: legacy nvtable header truncated", errs.ErrFormat)
	}

	size := engine.Uint32(buf[0:4])
	if int(size) > nvtable.MaxSize {
		return nil, fmt.Errorf("%w: legacy nvtable size %d exceeds %d byte ceiling", errs.ErrFormat, size, nvtable.MaxSize)
	}
	numStatic := int(buf[4])
	off := 5

	if len(buf) < off+numStatic*2 {
		return nil, fmt.Errorf("%w: legacy static slot table truncated", errs.ErrFormat)
	}
	static := make([]uint32, numStatic)
	for i := range static {
		static[i] = uint32(engine.Uint16(buf[off : off+2]))
		off += 2
	}

	if len(buf) < off+2 {
		return nil, fmt.Errorf("%w: legacy index size truncated", errs.ErrFormat)
	}
	indexSize := int(engine.Uint16(buf[off : off+2]))
	off += 2

	ieSize := legacyIndexEntrySize(v)
	if len(buf) < off+indexSize*ieSize {
		return nil, fmt.Errorf("%w: legacy index truncated", errs.ErrFormat)
	}
	index := make([]nvtable.IndexEntry, indexSize)
	for i := range index {
		index[i].Handle = engine.Uint32(buf[off : off+4])
		off += 4
		if v == LegacyV22 {
			index[i].Offset = uint32(engine.Uint16(buf[off : off+2]))
			off += 2
		} else {
			index[i].Offset = engine.Uint32(buf[off : off+4])
			off += 4
		}
	}

	rawPayload := buf[off:]
	payload, offsets, err := reshapeLegacyPayload(engine, rawPayload)
	if err != nil {
		return nil, err
	}

	// The legacy format stores payload entries in the same relative
	// order as the index, but packed tight; reshaping each entry to the
	// current, larger, 4-byte-aligned layout shifts every offset after
	// the first. Recompute "distance from arena top" from the reshaped
	// entries' actual positions rather than trusting the legacy offsets,
	// matching legacy index slots to reshaped entries positionally.
	for i := range index {
		if i < len(offsets) {
			index[i].Offset = offsets[i]
		}
	}

	return nvtable.FromRaw(engine, int(size), numStatic, static, index, payload), nil
}

// reshapeLegacyPayload walks the legacy payload's packed entries (no
// alloc_len, narrow header) and re-encodes each as a current-format
// direct entry with an explicit, 4-byte-aligned alloc_len. It returns the
// reshaped payload bytes and, for each entry in encounter order, its
// resulting "distance from arena top" offset.
func reshapeLegacyPayload(engine endian.EndianEngine, buf []byte) ([]byte, []uint32, error) {
	var out []byte
	var offsets []uint32

	for len(buf) > 0 {
		if len(buf) < legacyDirectHeaderSize {
			return nil, nil, fmt.Errorf("%w: legacy entry header truncated", errs.ErrFormat)
		}

		flags := buf[0]
		nameLen := int(buf[1])
		valueLen := int(engine.Uint32(buf[2:6]))

		need := legacyDirectHeaderSize + nameLen + 1 + valueLen + 1
		if len(buf) < need {
			return nil, nil, fmt.Errorf("%w: legacy entry body truncated", errs.ErrFormat)
		}

		name := string(buf[legacyDirectHeaderSize : legacyDirectHeaderSize+nameLen])
		valueStart := legacyDirectHeaderSize + nameLen + 1
		value := buf[valueStart : valueStart+valueLen]

		reshaped := make([]byte, 10)
		reshaped[0] = flags &^ 0x04 // legacy had no `unset` bit; clear reserved bits
		reshaped[1] = byte(nameLen)
		allocLen := alignUp(10+nameLen+1+valueLen+1, 4)
		engine.PutUint32(reshaped[2:6], uint32(allocLen))
		engine.PutUint32(reshaped[6:10], uint32(valueLen))
		reshaped = append(reshaped, name...)
		reshaped = append(reshaped, 0)
		reshaped = append(reshaped, value...)
		reshaped = append(reshaped, 0)
		for len(reshaped) < allocLen {
			reshaped = append(reshaped, 0)
		}

		// Each later entry goes below the earlier ones, as nvtable's own
		// appends do, so len(out) is the entry's distance from the top.
		out = append(reshaped, out...)
		offsets = append(offsets, uint32(len(out)))
		buf = buf[need:]
	}

	return out, offsets, nil
}

func alignUp(n, granularity int) int {
	if rem := n % granularity; rem != 0 {
		n += granularity - rem
	}
	return n
}
