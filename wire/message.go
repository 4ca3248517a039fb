package wire

import (
	"fmt"

	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/logmsg"
)

// stateFlagMask clears the in-memory-only "state bits" from Flags before
// serialization. The low byte carries the persisted semantic flags; the
// upper three bytes are process-local bookkeeping the producer and
// consumer are not expected to agree on.
const stateFlagMask = 0x000000FF

// Encode serializes m into a wire frame and returns it. opts.BigEndian
// controls both the top-level and the embedded NVTable byte order;
// opts.Compression controls the NVTable payload compression stage.
func Encode(m *logmsg.Message, opts EncodeNVTableOptions) ([]byte, error) {
	engine := engineFor(opts.BigEndian)

	nvBytes, err := EncodeNVTable(m.Payload(), opts)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 64+len(nvBytes))
	buf = append(buf, byte(CurrentVersion))
	buf = append(buf, outerEndianByte(opts.BigEndian))
	buf = engine.AppendUint64(buf, m.RcptID)
	buf = engine.AppendUint32(buf, m.Flags&stateFlagMask)
	buf = engine.AppendUint16(buf, m.Pri)
	buf = appendSockAddr(buf, engine, m.SourceAddr)

	for _, ts := range m.Timestamps {
		buf = appendTimestamp(buf, engine, ts)
	}

	buf = engine.AppendUint32(buf, m.HostID)

	words := m.Tags.Words()
	buf = engine.AppendUint32(buf, uint32(len(words)))
	for _, w := range words {
		buf = engine.AppendUint64(buf, w)
	}

	buf = append(buf, m.InitialParse, m.NumMatches)
	buf = append(buf, byte(len(m.SDataHandles)), byte(len(m.SDataHandles)))
	for _, h := range m.SDataHandles {
		buf = engine.AppendUint32(buf, uint32(h))
	}

	buf = append(buf, nvBytes...)

	return buf, nil
}

// Decode parses a wire frame into a fresh logmsg.Message. The returned
// message's payload NVTable still carries producer-local dynamic handles
// and MUST be passed through package fixup before its fields are read by
// handle.
func Decode(buf []byte) (*logmsg.Message, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("%w: empty frame", errs.ErrFormat)
	}

	if err := checkVersion(buf[0]); err != nil {
		return nil, err
	}
	if len(buf) < 2 {
		return nil, fmt.Errorf("%w: missing outer endian byte", errs.ErrFormat)
	}

	// The outer LogMessage frame may be written in host order with a
	// top-level flag rather than always big-endian; corelog writes an
	// explicit one-byte flag right after the version so the reader never
	// has to guess (or scan ahead into the NVTable block, which also
	// tags its own order independently).
	engine := engineFor(buf[1]&nvFlagBigEndian != 0)
	off := 2

	m := logmsg.New(handle.NumStatic)

	if len(buf) < off+8 {
		return nil, fmt.Errorf("%w: truncated rcptid", errs.ErrFormat)
	}
	m.RcptID = engine.Uint64(buf[off : off+8])
	off += 8

	if len(buf) < off+4 {
		return nil, fmt.Errorf("%w: truncated flags", errs.ErrFormat)
	}
	m.Flags = engine.Uint32(buf[off:off+4]) & stateFlagMask
	off += 4

	if len(buf) < off+2 {
		return nil, fmt.Errorf("%w: truncated pri", errs.ErrFormat)
	}
	m.Pri = engine.Uint16(buf[off : off+2])
	off += 2

	addr, n, err := decodeSockAddr(buf[off:], engine)
	if err != nil {
		return nil, err
	}
	m.SourceAddr = addr
	off += n

	for i := range m.Timestamps {
		if len(buf) < off+timestampWireSize {
			return nil, fmt.Errorf("%w: truncated timestamp %d", errs.ErrFormat, i)
		}
		m.Timestamps[i] = decodeTimestamp(buf[off:], engine)
		off += timestampWireSize
	}

	if len(buf) < off+4 {
		return nil, fmt.Errorf("%w: truncated host_id", errs.ErrFormat)
	}
	m.HostID = engine.Uint32(buf[off : off+4])
	off += 4

	if len(buf) < off+4 {
		return nil, fmt.Errorf("%w: truncated tag word count", errs.ErrFormat)
	}
	numWords := int(engine.Uint32(buf[off : off+4]))
	off += 4
	if len(buf) < off+numWords*8 {
		return nil, fmt.Errorf("%w: truncated tag words", errs.ErrFormat)
	}
	words := make([]uint64, numWords)
	for i := range words {
		words[i] = engine.Uint64(buf[off : off+8])
		off += 8
	}
	m.Tags.SetWords(words)

	if len(buf) < off+4 {
		return nil, fmt.Errorf("%w: truncated parse/match/sdata counts", errs.ErrFormat)
	}
	m.InitialParse = buf[off]
	m.NumMatches = buf[off+1]
	numSData := int(buf[off+2])
	allocSData := int(buf[off+3])
	off += 4
	if numSData > allocSData {
		return nil, fmt.Errorf("%w: num_sdata %d exceeds alloc_sdata %d", errs.ErrFormat, numSData, allocSData)
	}

	if len(buf) < off+numSData*4 {
		return nil, fmt.Errorf("%w: truncated sdata handles", errs.ErrFormat)
	}
	m.SDataHandles = make([]handle.Handle, numSData)
	for i := range m.SDataHandles {
		m.SDataHandles[i] = handle.Handle(engine.Uint32(buf[off : off+4]))
		off += 4
	}

	table, _, err := DecodeNVTable(buf[off:])
	if err != nil {
		return nil, err
	}
	m.SetPayload(table)

	return m, nil
}

// outerEndianByte encodes the outer frame's byte order using the same bit
// position as the NVTable block's flag byte, so both are recognizable at
// a glance in a hex dump.
func outerEndianByte(bigEndian bool) byte {
	if bigEndian {
		return nvFlagBigEndian
	}
	return 0
}
