package wire

import (
	"fmt"

	"github.com/nanolog/corelog/compress"
	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/format"
	"github.com/nanolog/corelog/nvtable"
)

// EncodeNVTableOptions controls how EncodeNVTable frames a table.
type EncodeNVTableOptions struct {
	// BigEndian writes the frame tagged as big-endian; when false the
	// frame is written little-endian, whatever the host's order.
	BigEndian bool
	// Compression selects the codec applied to the payload region. Zero
	// value is format.CompressionNone.
	Compression format.CompressionType
}

// EncodeNVTable serializes t into the NVTable block layout:
//
//	u32  magic = "NVT2"
//	u8   flags (bit0 big-endian, bit1 supports-unset, bit2 compressed [corelog extension])
//	u8   compression (present only when bit2 is set)
//	u32  size
//	u32  used (on-wire payload length: compressed length when bit2 is set,
//	           else the raw arena payload length)
//	u16  index_size
//	u8   num_static
//	u32  static_slots[num_static]
//	NVIndexEntry index[index_size]
//	bytes payload[...]  (compressed if bit2 is set)
func EncodeNVTable(t *nvtable.Table, opts EncodeNVTableOptions) ([]byte, error) {
	engine := engineFor(opts.BigEndian)

	static, index, payload := rawSections(t)

	var flags uint8 = nvFlagUnset
	if opts.BigEndian {
		flags |= nvFlagBigEndian
	}

	var compressedPayload []byte
	if opts.Compression != 0 && opts.Compression != format.CompressionNone {
		codec, err := compress.CreateCodec(opts.Compression, "nvtable payload")
		if err != nil {
			return nil, err
		}
		compressedPayload, err = codec.Compress(payload)
		if err != nil {
			return nil, fmt.Errorf("wire: compressing nvtable payload: %w", err)
		}
		flags |= nvFlagCompressed
	} else {
		compressedPayload = payload
	}

	headerLen := 4 + 1 + 4 + 4 + 2 + 1
	if flags&nvFlagCompressed != 0 {
		headerLen++
	}

	buf := make([]byte, 0, headerLen+len(static)*4+len(index)*8+len(compressedPayload))
	buf = append(buf, nvMagic[:]...)
	buf = append(buf, flags)
	if flags&nvFlagCompressed != 0 {
		buf = append(buf, byte(opts.Compression))
	}
	buf = engine.AppendUint32(buf, uint32(t.Size()))
	buf = engine.AppendUint32(buf, uint32(len(compressedPayload)))
	buf = engine.AppendUint16(buf, uint16(len(index)))
	buf = append(buf, byte(len(static)))
	for _, s := range static {
		buf = engine.AppendUint32(buf, s)
	}
	for _, e := range index {
		buf = engine.AppendUint32(buf, e.Handle)
		buf = engine.AppendUint32(buf, e.Offset)
	}
	buf = append(buf, compressedPayload...)

	return buf, nil
}

// DecodeNVTable parses an NVTable block from buf, returning the decoded
// Table and the number of bytes consumed. Every multi-byte field is read
// with the engine the block's big-endian flag selects (big-endian when
// set, little-endian otherwise), and the resulting Table carries that
// engine for subsequent in-memory access.
func DecodeNVTable(buf []byte) (*nvtable.Table, int, error) {
	if len(buf) < 10 || string(buf[0:4]) != string(nvMagic[:]) {
		return nil, 0, fmt.Errorf("%w: bad nvtable magic", errs.ErrFormat)
	}

	flags := buf[4]
	off := 5

	var compression format.CompressionType
	if flags&nvFlagCompressed != 0 {
		if len(buf) < off+1 {
			return nil, 0, fmt.Errorf("%w: truncated nvtable compression byte", errs.ErrFormat)
		}
		compression = format.CompressionType(buf[off])
		off++
	}

	engine := engineFor(flags&nvFlagBigEndian != 0)

	need := off + 4 + 4 + 2 + 1
	if len(buf) < need {
		return nil, 0, fmt.Errorf("%w: truncated nvtable header", errs.ErrFormat)
	}

	size := engine.Uint32(buf[off : off+4])
	off += 4
	onWireLen := engine.Uint32(buf[off : off+4])
	off += 4
	indexSize := engine.Uint16(buf[off : off+2])
	off += 2
	numStatic := int(buf[off])
	off++

	if int(size) > nvtable.MaxSize {
		return nil, 0, fmt.Errorf("%w: nvtable size %d exceeds %d byte ceiling", errs.ErrFormat, size, nvtable.MaxSize)
	}

	if len(buf) < off+numStatic*4 {
		return nil, 0, fmt.Errorf("%w: truncated static slot table", errs.ErrFormat)
	}
	static := make([]uint32, numStatic)
	for i := range static {
		static[i] = engine.Uint32(buf[off : off+4])
		off += 4
	}

	if len(buf) < off+int(indexSize)*8 {
		return nil, 0, fmt.Errorf("%w: truncated nvtable index", errs.ErrFormat)
	}
	index := make([]nvtable.IndexEntry, indexSize)
	for i := range index {
		index[i].Handle = engine.Uint32(buf[off : off+4])
		off += 4
		index[i].Offset = engine.Uint32(buf[off : off+4])
		off += 4
	}

	if len(buf) < off+int(onWireLen) {
		return nil, 0, fmt.Errorf("%w: truncated nvtable payload", errs.ErrFormat)
	}
	rawPayload := buf[off : off+int(onWireLen)]
	off += int(onWireLen)

	payload := rawPayload
	if flags&nvFlagCompressed != 0 {
		codec, err := compress.CreateCodec(compression, "nvtable payload")
		if err != nil {
			return nil, 0, err
		}
		payload, err = codec.Decompress(rawPayload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: decompressing nvtable payload: %v", errs.ErrFormat, err)
		}
	}

	t := nvtable.FromRaw(engine, int(size), numStatic, static, index, payload)

	return t, off, nil
}

// rawSections gathers t's static slots, sorted index, and payload bytes
// for framing, through nvtable.Table's RawStatic, IndexSnapshot and
// RawPayload accessors.
func rawSections(t *nvtable.Table) ([]uint32, []nvtable.IndexEntry, []byte) {
	return t.RawStatic(), t.IndexSnapshot(), t.RawPayload()
}
