package wire

import (
	"github.com/nanolog/corelog/endian"
	"github.com/nanolog/corelog/logmsg"
)

// timestampWireSize is the on-wire size of one logmsg.Timestamp: u64 sec,
// u32 usec, u32 gmtoff.
const timestampWireSize = 8 + 4 + 4

func appendTimestamp(buf []byte, engine endian.EndianEngine, ts logmsg.Timestamp) []byte {
	buf = engine.AppendUint64(buf, uint64(ts.Sec))
	buf = engine.AppendUint32(buf, uint32(ts.USec))
	buf = engine.AppendUint32(buf, uint32(ts.GMTOff))
	return buf
}

func decodeTimestamp(buf []byte, engine endian.EndianEngine) logmsg.Timestamp {
	return logmsg.Timestamp{
		Sec:    int64(engine.Uint64(buf[0:8])),
		USec:   int32(engine.Uint32(buf[8:12])),
		GMTOff: int32(engine.Uint32(buf[12:16])),
	}
}
