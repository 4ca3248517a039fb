// Package wire implements the versioned binary serializer and
// deserializer for logmsg.Message: the top-level LogMessage frame plus its
// embedded NVTable block ("NVT2"), an optional payload compression stage
// via package compress, and a legacy upgrade path for pre-v26 on-disk
// NVTable layouts.
//
// Headers use a fixed-layout Parse/Bytes round trip with an explicit
// endian engine selection and byte-level field packing.
package wire

import (
	"fmt"

	"github.com/nanolog/corelog/endian"
	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/format"
)

// CurrentVersion is the only LogMessage frame version the deserializer
// accepts on a live stream.
const CurrentVersion = format.CurrentVersion

// nvMagic is the NVTable block's four-byte magic, "NVT2".
var nvMagic = [4]byte{'N', 'V', 'T', '2'}

// NVTable block flag bits.
const (
	nvFlagBigEndian uint8 = 1 << 0
	nvFlagUnset     uint8 = 1 << 1
	// nvFlagCompressed marks the payload bytes following the index as
	// compressed with the codec named by the compression byte that
	// follows the flags byte.
	nvFlagCompressed uint8 = 1 << 2
)

// engineFor returns the endian engine matching the big-endian flag bit.
func engineFor(bigEndian bool) endian.EndianEngine {
	if bigEndian {
		return endian.GetBigEndianEngine()
	}
	return endian.GetLittleEndianEngine()
}

func checkVersion(v uint8) error {
	if format.Version(v) != CurrentVersion {
		return fmt.Errorf("%w: got version %d, want %d", errs.ErrVersion, v, CurrentVersion)
	}
	return nil
}
