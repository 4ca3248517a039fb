package tail

// StateVersion is the currently defined persisted tail-source state
// entry version.
const StateVersion = 4

// State is the versioned, persistable snapshot of a Source's read
// position. It round-trips through package persist's Store, tagged with
// its own byte order independent of the NVTable block's.
type State struct {
	Version   uint8
	BigEndian bool

	BufferPos        uint32
	PendingBufferPos uint32
	PendingBufferEnd uint32
	BufferSize       uint32

	RawStreamPos         uint64
	RawBufferSize        uint32
	PendingRawStreamPos  uint64
	PendingRawBufferSize uint32

	FileSize  uint64
	FileInode uint64

	RawBufferLeftover []byte
}
