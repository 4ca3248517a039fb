// Package logmsg implements the LogMessage record: the header fields
// (priority, flags, three timestamps, host id, receipt id, source
// address, tag set, structured-data handle list) plus its NVTable
// payload.
package logmsg

import (
	"fmt"
	"sync/atomic"

	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/nvtable"
)

// MaxPri is the exclusive upper bound on a valid priority value
// (facility<<3 | severity must fit in 10 bits).
const MaxPri = 1024

// MaxTimestamps is the number of timestamp slots a LogMessage carries:
// the message's own stamp, the time it was received, and the time it was
// processed.
const MaxTimestamps = 3

// Timestamp index assignments into the Timestamps array.
const (
	TimeStamp = iota
	TimeReceived
	TimeProcessed
)

// Timestamp is a wall-clock reading with an explicit UTC offset, matching
// the wire Timestamp layout (sec, usec, gmtoff).
type Timestamp struct {
	Sec    int64
	USec   int32
	GMTOff int32
}

// SourceAddress is the optional socket address a message was received
// on. Family zero means no source address was recorded.
type SourceAddress struct {
	Family uint16
	IP     []byte // 4 bytes for inet, 16 for inet6, nil for unix/none
	Port   uint16
	Path   string // AF_UNIX only
}

// Message is a single log record: scalar header fields plus a payload
// NVTable holding its name-value fields.
//
// A Message's own refcount is atomic (distinct from its NVTable's
// single-owner refcount) because messages are fanned out to multiple
// destination workers concurrently, while the NVTable a Message wraps is
// only ever mutated by whichever worker currently holds the writable
// (non-shared) reference.
type Message struct {
	refCnt atomic.Int32

	RcptID        uint64
	Flags         uint32
	Pri           uint16
	SourceAddr    SourceAddress
	Timestamps    [MaxTimestamps]Timestamp
	HostID        uint32
	Tags          TagSet
	InitialParse  uint8
	NumMatches    uint8
	SDataHandles  []handle.Handle

	payload *nvtable.Table
}

// New creates a Message with a fresh, empty NVTable payload sized for
// numStatic static fields and a refcount of one.
func New(numStatic int) *Message {
	m := &Message{payload: nvtable.New(numStatic, 512)}
	m.refCnt.Store(1)
	return m
}

// Ref increments the message's reference count.
func (m *Message) Ref() { m.refCnt.Add(1) }

// Unref decrements the message's reference count. Callers MUST stop using
// m after a call that brings the count to zero.
func (m *Message) Unref() int32 { return m.refCnt.Add(-1) }

// RefCount returns the current reference count.
func (m *Message) RefCount() int32 { return m.refCnt.Load() }

// Payload returns the message's NVTable.
func (m *Message) Payload() *nvtable.Table { return m.payload }

// SetPayload replaces the message's NVTable wholesale, used by package
// wire immediately after decoding a frame into a fresh Message.
func (m *Message) SetPayload(t *nvtable.Table) { m.payload = t }

// MakeWritable ensures the message's NVTable is exclusively owned,
// cloning it first if it is currently shared. ackPath messages (on the
// acknowledgement/retry path) are never cloned implicitly, since mutating
// the shared arena there would corrupt the copy another worker still
// holds for retry.
func (m *Message) MakeWritable(ackPath bool) error {
	if !m.payload.Shared() {
		return nil
	}
	if ackPath {
		return fmt.Errorf("logmsg: cannot make ack-path message writable while shared")
	}

	clone := m.payload.Clone(64)
	m.payload.Unref()
	m.payload = clone

	return nil
}

// Clone returns a shallow copy of m: a new Message header sharing the same
// NVTable (whose refcount is bumped).
func (m *Message) Clone() *Message {
	clone := &Message{
		RcptID:       m.RcptID,
		Flags:        m.Flags,
		Pri:          m.Pri,
		SourceAddr:   m.SourceAddr,
		Timestamps:   m.Timestamps,
		HostID:       m.HostID,
		Tags:         m.Tags,
		InitialParse: m.InitialParse,
		NumMatches:   m.NumMatches,
		SDataHandles: append([]handle.Handle(nil), m.SDataHandles...),
		payload:      m.payload,
	}
	clone.refCnt.Store(1)
	m.payload.Ref()

	return clone
}

// Validate checks a Message's invariants: num_sdata ≤ alloc_sdata is
// implicit in SDataHandles being a Go slice (no separate capacity to
// violate); pri < MaxPri; at most MaxTimestamps timestamps (enforced by
// the fixed array); every sdata handle names a structured-data field.
func (m *Message) Validate(reg *handle.Registry) error {
	if m.Pri >= MaxPri {
		return fmt.Errorf("logmsg: pri %d exceeds maximum %d", m.Pri, MaxPri)
	}

	for _, h := range m.SDataHandles {
		if !reg.IsSDATA(h) {
			return fmt.Errorf("logmsg: sdata handle %d is not flagged as structured data", h)
		}
	}

	return nil
}

// Get returns the value stored under handle h, following indirect
// entries.
func (m *Message) Get(h handle.Handle) ([]byte, bool) {
	return m.payload.Get(uint32(h))
}

// Set stores value under handle h. The caller must have called
// MakeWritable first if the payload may be shared.
func (m *Message) Set(h handle.Handle, name string, value []byte) (bool, error) {
	return m.payload.Set(uint32(h), name, value)
}
