// Package corelog provides a binary log-message arena, a versioned wire
// codec, and a buffered tailing source, modeled on syslog-ng's internal
// LogMessage representation.
//
// # Core Features
//
//   - A reference-counted, copy-on-write name-value arena (NVTable) for a
//     log message's fields, shared across copies until one is mutated
//   - A versioned binary wire format with optional Zstd/LZ4 compression
//   - Post-deserialize handle fixup, remapping a producer's name handles
//     onto a consumer's local registry
//   - A non-blocking, transcoding buffered tail source with persisted
//     read position across restarts
//   - A directory monitor for wildcard log sources, event-driven or
//     polling
//
// # Basic Usage
//
// Building and serializing a message:
//
//	reg := handle.NewRegistry()
//	hostHandle, _ := reg.Lookup("HOST")
//
//	msg := logmsg.New(handle.NumStatic)
//	msg.Set(hostHandle, "HOST", []byte("web-01"))
//
//	frame, _ := wire.Encode(msg, wire.EncodeNVTableOptions{Compression: format.CompressionLZ4})
//
// Deserializing and fixing up handles on the receiving side, where the
// consumer's registry may have allocated handles for the same names in a
// different order:
//
//	consumerReg := handle.NewRegistry()
//	decoded, _ := wire.Decode(frame)
//	decoded.SDataHandles = fixup.Run(decoded.Payload(), consumerReg, decoded.SDataHandles)
//
// # Package Structure
//
// This file provides convenience wrappers around the handle, nvtable,
// logmsg, wire, fixup, tail, persist, and dirmon packages. For
// fine-grained control, use those packages directly.
package corelog

import (
	"io"

	"github.com/nanolog/corelog/dirmon"
	"github.com/nanolog/corelog/fixup"
	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/logmsg"
	"github.com/nanolog/corelog/nvtable"
	"github.com/nanolog/corelog/persist"
	"github.com/nanolog/corelog/tail"
	"github.com/nanolog/corelog/wire"
)

// NewRegistry creates an empty name registry (C1), pre-populated with
// the well-known static field names.
func NewRegistry() *handle.Registry {
	return handle.NewRegistry()
}

// NewMessage creates an empty log message (C3) with numStatic reserved
// static NVTable slots.
func NewMessage(numStatic int) *logmsg.Message {
	return logmsg.New(numStatic)
}

// NewArena creates a standalone NVTable arena (C2) outside of a Message,
// for callers building a payload incrementally before attaching it.
func NewArena(numStatic int, initialSize int) *nvtable.Table {
	return nvtable.New(numStatic, initialSize)
}

// Encode serializes msg into the wire format (C4).
func Encode(msg *logmsg.Message, opts wire.EncodeNVTableOptions) ([]byte, error) {
	return wire.Encode(msg, opts)
}

// Decode parses a wire frame into a Message (C4). The returned message's
// NVTable still carries the producer's handle assignments; pass it
// through Fixup before reading fields by handle from a consumer-side
// registry.
func Decode(buf []byte) (*logmsg.Message, error) {
	return wire.Decode(buf)
}

// Fixup remaps msg's payload from producer-local to consumer-local
// handles (C5), returning the updated SDATA handle list. msg.SDataHandles
// should be replaced with the result.
func Fixup(msg *logmsg.Message, reg *handle.Registry) []handle.Handle {
	return fixup.Run(msg.Payload(), reg, msg.SDataHandles)
}

// NewTailSource creates a buffered tail source (C6) reading from r.
func NewTailSource(r io.Reader, opts ...tail.Option) *tail.Source {
	return tail.New(r, opts...)
}

// NewPersistentStore creates an in-process persistent state store (C7)
// for tail-source read positions.
func NewPersistentStore() *persist.FileStore {
	return persist.NewFileStore()
}

// NewDirectoryMonitor creates an event-driven directory monitor (C8) for
// dir, falling back to polling is the caller's responsibility via
// dirmon.NewPollMonitor when fsnotify isn't available on the target
// platform.
func NewDirectoryMonitor(dir string) dirmon.Monitor {
	return dirmon.NewEventMonitor(dir)
}
