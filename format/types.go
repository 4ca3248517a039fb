// Package format defines the small enums shared by the wire codec and the
// NVTable arena: the wire format version, the NVTable payload compression
// selector, and the socket address family tags used by LogMessage's
// source address.
package format

// CompressionType selects the codec applied to an NVTable payload blob
// before it is written to the wire frame (see package wire and package
// compress). It is orthogonal to the NVTable's own byte layout: the
// compressed bytes, once inflated, are the same NVT2 block described in
// nvtable.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone disables payload compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd compresses the payload with Zstandard.
	CompressionLZ4  CompressionType = 0x3 // CompressionLZ4 compresses the payload with LZ4.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Version is the wire format version of a serialized LogMessage.
type Version uint8

// CurrentVersion is the only version the deserializer accepts on a live
// stream. Legacy NVTable layouts are upgraded by package wire's legacy
// reader, not accepted directly here.
const CurrentVersion Version = 26

// SockFamily tags the kind of payload stored in a serialized source
// address.
type SockFamily uint16

const (
	SockFamilyNone  SockFamily = 0
	SockFamilyInet  SockFamily = 2
	SockFamilyInet6 SockFamily = 10
	SockFamilyUnix  SockFamily = 1
)

func (f SockFamily) String() string {
	switch f {
	case SockFamilyNone:
		return "none"
	case SockFamilyInet:
		return "inet"
	case SockFamilyInet6:
		return "inet6"
	case SockFamilyUnix:
		return "unix"
	default:
		return "unknown"
	}
}
