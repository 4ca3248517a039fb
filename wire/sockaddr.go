package wire

import (
	"fmt"

	"github.com/nanolog/corelog/endian"
	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/format"
	"github.com/nanolog/corelog/logmsg"
)

// appendSockAddr encodes a SourceAddress as u16 family followed by a
// family-specific payload. Family 0 writes nothing further.
func appendSockAddr(buf []byte, engine endian.EndianEngine, addr logmsg.SourceAddress) []byte {
	buf = engine.AppendUint16(buf, addr.Family)

	switch format.SockFamily(addr.Family) {
	case format.SockFamilyNone:
		return buf
	case format.SockFamilyInet:
		buf = append(buf, addr.IP...)
		buf = engine.AppendUint16(buf, addr.Port)
	case format.SockFamilyInet6:
		buf = append(buf, addr.IP...)
		buf = engine.AppendUint16(buf, addr.Port)
	case format.SockFamilyUnix:
		buf = engine.AppendUint16(buf, uint16(len(addr.Path)))
		buf = append(buf, addr.Path...)
	}

	return buf
}

// decodeSockAddr parses a SourceAddress from buf, returning the address
// and the number of bytes consumed.
func decodeSockAddr(buf []byte, engine endian.EndianEngine) (logmsg.SourceAddress, int, error) {
	if len(buf) < 2 {
		return logmsg.SourceAddress{}, 0, fmt.Errorf("%w: truncated sockaddr family", errs.ErrFormat)
	}

	family := engine.Uint16(buf[0:2])
	off := 2

	switch format.SockFamily(family) {
	case format.SockFamilyNone:
		return logmsg.SourceAddress{Family: family}, off, nil
	case format.SockFamilyInet:
		if len(buf) < off+6 {
			return logmsg.SourceAddress{}, 0, fmt.Errorf("%w: truncated inet sockaddr", errs.ErrFormat)
		}
		ip := append([]byte(nil), buf[off:off+4]...)
		off += 4
		port := engine.Uint16(buf[off : off+2])
		off += 2
		return logmsg.SourceAddress{Family: family, IP: ip, Port: port}, off, nil
	case format.SockFamilyInet6:
		if len(buf) < off+18 {
			return logmsg.SourceAddress{}, 0, fmt.Errorf("%w: truncated inet6 sockaddr", errs.ErrFormat)
		}
		ip := append([]byte(nil), buf[off:off+16]...)
		off += 16
		port := engine.Uint16(buf[off : off+2])
		off += 2
		return logmsg.SourceAddress{Family: family, IP: ip, Port: port}, off, nil
	case format.SockFamilyUnix:
		if len(buf) < off+2 {
			return logmsg.SourceAddress{}, 0, fmt.Errorf("%w: truncated unix sockaddr length", errs.ErrFormat)
		}
		pathLen := int(engine.Uint16(buf[off : off+2]))
		off += 2
		if len(buf) < off+pathLen {
			return logmsg.SourceAddress{}, 0, fmt.Errorf("%w: truncated unix sockaddr path", errs.ErrFormat)
		}
		path := string(buf[off : off+pathLen])
		off += pathLen
		return logmsg.SourceAddress{Family: family, Path: path}, off, nil
	default:
		return logmsg.SourceAddress{}, 0, fmt.Errorf("%w: unknown socket family %d", errs.ErrFormat, family)
	}
}
