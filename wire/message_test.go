package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/format"
	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/logmsg"
)

func newTestMessage(t *testing.T) *logmsg.Message {
	t.Helper()

	m := logmsg.New(handle.NumStatic)
	m.RcptID = 12345
	m.Pri = 14
	m.HostID = 7
	m.InitialParse = 1
	m.NumMatches = 3
	m.SourceAddr = logmsg.SourceAddress{
		Family: uint16(format.SockFamilyInet),
		IP:     []byte{127, 0, 0, 1},
		Port:   514,
	}
	m.Timestamps[logmsg.TimeStamp] = logmsg.Timestamp{Sec: 1700000000, USec: 123, GMTOff: -18000}
	m.Timestamps[logmsg.TimeReceived] = logmsg.Timestamp{Sec: 1700000001, USec: 0, GMTOff: -18000}
	m.Timestamps[logmsg.TimeProcessed] = logmsg.Timestamp{Sec: 1700000002, USec: 0, GMTOff: -18000}

	_, err := m.Set(1, "MESSAGE", []byte("hello world"))
	require.NoError(t, err)

	return m
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := newTestMessage(t)

	buf, err := Encode(m, EncodeNVTableOptions{})
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, m.RcptID, decoded.RcptID)
	assert.Equal(t, m.Pri, decoded.Pri)
	assert.Equal(t, m.HostID, decoded.HostID)
	assert.Equal(t, m.SourceAddr, decoded.SourceAddr)
	assert.Equal(t, m.Timestamps, decoded.Timestamps)

	v, ok := decoded.Get(1)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(v))
}

func TestEncodeDecodeRoundTripBigEndian(t *testing.T) {
	m := newTestMessage(t)

	buf, err := Encode(m, EncodeNVTableOptions{BigEndian: true})
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)

	v, ok := decoded.Get(1)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(v))
}

func TestEncodeDecodeWithCompression(t *testing.T) {
	m := newTestMessage(t)

	buf, err := Encode(m, EncodeNVTableOptions{Compression: format.CompressionZstd})
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)

	v, ok := decoded.Get(1)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(v))
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	buf := []byte{25, 0, 0, 0, 0, 0, 0, 0, 0}

	_, err := Decode(buf)
	assert.ErrorIs(t, err, errs.ErrVersion)
}
