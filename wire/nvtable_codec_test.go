package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolog/corelog/format"
	"github.com/nanolog/corelog/nvtable"
)

func TestEncodeDecodeNVTableRoundTrip(t *testing.T) {
	tbl := nvtable.New(4, 256)
	_, err := tbl.Set(1, "HOST", []byte("example.com"))
	require.NoError(t, err)
	_, err = tbl.Set(50, "EXTRA", []byte("value"))
	require.NoError(t, err)

	buf, err := EncodeNVTable(tbl, EncodeNVTableOptions{})
	require.NoError(t, err)

	decoded, n, err := DecodeNVTable(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	v, ok := decoded.Get(1)
	require.True(t, ok)
	assert.Equal(t, "example.com", string(v))

	v, ok = decoded.Get(50)
	require.True(t, ok)
	assert.Equal(t, "value", string(v))
}

func TestEncodeDecodeNVTableCompressed(t *testing.T) {
	tbl := nvtable.New(4, 256)
	_, err := tbl.Set(1, "MESSAGE", []byte("a fairly long message body to compress"))
	require.NoError(t, err)

	buf, err := EncodeNVTable(tbl, EncodeNVTableOptions{Compression: format.CompressionLZ4})
	require.NoError(t, err)

	decoded, _, err := DecodeNVTable(buf)
	require.NoError(t, err)

	v, ok := decoded.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a fairly long message body to compress", string(v))
}

func TestDecodeNVTableRejectsBadMagic(t *testing.T) {
	buf := []byte{'X', 'X', 'X', 'X', 0, 0, 0, 0, 0, 0}

	_, _, err := DecodeNVTable(buf)
	assert.Error(t, err)
}
