package corelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolog/corelog/format"
	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/wire"
)

func TestEncodeDecodeFixupRoundTrip(t *testing.T) {
	producerReg := NewRegistry()
	hostHandle, ok := producerReg.Lookup("HOST")
	require.True(t, ok)

	msg := NewMessage(handle.NumStatic)
	_, err := msg.Set(hostHandle, "HOST", []byte("web-01"))
	require.NoError(t, err)

	frame, err := Encode(msg, wire.EncodeNVTableOptions{Compression: format.CompressionLZ4})
	require.NoError(t, err)

	decoded, err := Decode(frame)
	require.NoError(t, err)

	consumerReg := NewRegistry()
	decoded.SDataHandles = Fixup(decoded, consumerReg)

	v, ok := decoded.Get(hostHandle)
	require.True(t, ok)
	assert.Equal(t, "web-01", string(v))
}

func TestNewPersistentStoreAllocLookup(t *testing.T) {
	store := NewPersistentStore()
	h, err := store.AllocEntry("x", 4)
	require.NoError(t, err)

	_, _, size, ok := store.LookupEntry("x")
	require.True(t, ok)
	assert.Equal(t, 4, size)
	_ = h
}
