package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocLookupMapRoundTrip(t *testing.T) {
	s := NewFileStore()

	h, err := s.AllocEntry("tail/state:/var/log/app.log", 16)
	require.NoError(t, err)

	buf, err := s.MapEntry(h)
	require.NoError(t, err)
	require.Len(t, buf, 16)
	buf[0] = 4
	s.UnmapEntry(h)

	gotH, version, size, ok := s.LookupEntry("tail/state:/var/log/app.log")
	require.True(t, ok)
	assert.Equal(t, h, gotH)
	assert.Equal(t, uint8(4), version)
	assert.Equal(t, 16, size)
}

func TestLookupUnknownEntry(t *testing.T) {
	s := NewFileStore()
	_, _, _, ok := s.LookupEntry("nope")
	assert.False(t, ok)
}

func TestAllocReplacesExistingEntry(t *testing.T) {
	s := NewFileStore()

	h1, err := s.AllocEntry("x", 8)
	require.NoError(t, err)

	h2, err := s.AllocEntry("x", 32)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)

	_, err = s.MapEntry(h1)
	assert.Error(t, err)

	_, _, size, ok := s.LookupEntry("x")
	require.True(t, ok)
	assert.Equal(t, 32, size)
}

func TestMigrateEntryAppliesDecoderAndFreesOld(t *testing.T) {
	s := NewFileStore()
	h, err := s.AllocEntry("tail/state", 2)
	require.NoError(t, err)
	buf, err := s.MapEntry(h)
	require.NoError(t, err)
	buf[0] = 2 // legacy version
	buf[1] = 0xAB
	s.UnmapEntry(h)

	decoders := map[uint8]VersionDecoder{
		2: func(body []byte) ([]byte, error) {
			return []byte{4, body[1], 0x00}, nil
		},
	}

	newH, err := MigrateEntry(s, "tail/state", decoders)
	require.NoError(t, err)

	got, err := s.MapEntry(newH)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 0xAB, 0x00}, got)

	_, _, _, ok := s.LookupEntry("tail/state")
	require.True(t, ok)
}

func TestMigrateEntryUnknownVersionFails(t *testing.T) {
	s := NewFileStore()
	h, err := s.AllocEntry("e", 1)
	require.NoError(t, err)
	buf, _ := s.MapEntry(h)
	buf[0] = 99
	s.UnmapEntry(h)

	_, err = MigrateEntry(s, "e", map[uint8]VersionDecoder{})
	assert.Error(t, err)
}

func TestFreeRemovesEntry(t *testing.T) {
	s := NewFileStore()
	_, err := s.AllocEntry("f", 4)
	require.NoError(t, err)

	s.Free("f")

	_, _, _, ok := s.LookupEntry("f")
	assert.False(t, ok)
}
