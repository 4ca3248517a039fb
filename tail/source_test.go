package tail

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReturnsRawBytesWithoutDecoder(t *testing.T) {
	s := New(bytes.NewReader([]byte("hello\nworld\n")))

	chunk, status, err := s.Fetch()
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, "hello\nworld\n", string(chunk))
}

func TestFetchReportsCleanEOF(t *testing.T) {
	s := New(bytes.NewReader(nil))

	_, status, err := s.Fetch()
	require.NoError(t, err)
	assert.Equal(t, StatusEOF, status)
}

type errReader struct{ err error }

func (r errReader) Read(p []byte) (int, error) { return 0, r.err }

func TestFetchWrapsIOError(t *testing.T) {
	s := New(errReader{err: io.ErrClosedPipe})

	_, _, err := s.Fetch()
	assert.Error(t, err)
}

func TestAckUpdatesState(t *testing.T) {
	s := New(bytes.NewReader([]byte("abc")))
	_, _, err := s.Fetch()
	require.NoError(t, err)

	s.Ack(2)
	st := s.State()
	assert.Equal(t, uint32(2), st.PendingBufferPos)
}

func TestStateEncodeDecodeRoundTrip(t *testing.T) {
	st := State{
		Version:             StateVersion,
		BufferPos:           10,
		PendingBufferPos:    8,
		PendingBufferEnd:    12,
		BufferSize:          4096,
		RawStreamPos:        1000,
		RawBufferSize:       512,
		PendingRawStreamPos: 900,
		FileSize:            2000,
		FileInode:           12345,
		RawBufferLeftover:   []byte{0xAA, 0xBB},
	}

	buf := EncodeState(st)
	decoded, err := DecodeState(buf)
	require.NoError(t, err)
	assert.Equal(t, st, decoded)
}

func TestAttachRestartsWhenInodeMismatches(t *testing.T) {
	st := State{Version: StateVersion, FileInode: 1, FileSize: 100}

	_, restored, err := Attach(bytes.NewReader(nil), nil, st, 2, 100)
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestAttachRestoresWhenMetadataMatches(t *testing.T) {
	st := State{Version: StateVersion, FileInode: 1, FileSize: 100, RawStreamPos: 50}

	_, restored, err := Attach(bytes.NewReader(nil), nil, st, 1, 100)
	require.NoError(t, err)
	assert.True(t, restored)
}
