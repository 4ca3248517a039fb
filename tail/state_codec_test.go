package tail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolog/corelog/errs"
)

func TestDecodeStateRejectsWrongVersion(t *testing.T) {
	st := State{Version: StateVersion + 1}
	buf := EncodeState(st)

	_, err := DecodeState(buf)
	assert.ErrorIs(t, err, errs.ErrState)
}

func TestDecodeStateRejectsOversizedLeftover(t *testing.T) {
	st := State{Version: StateVersion, RawBufferLeftover: make([]byte, maxLeftover+1)}
	buf := EncodeState(st)

	_, err := DecodeState(buf)
	assert.ErrorIs(t, err, errs.ErrFormat)
}

func TestDecodeStateRejectsTruncatedHeader(t *testing.T) {
	_, err := DecodeState([]byte{StateVersion})
	assert.ErrorIs(t, err, errs.ErrFormat)
}

func TestDecodeStateRejectsTruncatedBody(t *testing.T) {
	buf := EncodeState(State{Version: StateVersion})
	_, err := DecodeState(buf[:4])
	assert.Error(t, err)
}

func TestEncodeDecodeStateBigEndian(t *testing.T) {
	st := State{
		Version:           StateVersion,
		BigEndian:         true,
		BufferPos:         7,
		FileInode:         99,
		RawBufferLeftover: []byte{1, 2, 3},
	}

	buf := EncodeState(st)
	decoded, err := DecodeState(buf)
	require.NoError(t, err)
	assert.Equal(t, st, decoded)
}
