package logmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolog/corelog/handle"
)

func TestNewMessageRefCount(t *testing.T) {
	m := New(4)
	assert.Equal(t, int32(1), m.RefCount())

	m.Ref()
	assert.Equal(t, int32(2), m.RefCount())

	assert.Equal(t, int32(1), m.Unref())
}

func TestCloneSharesPayload(t *testing.T) {
	m := New(4)
	_, err := m.Set(1, "HOST", []byte("example.com"))
	require.NoError(t, err)

	clone := m.Clone()
	assert.True(t, m.Payload().Shared())

	v, ok := clone.Get(1)
	require.True(t, ok)
	assert.Equal(t, "example.com", string(v))
}

func TestMakeWritableClonesWhenShared(t *testing.T) {
	m := New(4)
	_, err := m.Set(1, "HOST", []byte("orig"))
	require.NoError(t, err)

	clone := m.Clone()
	require.NoError(t, clone.MakeWritable(false))

	_, err = clone.Set(1, "HOST", []byte("changed"))
	require.NoError(t, err)

	origVal, _ := m.Get(1)
	cloneVal, _ := clone.Get(1)
	assert.Equal(t, "orig", string(origVal))
	assert.Equal(t, "changed", string(cloneVal))
}

func TestMakeWritableRefusesAckPathWhenShared(t *testing.T) {
	m := New(4)
	_ = m.Clone()

	err := m.MakeWritable(true)
	assert.Error(t, err)
}

func TestValidatePriBound(t *testing.T) {
	m := New(4)
	m.Pri = MaxPri
	reg := handle.NewRegistry()

	err := m.Validate(reg)
	assert.Error(t, err)
}

func TestValidateSDataHandlesMustBeFlagged(t *testing.T) {
	m := New(4)
	reg := handle.NewRegistry()

	ordinary := reg.Allocate("HOST")
	m.SDataHandles = []handle.Handle{ordinary}
	assert.Error(t, m.Validate(reg))

	sdata := reg.Allocate(".SDATA.x.y")
	m.SDataHandles = []handle.Handle{sdata}
	assert.NoError(t, m.Validate(reg))
}

func TestTagSet(t *testing.T) {
	var ts TagSet
	ts.Set(3)
	ts.Set(130)
	assert.True(t, ts.Test(3))
	assert.True(t, ts.Test(130))
	assert.False(t, ts.Test(4))

	ts.Clear(3)
	assert.False(t, ts.Test(3))

	var seen []int
	ts.ForEach(func(id int) { seen = append(seen, id) })
	assert.Equal(t, []int{130}, seen)
}
