package nvtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetDirect(t *testing.T) {
	tbl := New(4, 256)

	created, err := tbl.Set(1, "HOST", []byte("example.com"))
	require.NoError(t, err)
	assert.True(t, created)

	v, ok := tbl.Get(1)
	require.True(t, ok)
	assert.Equal(t, "example.com", string(v))
}

func TestSetOverwriteInPlace(t *testing.T) {
	tbl := New(4, 256)

	_, err := tbl.Set(1, "HOST", []byte("aaaaaaaaaa"))
	require.NoError(t, err)
	usedBefore := tbl.Used()

	created, err := tbl.Set(1, "HOST", []byte("bb"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, usedBefore, tbl.Used())

	v, _ := tbl.Get(1)
	assert.Equal(t, "bb", string(v))
}

func TestSetGrowsWhenValueNoLongerFits(t *testing.T) {
	tbl := New(4, 256)

	_, err := tbl.Set(1, "HOST", []byte("a"))
	require.NoError(t, err)
	usedBefore := tbl.Used()

	created, err := tbl.Set(1, "HOST", []byte("a much longer replacement value"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Greater(t, tbl.Used(), usedBefore)

	v, _ := tbl.Get(1)
	assert.Equal(t, "a much longer replacement value", string(v))
}

func TestDynamicHandleOrdering(t *testing.T) {
	tbl := New(4, 256)

	for _, h := range []uint32{40, 10, 30, 20} {
		_, err := tbl.Set(h, "NAME", []byte("v"))
		require.NoError(t, err)
	}

	idx := tbl.IndexSnapshot()
	require.Len(t, idx, 4)
	for i := 1; i < len(idx); i++ {
		assert.Less(t, idx[i-1].Handle, idx[i].Handle)
	}
}

func TestUnsetThenIsSet(t *testing.T) {
	tbl := New(4, 256)

	_, err := tbl.Set(1, "HOST", []byte("x"))
	require.NoError(t, err)
	assert.True(t, tbl.IsSet(1))

	tbl.Unset(1)
	assert.False(t, tbl.IsSet(1))

	_, ok := tbl.Get(1)
	assert.False(t, ok)
}

func TestIndirectResolvesThroughTarget(t *testing.T) {
	tbl := New(4, 256)

	_, err := tbl.Set(1, "MESSAGE", []byte("user=alice action=login"))
	require.NoError(t, err)

	_, err = tbl.SetIndirect(20, ".SDATA.x.user", 1, 5, 5, 0)
	require.NoError(t, err)

	v, ok := tbl.Get(20)
	require.True(t, ok)
	assert.Equal(t, "alice", string(v))
}

func TestHandleCollisionAfterFixupCreatesFreshEntry(t *testing.T) {
	tbl := New(4, 256)

	_, err := tbl.Set(50, "OLD_NAME", []byte("old"))
	require.NoError(t, err)

	created, err := tbl.Set(50, "NEW_NAME", []byte("new"))
	require.NoError(t, err)
	assert.True(t, created)

	v, ok := tbl.Get(50)
	require.True(t, ok)
	assert.Equal(t, "new", string(v))
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New(4, 256)
	_, err := tbl.Set(1, "HOST", []byte("orig"))
	require.NoError(t, err)

	clone := tbl.Clone(64)
	_, err = clone.Set(1, "HOST", []byte("changed"))
	require.NoError(t, err)

	orig, _ := tbl.Get(1)
	changed, _ := clone.Get(1)
	assert.Equal(t, "orig", string(orig))
	assert.Equal(t, "changed", string(changed))
}

func TestGrowthBeyondInitialCapacity(t *testing.T) {
	tbl := New(4, 64)

	for i := uint32(10); i < 200; i++ {
		_, err := tbl.Set(i, "NAME", make([]byte, 32))
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, tbl.Size(), MaxSize)
	for i := uint32(10); i < 200; i++ {
		assert.True(t, tbl.IsSet(i))
	}
}

func TestForEachVisitsStaticThenDynamic(t *testing.T) {
	tbl := New(2, 256)
	_, err := tbl.Set(1, "HOST", []byte("h"))
	require.NoError(t, err)
	_, err = tbl.Set(100, "DYNAMIC", []byte("d"))
	require.NoError(t, err)

	var order []uint32
	tbl.ForEach(func(handle uint32, _ string, _ []byte) bool {
		order = append(order, handle)
		return true
	})

	require.Len(t, order, 2)
	assert.Equal(t, uint32(1), order[0])
	assert.Equal(t, uint32(100), order[1])
}

func TestStats(t *testing.T) {
	tbl := New(2, 256)
	_, err := tbl.Set(1, "HOST", []byte("h"))
	require.NoError(t, err)
	_, err = tbl.Set(50, "NAME", []byte("v"))
	require.NoError(t, err)
	tbl.Unset(50)

	st := tbl.Stats()
	assert.Equal(t, 1, st.LiveEntries)
	assert.Equal(t, 1, st.UnsetEntries)
	assert.Equal(t, 1, st.NumStatic)
	assert.Equal(t, 1, st.NumDynamic)
}

func TestRefUnref(t *testing.T) {
	tbl := New(2, 256)
	assert.False(t, tbl.Shared())

	tbl.Ref()
	assert.True(t, tbl.Shared())

	tbl.Unref()
	assert.False(t, tbl.Shared())
}
