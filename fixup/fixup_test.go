package fixup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/nvtable"
)

func TestRunKeepsHandleWhenNamesAgree(t *testing.T) {
	reg := handle.NewRegistry()
	consumerHandle := reg.Allocate("APP.NAME")

	tbl := nvtable.New(handle.NumStatic, 256)
	_, err := tbl.Set(uint32(consumerHandle), "APP.NAME", []byte("v"))
	require.NoError(t, err)

	result := Run(tbl, reg, nil)
	assert.Nil(t, result)
	assert.True(t, tbl.IsSet(uint32(consumerHandle)))
}

func TestRunRemapsWhenNamesDisagree(t *testing.T) {
	reg := handle.NewRegistry()
	// Producer's handle 200 named "PRODUCER.NAME"; consumer registry has
	// never seen this name, so a new handle will be allocated for it.
	producerHandle := uint32(200)

	tbl := nvtable.New(handle.NumStatic, 256)
	_, err := tbl.Set(producerHandle, "PRODUCER.NAME", []byte("v"))
	require.NoError(t, err)

	Run(tbl, reg, nil)

	consumerHandle, ok := reg.Lookup("PRODUCER.NAME")
	require.True(t, ok)

	v, ok := tbl.Get(uint32(consumerHandle))
	require.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestRunRemapsSDataHandleList(t *testing.T) {
	reg := handle.NewRegistry()
	producerHandle := uint32(300)

	tbl := nvtable.New(handle.NumStatic, 256)
	_, err := tbl.Set(producerHandle, ".SDATA.x.y", []byte("v"))
	require.NoError(t, err)

	result := Run(tbl, reg, []handle.Handle{handle.Handle(producerHandle)})

	consumerHandle, ok := reg.Lookup(".SDATA.x.y")
	require.True(t, ok)
	require.Len(t, result, 1)
	assert.Equal(t, consumerHandle, result[0])
}

func TestRunRepointsIndirectEntryAfterTargetRemap(t *testing.T) {
	reg := handle.NewRegistry()
	baseProducerHandle := uint32(400)
	refProducerHandle := uint32(401)

	tbl := nvtable.New(handle.NumStatic, 256)
	_, err := tbl.Set(baseProducerHandle, "APP.CUSTOM", []byte("hello world"))
	require.NoError(t, err)
	_, err = tbl.SetIndirect(refProducerHandle, ".SDATA.app.word", baseProducerHandle, 0, 5, 0)
	require.NoError(t, err)

	Run(tbl, reg, nil)

	baseConsumerHandle, ok := reg.Lookup("APP.CUSTOM")
	require.True(t, ok)
	refConsumerHandle, ok := reg.Lookup(".SDATA.app.word")
	require.True(t, ok)
	require.NotEqual(t, baseProducerHandle, uint32(baseConsumerHandle))
	require.NotEqual(t, refProducerHandle, uint32(refConsumerHandle))

	v, ok := tbl.Get(uint32(refConsumerHandle))
	require.True(t, ok)
	assert.Equal(t, "hello", string(v))

	_, ok = tbl.Get(baseProducerHandle)
	assert.False(t, ok)
}

func TestRunPreservesIndexSortOrder(t *testing.T) {
	reg := handle.NewRegistry()

	tbl := nvtable.New(handle.NumStatic, 256)
	for _, e := range []struct {
		h    uint32
		name string
	}{{500, "NAME.C"}, {100, "NAME.A"}, {300, "NAME.B"}} {
		_, err := tbl.Set(e.h, e.name, []byte("v"))
		require.NoError(t, err)
	}

	Run(tbl, reg, nil)

	idx := tbl.IndexSnapshot()
	for i := 1; i < len(idx); i++ {
		assert.Less(t, idx[i-1].Handle, idx[i].Handle)
	}
}
