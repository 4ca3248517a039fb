package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryStaticNames(t *testing.T) {
	r := NewRegistry()

	for i, name := range staticNames {
		h, ok := r.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, Handle(i+1), h)
		assert.True(t, r.IsStatic(h))
	}
}

func TestAllocateNewName(t *testing.T) {
	r := NewRegistry()

	h := r.Allocate(".SDATA.exampleSDID@32473.iut")
	assert.True(t, r.IsSDATA(h))
	assert.False(t, r.IsStatic(h))

	name, ok := r.Name(h)
	require.True(t, ok)
	assert.Equal(t, ".SDATA.exampleSDID@32473.iut", name)
}

func TestAllocateIsIdempotent(t *testing.T) {
	r := NewRegistry()

	h1 := r.Allocate("APP.NAME")
	h2 := r.Allocate("APP.NAME")
	assert.Equal(t, h1, h2)
}

func TestLookupUnknownName(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Lookup("NOT_REGISTERED")
	assert.False(t, ok)
}

func TestNameInvalidHandle(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Name(Handle(9999))
	assert.False(t, ok)

	_, ok = r.Name(Handle(0))
	assert.False(t, ok)
}

func TestSetFlags(t *testing.T) {
	r := NewRegistry()

	h := r.Allocate("$HOST")
	r.SetFlags(h, FlagMatch)
	assert.True(t, r.Flags(h)&FlagMatch != 0)
}

func TestConcurrentAllocate(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	results := make([]Handle, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Allocate("CONCURRENT.NAME")
		}(i)
	}
	wg.Wait()

	for _, h := range results[1:] {
		assert.Equal(t, results[0], h)
	}
}

func TestHashCollisionsKeepsNamesDistinct(t *testing.T) {
	r := NewRegistry()

	h0 := hashName("COLLIDING.A")

	// Force a genuine hash collision by pre-occupying COLLIDING.A's home
	// slot with an unrelated handle, the way a second distinct name would
	// if xxHash64 ever produced the same value for two different names.
	squatter := Handle(len(r.entries))
	r.byHash[h0] = squatter
	r.entries = append(r.entries, entry{name: "SQUATTER"})

	h := r.Allocate("COLLIDING.A")
	name, ok := r.Name(h)
	require.True(t, ok)
	assert.Equal(t, "COLLIDING.A", name)
	assert.NotEqual(t, Handle(0), h)

	// The squatter's own handle must still name the squatter.
	squatterName, ok := r.Name(squatter)
	require.True(t, ok)
	assert.Equal(t, "SQUATTER", squatterName)
	assert.NotEqual(t, h, squatter)

	assert.Equal(t, 1, r.HashCollisions())
}

func TestForEach(t *testing.T) {
	r := NewRegistry()
	r.Allocate("EXTRA")

	seen := make(map[Handle]string)
	r.ForEach(func(h Handle, name string, _ Flags) {
		seen[h] = name
	})

	assert.Equal(t, r.Len(), len(seen))
	assert.Equal(t, "EXTRA", seen[Handle(NumStatic+1)])
}
