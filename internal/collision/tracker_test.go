package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Empty(t, tracker.Names())
}

func TestTrackDistinctNamesNoCollision(t *testing.T) {
	tracker := NewTracker()

	collided := tracker.Track("HOST", 0x1234567890abcdef)
	require.False(t, collided)
	require.Equal(t, 1, tracker.Count())

	collided = tracker.Track("PROGRAM", 0xfedcba0987654321)
	require.False(t, collided)
	require.Equal(t, 2, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Equal(t, []string{"HOST", "PROGRAM"}, tracker.Names())
}

func TestTrackSameNameSameHashIsNotACollision(t *testing.T) {
	tracker := NewTracker()

	require.False(t, tracker.Track("HOST", 0x1111))
	require.False(t, tracker.Track("HOST", 0x1111))
	require.Equal(t, 1, tracker.Count())
	require.False(t, tracker.HasCollision())
}

func TestTrackDifferentNameSameHashIsACollision(t *testing.T) {
	tracker := NewTracker()

	require.False(t, tracker.Track("HOST", 0x1234567890abcdef))
	require.False(t, tracker.HasCollision())

	collided := tracker.Track("HOST_FROM", 0x1234567890abcdef)
	require.True(t, collided)
	require.True(t, tracker.HasCollision())
	require.Equal(t, 1, tracker.CollisionCount())
	// The first name to claim the hash keeps ownership of it.
	require.Equal(t, []string{"HOST"}, tracker.Names())
}

func TestCollisionCountAccumulates(t *testing.T) {
	tracker := NewTracker()

	tracker.Track("a", 1)
	tracker.Track("b", 1)
	tracker.Track("c", 2)
	tracker.Track("d", 2)

	require.Equal(t, 2, tracker.CollisionCount())
	require.True(t, tracker.HasCollision())
}

func TestReset(t *testing.T) {
	tracker := NewTracker()

	tracker.Track("HOST", 0x1234567890abcdef)
	tracker.Track("HOST_FROM", 0x1234567890abcdef)
	require.Equal(t, 1, tracker.Count())
	require.True(t, tracker.HasCollision())

	tracker.Reset()

	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Empty(t, tracker.Names())

	require.False(t, tracker.Track("PROGRAM", 0x2222))
	require.Equal(t, 1, tracker.Count())
}

func TestResetPreservesCapacity(t *testing.T) {
	tracker := NewTracker()

	for i := 0; i < 100; i++ {
		tracker.Track("metric", uint64(i))
	}
	initialCap := cap(tracker.names)

	tracker.Reset()

	require.Equal(t, 0, len(tracker.names))
	require.GreaterOrEqual(t, cap(tracker.names), initialCap)
}
