package gesture

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackBuffer_EvictsOldest(t *testing.T) {
	b := NewTrackBuffer(5)
	for _, s := range []Sample{At(0, 0), At(1, 1), At(2, 2), Miss(), At(3, 1), At(4, 0)} {
		b.Push(s)
	}

	want := []Sample{At(4, 0), At(3, 1), Miss(), At(2, 2), At(1, 1)}
	if diff := cmp.Diff(want, b.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackBuffer_NeverExceedsCapacity(t *testing.T) {
	const capacity = 8
	b := NewTrackBuffer(capacity)

	for i := 0; i < 3*capacity; i++ {
		b.Push(At(float64(i), 0))
		require.LessOrEqual(t, b.Len(), capacity)
	}

	snap := b.Snapshot()
	require.Len(t, snap, capacity)
	for i, s := range snap {
		assert.Equal(t, float64(3*capacity-1-i), s.X, "sample %d", i)
	}
}

func TestTrackBuffer_CapacityPlusOne(t *testing.T) {
	b := NewTrackBuffer(4)
	for i := 0; i < 5; i++ {
		b.Push(At(float64(i), float64(i)))
	}

	want := []Sample{At(4, 4), At(3, 3), At(2, 2), At(1, 1)}
	assert.Equal(t, want, b.Snapshot())
}

func TestTrackBuffer_SnapshotDoesNotMutate(t *testing.T) {
	b := NewTrackBuffer(3)
	b.Push(At(1, 2))
	b.Push(At(3, 4))

	first := b.Snapshot()
	first[0] = Miss()

	assert.Equal(t, []Sample{At(3, 4), At(1, 2)}, b.Snapshot())
	assert.Equal(t, 2, b.Len())
}

func TestTrackBuffer_ClampsCapacity(t *testing.T) {
	b := NewTrackBuffer(0)
	assert.Equal(t, 1, b.Cap())

	b.Push(At(1, 1))
	b.Push(At(2, 2))
	assert.Equal(t, []Sample{At(2, 2)}, b.Snapshot())
}
