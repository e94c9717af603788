package fleet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerApply(t *testing.T) {
	tracker := NewTracker()
	assert.True(t, tracker.UpdatedAt().IsZero())
	assert.Empty(t, tracker.Vehicles())

	first := time.Date(2025, time.March, 11, 7, 0, 0, 0, time.UTC)
	diff := tracker.Apply([]Record{record("B", 2, 2), record("A", 1, 1)}, first)
	assert.Equal(t, []string{"A", "B"}, ids(diff.Created))

	second := first.Add(time.Second)
	diff = tracker.Apply([]Record{record("C", 3, 3), record("B", 2.5, 2)}, second)

	assert.Equal(t, []string{"B"}, ids(diff.Updated))
	assert.Equal(t, []string{"C"}, ids(diff.Created))
	assert.Equal(t, []string{"A"}, diff.Removed)

	assert.Equal(t, []string{"B", "C"}, ids(tracker.Vehicles()), "ordered by id")
	assert.Equal(t, 2, tracker.Len())
	assert.Equal(t, second, tracker.UpdatedAt())

	b, ok := tracker.Vehicle("B")
	require.True(t, ok)
	assert.Equal(t, 2.5, b.Position.Lat)

	_, ok = tracker.Vehicle("A")
	assert.False(t, ok)
}
