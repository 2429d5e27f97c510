package store

import (
	"errors"
	"testing"
	"time"

	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGoal(start float64) *plan.Goal {
	return &plan.Goal{
		StartWeight:   start,
		TargetWeight:  80,
		NumberOfDays:  100,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		WeightingTime: plan.Yesterday,
	}
}

func TestReduceReplacesOnlyNamedKind(t *testing.T) {
	prev := Snapshot{
		Goal:    sampleGoal(90),
		Entries: []day.Entry{{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Weight: day.Weight(90)}},
	}

	next := Reduce(prev, Event{Kind: KindGoal, Snapshot: Snapshot{Goal: sampleGoal(95)}})

	require.NotNil(t, next.Goal)
	assert.Equal(t, 95.0, next.Goal.StartWeight)
	assert.Len(t, next.Entries, 1, "entries untouched by a goal event")
	assert.Equal(t, 90.0, prev.Goal.StartWeight, "prev is not modified")
}

func TestReduceClearsWithNil(t *testing.T) {
	prev := Snapshot{Goal: sampleGoal(90), Pending: sampleGoal(91)}

	next := Reduce(prev, Event{Kind: KindPending})
	assert.Nil(t, next.Pending)
	assert.NotNil(t, next.Goal)

	next = Reduce(next, Event{Kind: KindGoal})
	assert.Nil(t, next.Goal)
}

func TestReduceEntriesAreCopied(t *testing.T) {
	src := []day.Entry{{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Weight: day.Weight(89)}}

	next := Reduce(Snapshot{}, Event{Kind: KindEntries, Snapshot: Snapshot{Entries: src}})
	*src[0].Weight = 1

	assert.Equal(t, 89.0, *next.Entries[0].Weight)
}

func TestReduceUnknownKindKeepsState(t *testing.T) {
	prev := Snapshot{Goal: sampleGoal(90)}

	next := Reduce(prev, Event{Kind: "other", Snapshot: Snapshot{}})

	assert.Equal(t, prev, next)
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	err := Fail("save day entry", cause)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save day entry", pe.Op)
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "save day entry: disk full")

	assert.NoError(t, Fail("noop", nil))
}

func TestSortEntries(t *testing.T) {
	d := func(n int) time.Time { return time.Date(2025, 1, n, 0, 0, 0, 0, time.UTC) }
	entries := []day.Entry{{Date: d(3)}, {Date: d(1)}, {Date: d(2)}}

	SortEntries(entries)

	assert.Equal(t, d(1), entries[0].Date)
	assert.Equal(t, d(3), entries[2].Date)
}
