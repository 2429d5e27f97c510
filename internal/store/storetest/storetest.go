// Package storetest runs the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Start is the start date used by the fixtures.
var Start = time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local)

// Goal returns a valid goal starting on Start.
func Goal(wt plan.WeightingTime) plan.Goal {
	return plan.Goal{
		StartWeight:   92.5,
		TargetWeight:  82.5,
		NumberOfDays:  100,
		StartDate:     Start,
		WeightingTime: wt,
	}
}

// Run exercises a backend. open must return an empty store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("EmptyUser", func(t *testing.T) { testEmptyUser(t, open(t)) })
	t.Run("GoalRoundTrip", func(t *testing.T) { testGoalRoundTrip(t, open(t)) })
	t.Run("DayEntries", func(t *testing.T) { testDayEntries(t, open(t)) })
	t.Run("UsersAreIsolated", func(t *testing.T) { testUsersAreIsolated(t, open(t)) })
	t.Run("PromotePending", func(t *testing.T) { testPromotePending(t, open(t)) })
	t.Run("SaveCapture", func(t *testing.T) { testSaveCapture(t, open(t)) })
	t.Run("RollbackPending", func(t *testing.T) { testRollbackPending(t, open(t)) })
	t.Run("RollbackRestoresBaseline", func(t *testing.T) { testRollbackRestoresBaseline(t, open(t)) })
	t.Run("ResetPlan", func(t *testing.T) { testResetPlan(t, open(t)) })
	t.Run("Watch", func(t *testing.T) { testWatch(t, open(t)) })
}

func testEmptyUser(t *testing.T, s store.Store) {
	ctx := context.Background()

	g, err := s.LoadGoal(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, g)

	p, err := s.LoadPendingGoal(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)

	entries, err := s.LoadDayEntries(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.DeleteGoal(ctx, "nobody"))
	require.NoError(t, s.DeletePendingGoal(ctx, "nobody"))
	require.NoError(t, s.ResetPlan(ctx, "nobody"))
}

func testGoalRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := Goal(plan.Yesterday)

	require.NoError(t, s.SaveGoal(ctx, "u1", want))
	got, err := s.LoadGoal(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assertGoal(t, want, *got)
	assert.False(t, got.UpdatedAt.IsZero(), "stores stamp UpdatedAt")

	want.TargetWeight = 85
	require.NoError(t, s.SaveGoal(ctx, "u1", want))
	got, err = s.LoadGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 85.0, got.TargetWeight)

	require.NoError(t, s.DeleteGoal(ctx, "u1"))
	got, err = s.LoadGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testDayEntries(t *testing.T, s store.Store) {
	ctx := context.Background()
	d1 := Start.AddDate(0, 0, 1)
	d2 := Start.AddDate(0, 0, 2)

	e2 := day.AppendFood(nil, d2, 150, d2.Add(12*time.Hour+345*time.Millisecond))
	e2 = day.AppendFood(&e2, d2, -20, d2.Add(13*time.Hour))
	e1 := day.ApplyWeight(nil, d1, 91.8)

	require.NoError(t, s.SaveDayEntry(ctx, "u1", e2))
	require.NoError(t, s.SaveDayEntry(ctx, "u1", e1))

	entries, err := s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Date.Equal(d1), "oldest first")
	require.NotNil(t, entries[0].Weight)
	assert.Equal(t, 91.8, *entries[0].Weight)
	assert.Nil(t, entries[1].Weight)
	require.Len(t, entries[1].FoodEntries, 2)
	assert.True(t, entries[1].FoodEntries[0].Time.Equal(e2.FoodEntries[0].Time), "millisecond precision survives")
	assert.Equal(t, 130.0, day.Consumed(entries[1]))

	// same day overwrites
	e1 = day.ApplyWeight(&e1, d1, 91.5)
	require.NoError(t, s.SaveDayEntry(ctx, "u1", e1))
	entries, err = s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 91.5, *entries[0].Weight)

	require.NoError(t, s.DeleteAllDayEntries(ctx, "u1"))
	entries, err = s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testUsersAreIsolated(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveGoal(ctx, "a", Goal(plan.Yesterday)))
	require.NoError(t, s.SaveDayEntry(ctx, "a", day.ApplyWeight(nil, Start, 92)))

	g, err := s.LoadGoal(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, g)
	entries, err := s.LoadDayEntries(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.ResetPlan(ctx, "b"))
	g, err = s.LoadGoal(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func testPromotePending(t *testing.T, s store.Store) {
	ctx := context.Background()
	old := Goal(plan.Yesterday)
	old.StartWeight = 100
	pending := Goal(plan.Tonight)
	pending.IsWeightSaved = true

	require.NoError(t, s.SaveGoal(ctx, "u1", old))
	require.NoError(t, s.SavePendingGoal(ctx, "u1", pending))

	p, err := s.LoadPendingGoal(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsWeightSaved)

	promoted := pending
	promoted.IsWeightSaved = false
	require.NoError(t, s.PromotePending(ctx, "u1", promoted))

	g, err := s.LoadGoal(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assertGoal(t, promoted, *g)

	p, err = s.LoadPendingGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func testRollbackPending(t *testing.T, s store.Store) {
	ctx := context.Background()
	before := Start.AddDate(0, 0, -1)
	pending := Goal(plan.Tonight)

	require.NoError(t, s.SaveGoal(ctx, "u1", Goal(plan.Yesterday)))
	require.NoError(t, s.SavePendingGoal(ctx, "u1", pending))
	require.NoError(t, s.SaveDayEntry(ctx, "u1", day.ApplyWeight(nil, before, 93)))
	require.NoError(t, s.SaveDayEntry(ctx, "u1", day.ApplyWeight(nil, Start, 92.4)))
	require.NoError(t, s.SaveDayEntry(ctx, "u1", day.ApplyWeight(nil, Start.AddDate(0, 0, 1), 92)))

	require.NoError(t, s.RollbackPending(ctx, "u1", Start, nil))

	p, err := s.LoadPendingGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)

	g, err := s.LoadGoal(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, g, "the active goal survives a rollback")

	entries, err := s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Date.Equal(before))
}

func testSaveCapture(t *testing.T, s store.Store) {
	ctx := context.Background()
	pending := Goal(plan.Tonight)
	require.NoError(t, s.SavePendingGoal(ctx, "u1", pending))

	pending.IsWeightSaved = true
	require.NoError(t, s.SaveCapture(ctx, "u1", pending, day.ApplyWeight(nil, Start, 92.1)))

	p, err := s.LoadPendingGoal(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsWeightSaved)

	entries, err := s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Weight)
	assert.Equal(t, 92.1, *entries[0].Weight)
}

// The start day's entry predates the pending goal, so going back must put
// it back as it was rather than delete it.
func testRollbackRestoresBaseline(t *testing.T, s store.Store) {
	ctx := context.Background()
	weighed := day.ApplyWeight(nil, Start, 93)
	baseline := day.AppendFood(&weighed, Start, 250, Start.Add(8*time.Hour))
	pending := Goal(plan.Tonight)
	pending.Baseline = &baseline

	require.NoError(t, s.SaveDayEntry(ctx, "u1", baseline))
	require.NoError(t, s.SavePendingGoal(ctx, "u1", pending))

	p, err := s.LoadPendingGoal(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Baseline, "the baseline is stored with the pending goal")
	assert.Equal(t, day.Key(Start), p.Baseline.Key())

	captured := day.ApplyWeight(&baseline, Start, 92.2)
	require.NoError(t, s.SaveDayEntry(ctx, "u1", captured))
	require.NoError(t, s.SaveDayEntry(ctx, "u1", day.ApplyWeight(nil, Start.AddDate(0, 0, 1), 92)))

	require.NoError(t, s.RollbackPending(ctx, "u1", Start, p.Baseline))

	entries, err := s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, day.Key(Start), entries[0].Key())
	require.NotNil(t, entries[0].Weight)
	assert.Equal(t, 93.0, *entries[0].Weight)
	require.Len(t, entries[0].FoodEntries, 1)
	assert.Equal(t, 250.0, entries[0].FoodEntries[0].Amount)

	p, err = s.LoadPendingGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func testResetPlan(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveGoal(ctx, "u1", Goal(plan.Yesterday)))
	require.NoError(t, s.SavePendingGoal(ctx, "u1", Goal(plan.Tonight)))
	require.NoError(t, s.SaveDayEntry(ctx, "u1", day.ApplyWeight(nil, Start, 92)))

	require.NoError(t, s.ResetPlan(ctx, "u1"))

	snap, err := store.Load(ctx, s, "u1")
	require.NoError(t, err)
	assert.Nil(t, snap.Goal)
	assert.Nil(t, snap.Pending)
	assert.Empty(t, snap.Entries)
}

func testWatch(t *testing.T, s store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.SaveGoal(ctx, "u1", Goal(plan.Yesterday)))

	ch, err := s.Watch(ctx, "u1")
	require.NoError(t, err)

	var snap store.Snapshot
	for range store.Kinds {
		snap = store.Reduce(snap, next(t, ch))
	}
	require.NotNil(t, snap.Goal)
	assert.Nil(t, snap.Pending)

	require.NoError(t, s.SaveDayEntry(ctx, "u1", day.ApplyWeight(nil, Start, 92.2)))
	ev := next(t, ch)
	assert.Equal(t, store.KindEntries, ev.Kind)
	snap = store.Reduce(snap, ev)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, 92.2, *snap.Entries[0].Weight)

	require.NoError(t, s.DeleteGoal(ctx, "u1"))
	ev = next(t, ch)
	assert.Equal(t, store.KindGoal, ev.Kind)
	snap = store.Reduce(snap, ev)
	assert.Nil(t, snap.Goal)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func next(t *testing.T, ch <-chan store.Event) store.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "watch channel closed early")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return store.Event{}
}

func assertGoal(t *testing.T, want, got plan.Goal) {
	t.Helper()
	assert.Equal(t, want.StartWeight, got.StartWeight)
	assert.Equal(t, want.TargetWeight, got.TargetWeight)
	assert.Equal(t, want.NumberOfDays, got.NumberOfDays)
	assert.True(t, want.StartDate.Equal(got.StartDate), "start date %v != %v", want.StartDate, got.StartDate)
	assert.Equal(t, want.WeightingTime, got.WeightingTime)
	assert.Equal(t, want.IsWeightSaved, got.IsWeightSaved)
}
