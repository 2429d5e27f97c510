package tracker

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/dayzero"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/quickadd"
	"github.com/emilstricker/regnemetoden/internal/store"
	"github.com/emilstricker/regnemetoden/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dayOne = time.Date(2025, 5, 1, 0, 0, 0, 0, time.Local)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(days int) { c.now = c.now.AddDate(0, 0, days) }

func newTracker(t *testing.T) (*Tracker, *memstore.Store, *testClock) {
	t.Helper()
	s := memstore.New()
	t.Cleanup(func() { _ = s.Close() })
	c := &testClock{now: dayOne.Add(8 * time.Hour)}
	return New(s, c, "u1"), s, c
}

func setup(t *testing.T, tr *Tracker, wt plan.WeightingTime) plan.Goal {
	t.Helper()
	g, err := tr.Setup(context.Background(), SetupInput{
		StartWeight:   90,
		TargetWeight:  80,
		NumberOfDays:  50,
		WeightingTime: wt,
	})
	require.NoError(t, err)
	return g
}

func TestSetupYesterdayIsActiveImmediately(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTracker(t)

	g := setup(t, tr, plan.Yesterday)
	assert.Equal(t, dayOne, g.StartDate)

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, dayzero.Active, v.State)
	assert.False(t, v.IsDayZero)
	assert.Equal(t, 90.0, v.TargetWeight)
	assert.Equal(t, 200, v.DailyLossGrams)
}

func TestSetupValidation(t *testing.T) {
	tr, s, _ := newTracker(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SetupInput
	}{
		{"target above start", SetupInput{StartWeight: 80, TargetWeight: 90, NumberOfDays: 10, WeightingTime: plan.Yesterday}},
		{"zero days", SetupInput{StartWeight: 90, TargetWeight: 80, NumberOfDays: 0, WeightingTime: plan.Yesterday}},
		{"start out of range", SetupInput{StartWeight: 400, TargetWeight: 80, NumberOfDays: 10, WeightingTime: plan.Yesterday}},
		{"no weighting time", SetupInput{StartWeight: 90, TargetWeight: 80, NumberOfDays: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Setup(ctx, tt.in)
			assert.True(t, plan.IsValidation(err), "%v", err)
		})
	}

	snap, err := store.Load(ctx, s, "u1")
	require.NoError(t, err)
	assert.Nil(t, snap.Goal, "nothing persisted on validation errors")
	assert.Nil(t, snap.Pending)
}

func TestActionsWithoutPlan(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTracker(t)

	_, err := tr.LogWeight(ctx, 90)
	assert.ErrorIs(t, err, ErrNoGoal)
	_, err = tr.AddFood(ctx, 10)
	assert.ErrorIs(t, err, ErrNoGoal)
	_, err = tr.CaptureDayZeroWeight(ctx, 90)
	assert.ErrorIs(t, err, ErrNoPendingGoal)
	assert.ErrorIs(t, tr.GoBack(ctx), ErrNoPendingGoal)

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, dayzero.NoGoal, v.State)
}

func TestAllowanceExample(t *testing.T) {
	ctx := context.Background()
	tr, _, c := newTracker(t)
	setup(t, tr, plan.Yesterday)
	c.advance(10)

	_, err := tr.LogWeight(ctx, 88.5)
	require.NoError(t, err)

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, v.DayNumber)
	assert.InDelta(t, 88.0, v.TargetWeight, 1e-9)
	assert.Equal(t, -500.0, v.Allowance)
	assert.Equal(t, 0.0, v.Consumed)
	assert.Equal(t, -500.0, v.Remaining)
	assert.Equal(t, 0.0, v.Progress)
}

func TestWeightAndFoodMerge(t *testing.T) {
	ctx := context.Background()
	tr, _, c := newTracker(t)
	setup(t, tr, plan.Yesterday)
	c.advance(1)

	_, err := tr.AddFood(ctx, 100)
	require.NoError(t, err)
	_, err = tr.LogWeight(ctx, 89.5)
	require.NoError(t, err)
	_, err = tr.AddFood(ctx, 50)
	require.NoError(t, err)
	e, err := tr.LogWeight(ctx, 89.6)
	require.NoError(t, err)

	assert.Equal(t, 89.6, *e.Weight)
	assert.Len(t, e.FoodEntries, 2)

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.True(t, v.Weighed())
	assert.Equal(t, 150.0, v.Consumed)
	assert.Equal(t, 200.0, v.Allowance)
	assert.Equal(t, 50.0, v.Remaining)
	assert.Equal(t, 0.75, v.Progress)
}

func TestSameInstantFoodGetsUniqueTimes(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTracker(t)
	setup(t, tr, plan.Yesterday)

	for i := 0; i < 3; i++ {
		_, err := tr.AddFood(ctx, 10)
		require.NoError(t, err)
	}
	e, err := tr.RemoveFood(ctx, 0)
	require.NoError(t, err)

	require.Len(t, e.FoodEntries, 2)
	assert.True(t, e.FoodEntries[1].Time.After(e.FoodEntries[0].Time))
}

func TestRemoveFoodByDisplayIndex(t *testing.T) {
	ctx := context.Background()
	tr, _, c := newTracker(t)
	setup(t, tr, plan.Yesterday)

	for _, amount := range []float64{10, 20, 30} {
		_, err := tr.AddFood(ctx, amount)
		require.NoError(t, err)
		c.now = c.now.Add(time.Minute)
	}

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	require.Len(t, v.Food, 3)
	assert.Equal(t, 30.0, v.Food[0].Amount, "newest first")

	e, err := tr.RemoveFood(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, day.Consumed(e))

	_, err = tr.RemoveFood(ctx, 5)
	assert.ErrorIs(t, err, day.ErrIndexOutOfRange)
}

func TestDayZeroFlow(t *testing.T) {
	ctx := context.Background()
	tr, s, c := newTracker(t)
	old := setup(t, tr, plan.Yesterday)
	c.advance(3)

	pending := setup(t, tr, plan.Tonight)
	assert.Equal(t, dayOne.AddDate(0, 0, 3), pending.StartDate)

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.True(t, v.IsDayZero)
	assert.Equal(t, dayzero.PendingTonight, v.State)

	active, err := s.LoadGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, old.StartDate, active.StartDate, "pending plan never clobbers the active one")

	_, err = tr.AddFood(ctx, 10)
	assert.ErrorIs(t, err, ErrNotActive)

	c.now = c.now.Add(12 * time.Hour)
	capture, err := tr.CaptureDayZeroWeight(ctx, 91.2)
	require.NoError(t, err)
	assert.True(t, capture.Pending.IsWeightSaved)
	require.NotNil(t, capture.Suggestion)

	v, err = tr.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, dayzero.WeightCaptured, v.State, "no promotion on day zero")
	assert.True(t, v.IsDayZero)

	c.advance(1)
	v, err = tr.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, dayzero.Active, v.State)
	assert.False(t, v.IsDayZero)
	assert.Equal(t, 1, v.DayNumber)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Pending)
	require.NotNil(t, snap.Goal)
	assert.Equal(t, pending.StartDate, snap.Goal.StartDate)
	assert.Equal(t, plan.Tonight, snap.Goal.WeightingTime)
}

func TestDayZeroRejectsBadWeight(t *testing.T) {
	ctx := context.Background()
	tr, s, _ := newTracker(t)
	setup(t, tr, plan.Tonight)

	_, err := tr.CaptureDayZeroWeight(ctx, 301)
	assert.True(t, plan.IsValidation(err))

	p, err := s.LoadPendingGoal(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, p.IsWeightSaved)
}

func TestUpdatePendingStartWeight(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTracker(t)
	setup(t, tr, plan.Tonight)

	g, err := tr.UpdatePendingStartWeight(ctx, 91.2)
	require.NoError(t, err)
	assert.Equal(t, 91.2, g.StartWeight)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 91.2, snap.Pending.StartWeight)
}

func TestUnweighedPendingPlanIsRebased(t *testing.T) {
	ctx := context.Background()
	tr, _, c := newTracker(t)
	setup(t, tr, plan.Tonight)
	c.advance(2)

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.True(t, v.IsDayZero)
	assert.Equal(t, dayOne.AddDate(0, 0, 2), v.Pending.StartDate)
}

func TestGoBack(t *testing.T) {
	ctx := context.Background()
	tr, s, c := newTracker(t)
	setup(t, tr, plan.Yesterday)
	_, err := tr.LogWeight(ctx, 90)
	require.NoError(t, err)
	c.advance(1)

	setup(t, tr, plan.Tonight)
	_, err = tr.CaptureDayZeroWeight(ctx, 89.9)
	require.NoError(t, err)

	require.NoError(t, tr.GoBack(ctx))

	snap, err := store.Load(ctx, s, "u1")
	require.NoError(t, err)
	assert.Nil(t, snap.Pending)
	assert.NotNil(t, snap.Goal)
	require.Len(t, snap.Entries, 1)
	assert.True(t, snap.Entries[0].Date.Equal(dayOne))
}

func TestGoBackKeepsEntryLoggedBeforeSetup(t *testing.T) {
	ctx := context.Background()
	tr, s, c := newTracker(t)
	setup(t, tr, plan.Yesterday)
	c.advance(3)
	_, err := tr.LogWeight(ctx, 89)
	require.NoError(t, err)
	_, err = tr.AddFood(ctx, 250)
	require.NoError(t, err)

	setup(t, tr, plan.Tonight)
	require.NoError(t, tr.GoBack(ctx))

	snap, err := store.Load(ctx, s, "u1")
	require.NoError(t, err)
	assert.Nil(t, snap.Pending)
	require.NotNil(t, snap.Goal)
	e := day.Find(snap.Entries, c.now)
	require.NotNil(t, e, "today's entry survives going back")
	require.True(t, e.HasWeight())
	assert.Equal(t, 89.0, *e.Weight)
	assert.Equal(t, 250.0, day.Consumed(*e))

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, dayzero.Active, v.State)
	assert.NotZero(t, v.Allowance)
}

func TestGoBackAfterCaptureRestoresMorningEntry(t *testing.T) {
	ctx := context.Background()
	tr, s, c := newTracker(t)
	setup(t, tr, plan.Yesterday)
	c.advance(1)
	_, err := tr.AddFood(ctx, 300)
	require.NoError(t, err)

	setup(t, tr, plan.Tonight)
	_, err = tr.CaptureDayZeroWeight(ctx, 89.4)
	require.NoError(t, err)
	// Setting up again the same day keeps the entry from before the first setup.
	setup(t, tr, plan.Tonight)
	require.NoError(t, tr.GoBack(ctx))

	entries, err := s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	e := day.Find(entries, c.now)
	require.NotNil(t, e)
	assert.False(t, e.HasWeight(), "day-zero weight is rolled back")
	assert.Equal(t, 300.0, day.Consumed(*e))
}

func TestRebasedPlanTakesNewBaseline(t *testing.T) {
	ctx := context.Background()
	tr, s, c := newTracker(t)
	setup(t, tr, plan.Yesterday)
	_, err := tr.LogWeight(ctx, 90)
	require.NoError(t, err)
	c.advance(1)
	setup(t, tr, plan.Tonight)

	c.advance(1)
	require.NoError(t, s.SaveDayEntry(ctx, "u1", day.AppendFood(nil, c.now, 120, c.now)))
	_, err = tr.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.GoBack(ctx))

	entries, err := s.LoadDayEntries(ctx, "u1")
	require.NoError(t, err)
	e := day.Find(entries, c.now)
	require.NotNil(t, e)
	assert.Equal(t, 120.0, day.Consumed(*e))
}

// failingStore fails the methods named in fail and passes the rest through.
type failingStore struct {
	*memstore.Store
	fail map[string]bool
}

var errOffline = errors.New("offline")

func (f *failingStore) err(op string) error {
	if f.fail[op] {
		return store.Fail(op, errOffline)
	}
	return nil
}

func (f *failingStore) DeletePendingGoal(ctx context.Context, userID string) error {
	if err := f.err("delete pending goal"); err != nil {
		return err
	}
	return f.Store.DeletePendingGoal(ctx, userID)
}

func (f *failingStore) PromotePending(ctx context.Context, userID string, g plan.Goal) error {
	if err := f.err("promote pending goal"); err != nil {
		return err
	}
	return f.Store.PromotePending(ctx, userID, g)
}

func (f *failingStore) SaveCapture(ctx context.Context, userID string, pending plan.Goal, e day.Entry) error {
	if err := f.err("save day-zero capture"); err != nil {
		return err
	}
	return f.Store.SaveCapture(ctx, userID, pending, e)
}

func newFailingTracker(t *testing.T, fail ...string) (*Tracker, *failingStore) {
	t.Helper()
	s := &failingStore{Store: memstore.New(), fail: map[string]bool{}}
	t.Cleanup(func() { _ = s.Close() })
	for _, op := range fail {
		s.fail[op] = true
	}
	return New(s, &testClock{now: dayOne.Add(8 * time.Hour)}, "u1"), s
}

func TestSetupYesterdayReplacesPendingInOneWrite(t *testing.T) {
	ctx := context.Background()
	tr, s := newFailingTracker(t, "delete pending goal")
	setup(t, tr, plan.Tonight)

	g := setup(t, tr, plan.Yesterday)

	snap, err := store.Load(ctx, s, "u1")
	require.NoError(t, err)
	assert.Nil(t, snap.Pending)
	require.NotNil(t, snap.Goal)
	assert.Equal(t, g.StartDate, snap.Goal.StartDate)
	assert.Equal(t, plan.Yesterday, snap.Goal.WeightingTime)
}

func TestSetupYesterdayFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	tr, s := newFailingTracker(t)
	pending := setup(t, tr, plan.Tonight)

	s.fail["promote pending goal"] = true
	_, err := tr.Setup(ctx, SetupInput{StartWeight: 95, TargetWeight: 85, NumberOfDays: 30, WeightingTime: plan.Yesterday})
	var pe *store.PersistenceError
	require.ErrorAs(t, err, &pe)

	snap, err := store.Load(ctx, s, "u1")
	require.NoError(t, err)
	assert.Nil(t, snap.Goal)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, pending.StartWeight, snap.Pending.StartWeight)
}

func TestCaptureFailureSavesNothing(t *testing.T) {
	ctx := context.Background()
	tr, s := newFailingTracker(t, "save day-zero capture")
	setup(t, tr, plan.Tonight)

	_, err := tr.CaptureDayZeroWeight(ctx, 89.6)
	var pe *store.PersistenceError
	require.ErrorAs(t, err, &pe)

	snap, err := store.Load(ctx, s, "u1")
	require.NoError(t, err)
	require.NotNil(t, snap.Pending)
	assert.False(t, snap.Pending.IsWeightSaved)
	if e := day.Find(snap.Entries, dayOne); e != nil {
		assert.False(t, e.HasWeight())
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTracker(t)
	setup(t, tr, plan.Yesterday)
	_, err := tr.LogWeight(ctx, 90)
	require.NoError(t, err)

	require.NoError(t, tr.Reset(ctx))

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Goal)
	assert.Nil(t, snap.Pending)
	assert.Empty(t, snap.Entries)
}

func TestPersistenceErrorIsLoggedAndReturned(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	s := memstore.New()
	c := &testClock{now: dayOne}
	tr := New(s, c, "u1", WithLogger(log.New(&buf, "", 0)))
	setup(t, tr, plan.Yesterday)

	s.Fail = errors.New("offline")
	_, err := tr.AddFood(ctx, 50)

	var pe *store.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, buf.String(), "save food failed")

	s.Fail = nil
	v, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Food, "failed write left nothing behind")
}

func TestQuickAddCommitsOnce(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTracker(t)
	setup(t, tr, plan.Yesterday)

	var fire func()
	b := tr.NewQuickAdd(ctx, quickadd.Options{
		AfterFunc: func(_ time.Duration, f func()) quickadd.Timer {
			fire = f
			return time.NewTimer(time.Hour)
		},
	})
	defer b.Close()

	require.NoError(t, b.Push(1))
	require.NoError(t, b.Push(5))
	require.NoError(t, b.Push(10))
	fire()

	v, err := tr.Today(ctx)
	require.NoError(t, err)
	require.Len(t, v.Food, 1)
	assert.Equal(t, 16.0, v.Food[0].Amount)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	tr, _, c := newTracker(t)
	setup(t, tr, plan.Yesterday)
	_, err := tr.LogWeight(ctx, 89.9)
	require.NoError(t, err)
	c.advance(4)

	r, err := tr.Report(ctx)
	require.NoError(t, err)
	assert.Len(t, r.Rows, 5)
	assert.Equal(t, 1, r.Totals.Weighed)
}

func TestWatchStreamsViews(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr, _, _ := newTracker(t)
	setup(t, tr, plan.Yesterday)

	views, err := tr.Watch(ctx)
	require.NoError(t, err)

	first := nextView(t, views)
	assert.Equal(t, dayzero.Active, first.State)

	_, err = tr.LogWeight(ctx, 89.8)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		select {
		case v := <-views:
			return v.Weighed() && v.Allowance == 200
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func nextView(t *testing.T, ch <-chan View) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("no view")
	}
	return View{}
}

var _ clock.Clock = (*testClock)(nil)
