// Package tracker ties the plan, the day log and the day-zero flow to a
// store. Every user action goes through a Tracker, which serializes the
// session's writes and never changes state it has not persisted.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/dayzero"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/quickadd"
	"github.com/emilstricker/regnemetoden/internal/report"
	"github.com/emilstricker/regnemetoden/internal/store"
)

var (
	// ErrNoGoal is returned when an action needs a plan and there is none.
	ErrNoGoal = errors.New("no plan set up, run setup first")
	// ErrNotActive is returned when the plan is still waiting for its
	// day-zero weigh-in.
	ErrNotActive = errors.New("plan is not active yet")
	// ErrNoPendingGoal is returned by day-zero actions without a pending plan.
	ErrNoPendingGoal = errors.New("no pending plan")
)

// Tracker runs the actions of one user's session.
type Tracker struct {
	store   store.Store
	clock   clock.Clock
	logger  *log.Logger
	userID  string
	stamper day.Stamper
	mu      sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sends persistence failures and state transitions to l.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New returns a tracker for userID.
func New(s store.Store, c clock.Clock, userID string, opts ...Option) *Tracker {
	t := &Tracker{
		store:  s,
		clock:  c,
		userID: userID,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// UserID returns the user this tracker acts for.
func (t *Tracker) UserID() string {
	return t.userID
}

// Clock returns the tracker's clock.
func (t *Tracker) Clock() clock.Clock {
	return t.clock
}

func (t *Tracker) today() time.Time {
	return clock.Today(t.clock)
}

// fail logs persistence errors. Every error passes through unchanged.
func (t *Tracker) fail(action string, err error) error {
	var pe *store.PersistenceError
	if errors.As(err, &pe) {
		t.logger.Printf("user %s: %s failed: %v", t.userID, action, err)
	}
	return err
}

// Snapshot loads the user's stored state as is.
func (t *Tracker) Snapshot(ctx context.Context) (store.Snapshot, error) {
	snap, err := store.Load(ctx, t.store, t.userID)
	return snap, t.fail("load", err)
}

// Today settles the day-zero flow and returns today's view.
func (t *Tracker) Today(ctx context.Context) (View, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.advance(ctx)
	if err != nil {
		return View{}, err
	}
	return BuildView(snap, t.today()), nil
}

// Advance promotes a pending plan whose day zero has passed with a saved
// weight, and re-anchors one whose day zero passed without a weigh-in.
func (t *Tracker) Advance(ctx context.Context) (dayzero.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.advance(ctx)
	if err != nil {
		return dayzero.NoGoal, err
	}
	return dayzero.Resolve(snap.Goal, snap.Pending, t.today()), nil
}

func (t *Tracker) advance(ctx context.Context) (store.Snapshot, error) {
	snap, err := store.Load(ctx, t.store, t.userID)
	if err != nil {
		return store.Snapshot{}, t.fail("load", err)
	}
	today := t.today()

	switch {
	case dayzero.ShouldPromote(snap.Pending, today):
		g := dayzero.Promote(*snap.Pending)
		if err := t.store.PromotePending(ctx, t.userID, g); err != nil {
			return store.Snapshot{}, t.fail("promote pending plan", err)
		}
		t.logger.Printf("user %s: plan from %s is now active", t.userID, day.Key(g.StartDate))
		snap.Goal, snap.Pending = &g, nil

	case dayzero.NeedsRebase(snap.Pending, today):
		g := dayzero.Rebase(*snap.Pending, day.Find(snap.Entries, today), today)
		if err := t.store.SavePendingGoal(ctx, t.userID, g); err != nil {
			return store.Snapshot{}, t.fail("rebase pending plan", err)
		}
		t.logger.Printf("user %s: pending plan moved to %s", t.userID, day.Key(today))
		snap.Pending = &g
	}
	return snap, nil
}

// SetupInput is what the user enters to create a plan.
type SetupInput struct {
	StartWeight   float64
	TargetWeight  float64
	NumberOfDays  int
	WeightingTime plan.WeightingTime
}

// Setup creates a plan starting today. A "yesterday" plan replaces the
// active one and discards any pending plan in one write; a "tonight" plan
// goes to the pending slot with a copy of today's entry and leaves the
// active one alone until it is promoted.
func (t *Tracker) Setup(ctx context.Context, in SetupInput) (plan.Goal, error) {
	g := plan.Goal{
		StartWeight:   in.StartWeight,
		TargetWeight:  in.TargetWeight,
		NumberOfDays:  in.NumberOfDays,
		StartDate:     t.today(),
		WeightingTime: in.WeightingTime,
	}
	if err := plan.Validate(g); err != nil {
		return plan.Goal{}, err
	}
	if err := plan.ValidateWeight(g.StartWeight); err != nil {
		return plan.Goal{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if g.WeightingTime == plan.Tonight {
		snap, err := store.Load(ctx, t.store, t.userID)
		if err != nil {
			return plan.Goal{}, t.fail("load", err)
		}
		if snap.Pending != nil && day.Key(snap.Pending.StartDate) == day.Key(g.StartDate) {
			g.Baseline = snap.Pending.Baseline
		} else {
			g.Baseline = dayzero.Baseline(day.Find(snap.Entries, g.StartDate))
		}
		if err := t.store.SavePendingGoal(ctx, t.userID, g); err != nil {
			return plan.Goal{}, t.fail("save pending plan", err)
		}
		return g, nil
	}

	if err := t.store.PromotePending(ctx, t.userID, g); err != nil {
		return plan.Goal{}, t.fail("save plan", err)
	}
	return g, nil
}

// requireActive settles the day-zero flow and fails unless a plan is running.
func (t *Tracker) requireActive(ctx context.Context) (store.Snapshot, error) {
	snap, err := t.advance(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}
	switch dayzero.Resolve(snap.Goal, snap.Pending, t.today()) {
	case dayzero.NoGoal:
		return store.Snapshot{}, ErrNoGoal
	case dayzero.PendingTonight, dayzero.WeightCaptured:
		return store.Snapshot{}, ErrNotActive
	}
	return snap, nil
}

// LogWeight records today's morning weight.
func (t *Tracker) LogWeight(ctx context.Context, weight float64) (day.Entry, error) {
	if err := plan.ValidateWeight(weight); err != nil {
		return day.Entry{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.requireActive(ctx)
	if err != nil {
		return day.Entry{}, err
	}
	today := t.today()
	e := day.ApplyWeight(day.Find(snap.Entries, today), today, weight)
	return t.save(ctx, "save weight", e)
}

// AddFood logs a signed gram amount now. Manual entries and quick-add
// commits both end here.
func (t *Tracker) AddFood(ctx context.Context, amount float64) (day.Entry, error) {
	if amount == 0 {
		return day.Entry{}, &plan.ValidationError{Field: "amount", Message: "amount must not be zero"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.requireActive(ctx)
	if err != nil {
		return day.Entry{}, err
	}
	now := t.clock.Now()
	today := clock.StartOfDay(now)
	e := day.AppendFood(day.Find(snap.Entries, today), today, amount, t.stamper.Stamp(now))
	return t.save(ctx, "save food", e)
}

// RemoveFood deletes today's food entry at index in newest-first order.
func (t *Tracker) RemoveFood(ctx context.Context, index int) (day.Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.requireActive(ctx)
	if err != nil {
		return day.Entry{}, err
	}
	today := t.today()
	cur := day.Find(snap.Entries, today)
	if cur == nil {
		cur = &day.Entry{Date: today}
	}
	e, err := day.RemoveFood(*cur, index)
	if err != nil {
		return day.Entry{}, err
	}
	return t.save(ctx, "remove food", e)
}

func (t *Tracker) save(ctx context.Context, action string, e day.Entry) (day.Entry, error) {
	if err := t.store.SaveDayEntry(ctx, t.userID, e); err != nil {
		return day.Entry{}, t.fail(action, err)
	}
	return e, nil
}

// CaptureDayZeroWeight records the evening weigh-in of a pending plan. The
// plan stays pending until the next day.
func (t *Tracker) CaptureDayZeroWeight(ctx context.Context, weight float64) (dayzero.Capture, error) {
	if err := plan.ValidateWeight(weight); err != nil {
		return dayzero.Capture{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.advance(ctx)
	if err != nil {
		return dayzero.Capture{}, err
	}
	today := t.today()
	if snap.Pending == nil {
		return dayzero.Capture{}, ErrNoPendingGoal
	}
	if !dayzero.IsDayZero(snap.Pending, today) {
		return dayzero.Capture{}, fmt.Errorf("%w: today is not day zero", ErrNoPendingGoal)
	}

	c, err := dayzero.CaptureWeight(*snap.Pending, day.Find(snap.Entries, today), today, weight)
	if err != nil {
		return dayzero.Capture{}, err
	}
	if err := t.store.SaveCapture(ctx, t.userID, c.Pending, c.Entry); err != nil {
		return dayzero.Capture{}, t.fail("save day-zero weight", err)
	}
	return c, nil
}

// UpdatePendingStartWeight replaces the estimated start weight of the
// pending plan, usually with the day-zero measurement.
func (t *Tracker) UpdatePendingStartWeight(ctx context.Context, weight float64) (plan.Goal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending, err := t.store.LoadPendingGoal(ctx, t.userID)
	if err != nil {
		return plan.Goal{}, t.fail("load pending plan", err)
	}
	if pending == nil {
		return plan.Goal{}, ErrNoPendingGoal
	}
	g, err := dayzero.UpdateStartWeight(*pending, weight)
	if err != nil {
		return plan.Goal{}, err
	}
	if err := t.store.SavePendingGoal(ctx, t.userID, g); err != nil {
		return plan.Goal{}, t.fail("update pending plan", err)
	}
	return g, nil
}

// GoBack discards the pending plan and every day entry logged since it was
// set up. The start day's entry is put back as it was before setup. The
// active plan, if any, is kept.
func (t *Tracker) GoBack(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending, err := t.store.LoadPendingGoal(ctx, t.userID)
	if err != nil {
		return t.fail("load pending plan", err)
	}
	if pending == nil {
		return ErrNoPendingGoal
	}
	if err := t.store.RollbackPending(ctx, t.userID, pending.StartDate, pending.Baseline); err != nil {
		return t.fail("roll back pending plan", err)
	}
	t.logger.Printf("user %s: pending plan discarded", t.userID)
	return nil
}

// Reset deletes the plan, the pending plan and the whole day log.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.ResetPlan(ctx, t.userID); err != nil {
		return t.fail("reset plan", err)
	}
	t.logger.Printf("user %s: plan reset", t.userID)
	return nil
}

// Report builds the target-vs-actual history of the active plan through today.
func (t *Tracker) Report(ctx context.Context) (report.Report, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.requireActive(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(*snap.Goal, snap.Entries, t.today())
}

// NewQuickAdd returns a buffer that commits its total through AddFood.
func (t *Tracker) NewQuickAdd(ctx context.Context, opts quickadd.Options) *quickadd.Buffer {
	return quickadd.New(func(total float64) error {
		_, err := t.AddFood(ctx, total)
		return err
	}, opts)
}

// Watch streams a fresh view whenever the stored state changes. The first
// view arrives once the initial snapshot is complete.
func (t *Tracker) Watch(ctx context.Context) (<-chan View, error) {
	events, err := t.store.Watch(ctx, t.userID)
	if err != nil {
		return nil, t.fail("watch", err)
	}

	out := make(chan View, 1)
	go func() {
		defer close(out)
		var snap store.Snapshot
		seen := make(map[store.Kind]bool, len(store.Kinds))
		for ev := range events {
			snap = store.Reduce(snap, ev)
			seen[ev.Kind] = true
			if len(seen) < len(store.Kinds) {
				continue
			}
			v := BuildView(snap, t.today())
			// keep only the newest view for slow readers
			select {
			case <-out:
			default:
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
