// Package store defines persistence for goals and day entries and the change
// notifications the UI re-renders from. Backends live in sub-packages.
package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
)

// Store is a per-user document store. Every method is last-write-wins;
// PromotePending, SaveCapture, RollbackPending and ResetPlan are
// all-or-nothing.
type Store interface {
	LoadGoal(ctx context.Context, userID string) (*plan.Goal, error)
	SaveGoal(ctx context.Context, userID string, g plan.Goal) error
	DeleteGoal(ctx context.Context, userID string) error

	LoadPendingGoal(ctx context.Context, userID string) (*plan.Goal, error)
	SavePendingGoal(ctx context.Context, userID string, g plan.Goal) error
	DeletePendingGoal(ctx context.Context, userID string) error
	// PromotePending writes g as the active goal and clears the pending slot.
	PromotePending(ctx context.Context, userID string, g plan.Goal) error
	// SaveCapture writes the pending goal and the day-zero entry together.
	SaveCapture(ctx context.Context, userID string, pending plan.Goal, e day.Entry) error

	LoadDayEntries(ctx context.Context, userID string) ([]day.Entry, error)
	SaveDayEntry(ctx context.Context, userID string, e day.Entry) error
	DeleteAllDayEntries(ctx context.Context, userID string) error

	// RollbackPending deletes the pending goal and every day entry dated on
	// or after since, then writes restore back when it is not nil.
	RollbackPending(ctx context.Context, userID string, since time.Time, restore *day.Entry) error
	// ResetPlan deletes the goal, the pending goal and all day entries.
	ResetPlan(ctx context.Context, userID string) error

	// Watch delivers the current state for every kind, then one event per
	// change, until ctx is cancelled. The channel is closed when the
	// subscription ends.
	Watch(ctx context.Context, userID string) (<-chan Event, error)

	Close() error
}

// Kind names the part of a user's data an event is about.
type Kind string

const (
	KindGoal    Kind = "goal"
	KindPending Kind = "pending"
	KindEntries Kind = "entries"
)

// Kinds lists every kind in the order initial events are delivered.
var Kinds = []Kind{KindGoal, KindPending, KindEntries}

// Snapshot is everything stored for one user.
type Snapshot struct {
	Goal    *plan.Goal  `json:"goal"`
	Pending *plan.Goal  `json:"pending"`
	Entries []day.Entry `json:"entries"`
}

// Event reports that the part of the snapshot named by Kind changed. Only
// that part of Snapshot is meaningful.
type Event struct {
	Kind     Kind
	Snapshot Snapshot
}

// Reduce folds an event into the previous snapshot. It never modifies prev.
func Reduce(prev Snapshot, ev Event) Snapshot {
	next := Snapshot{
		Goal:    cloneGoal(prev.Goal),
		Pending: cloneGoal(prev.Pending),
		Entries: cloneEntries(prev.Entries),
	}
	switch ev.Kind {
	case KindGoal:
		next.Goal = cloneGoal(ev.Snapshot.Goal)
	case KindPending:
		next.Pending = cloneGoal(ev.Snapshot.Pending)
	case KindEntries:
		next.Entries = cloneEntries(ev.Snapshot.Entries)
	}
	return next
}

// Load reads a full snapshot through the individual loaders.
func Load(ctx context.Context, s Store, userID string) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Goal, err = s.LoadGoal(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	if snap.Pending, err = s.LoadPendingGoal(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	if snap.Entries, err = s.LoadDayEntries(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SortEntries orders entries by date, oldest first.
func SortEntries(entries []day.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}

// PersistenceError wraps a backend failure with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Fail wraps err as a *PersistenceError. A nil err stays nil.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func cloneGoal(g *plan.Goal) *plan.Goal {
	if g == nil {
		return nil
	}
	c := CloneGoal(*g)
	return &c
}

// CloneGoal copies g, including its baseline entry.
func CloneGoal(g plan.Goal) plan.Goal {
	if g.Baseline != nil {
		b := day.Clone(*g.Baseline)
		g.Baseline = &b
	}
	return g
}

func cloneEntries(entries []day.Entry) []day.Entry {
	if entries == nil {
		return nil
	}
	out := make([]day.Entry, len(entries))
	for i, e := range entries {
		out[i] = day.Clone(e)
	}
	return out
}
