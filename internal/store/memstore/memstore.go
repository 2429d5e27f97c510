// Package memstore keeps everything in process memory. It backs the demo
// mode and tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store"
)

type userData struct {
	goal    *plan.Goal
	pending *plan.Goal
	entries map[string]day.Entry
}

// Store is an in-memory store.Store.
type Store struct {
	mu    sync.RWMutex
	users map[string]*userData
	hub   *store.Hub
	// Fail, when set, is returned by every write. Tests use it to simulate
	// an unreachable backend.
	Fail error
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{users: make(map[string]*userData), hub: store.NewHub()}
}

func (s *Store) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{entries: make(map[string]day.Entry)}
		s.users[userID] = u
	}
	return u
}

// write runs fn under the write lock and notifies watchers of kinds on
// success.
func (s *Store) write(ctx context.Context, op, userID string, fn func(u *userData), kinds ...store.Kind) error {
	s.mu.Lock()
	if s.Fail != nil {
		s.mu.Unlock()
		return store.Fail(op, s.Fail)
	}
	fn(s.user(userID))
	s.mu.Unlock()

	s.hub.Notify(ctx, s, userID, kinds...)
	return nil
}

func (s *Store) LoadGoal(_ context.Context, userID string) (*plan.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok && u.goal != nil {
		g := store.CloneGoal(*u.goal)
		return &g, nil
	}
	return nil, nil
}

func (s *Store) SaveGoal(ctx context.Context, userID string, g plan.Goal) error {
	g = store.CloneGoal(g)
	g.UpdatedAt = time.Now()
	return s.write(ctx, "save goal", userID, func(u *userData) {
		u.goal = &g
	}, store.KindGoal)
}

func (s *Store) DeleteGoal(ctx context.Context, userID string) error {
	return s.write(ctx, "delete goal", userID, func(u *userData) {
		u.goal = nil
	}, store.KindGoal)
}

func (s *Store) LoadPendingGoal(_ context.Context, userID string) (*plan.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok && u.pending != nil {
		g := store.CloneGoal(*u.pending)
		return &g, nil
	}
	return nil, nil
}

func (s *Store) SavePendingGoal(ctx context.Context, userID string, g plan.Goal) error {
	g = store.CloneGoal(g)
	g.UpdatedAt = time.Now()
	return s.write(ctx, "save pending goal", userID, func(u *userData) {
		u.pending = &g
	}, store.KindPending)
}

func (s *Store) DeletePendingGoal(ctx context.Context, userID string) error {
	return s.write(ctx, "delete pending goal", userID, func(u *userData) {
		u.pending = nil
	}, store.KindPending)
}

func (s *Store) PromotePending(ctx context.Context, userID string, g plan.Goal) error {
	g = store.CloneGoal(g)
	g.UpdatedAt = time.Now()
	return s.write(ctx, "promote pending goal", userID, func(u *userData) {
		u.goal = &g
		u.pending = nil
	}, store.KindGoal, store.KindPending)
}

func (s *Store) SaveCapture(ctx context.Context, userID string, pending plan.Goal, e day.Entry) error {
	pending = store.CloneGoal(pending)
	pending.UpdatedAt = time.Now()
	e = stamped(e)
	return s.write(ctx, "save day-zero capture", userID, func(u *userData) {
		u.pending = &pending
		u.entries[e.Key()] = e
	}, store.KindPending, store.KindEntries)
}

func stamped(e day.Entry) day.Entry {
	e = day.Clone(e)
	e.Date = clock.StartOfDay(e.Date)
	e.UpdatedAt = time.Now()
	return e
}

// LoadDayEntries returns clones sorted oldest first.
func (s *Store) LoadDayEntries(_ context.Context, userID string) ([]day.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]day.Entry, 0, len(u.entries))
	for _, e := range u.entries {
		out = append(out, day.Clone(e))
	}
	store.SortEntries(out)
	return out, nil
}

func (s *Store) SaveDayEntry(ctx context.Context, userID string, e day.Entry) error {
	e = stamped(e)
	return s.write(ctx, "save day entry", userID, func(u *userData) {
		u.entries[e.Key()] = e
	}, store.KindEntries)
}

func (s *Store) DeleteAllDayEntries(ctx context.Context, userID string) error {
	return s.write(ctx, "delete day entries", userID, func(u *userData) {
		u.entries = make(map[string]day.Entry)
	}, store.KindEntries)
}

func (s *Store) RollbackPending(ctx context.Context, userID string, since time.Time, restore *day.Entry) error {
	since = clock.StartOfDay(since)
	return s.write(ctx, "roll back pending goal", userID, func(u *userData) {
		u.pending = nil
		for key, e := range u.entries {
			if !e.Date.Before(since) {
				delete(u.entries, key)
			}
		}
		if restore != nil {
			e := stamped(*restore)
			u.entries[e.Key()] = e
		}
	}, store.KindPending, store.KindEntries)
}

func (s *Store) ResetPlan(ctx context.Context, userID string) error {
	return s.write(ctx, "reset plan", userID, func(u *userData) {
		u.goal = nil
		u.pending = nil
		u.entries = make(map[string]day.Entry)
	}, store.Kinds...)
}

func (s *Store) Watch(ctx context.Context, userID string) (<-chan store.Event, error) {
	return s.hub.Subscribe(ctx, userID, func() (store.Snapshot, error) {
		return store.Load(ctx, s, userID)
	})
}

func (s *Store) Close() error {
	s.hub.Close()
	return nil
}
