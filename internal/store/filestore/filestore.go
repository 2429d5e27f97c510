// Package filestore keeps every user's data as JSON files:
//
//	<root>/users/<user>/goal.json
//	<root>/users/<user>/pending.json
//	<root>/users/<user>/days/2006-01-02.json
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/hashutil"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store"
	"github.com/emilstricker/regnemetoden/internal/stringutil"
)

const (
	goalFile    = "goal.json"
	pendingFile = "pending.json"
	daysDir     = "days"
	stagePrefix = ".staging-"
)

// Store is a store.Store on the local filesystem.
type Store struct {
	root string
	mu   sync.Mutex
	hub  *store.Hub
}

var _ store.Store = (*Store)(nil)

// Open returns a store rooted at root, creating the directory if needed.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "users"), 0755); err != nil {
		return nil, store.Fail("open file store", err)
	}
	return &Store{root: root, hub: store.NewHub()}, nil
}

// UserDir returns the directory holding userID's files.
func (s *Store) UserDir(userID string) string {
	return filepath.Join(s.root, "users", stringutil.PathSafe(userID))
}

func (s *Store) goalPath(userID string) string {
	return filepath.Join(s.UserDir(userID), goalFile)
}

func (s *Store) pendingPath(userID string) string {
	return filepath.Join(s.UserDir(userID), pendingFile)
}

func (s *Store) daysPath(userID string) string {
	return filepath.Join(s.UserDir(userID), daysDir)
}

func (s *Store) dayPath(userID string, date time.Time) string {
	return filepath.Join(s.daysPath(userID), day.Key(date)+".json")
}

// writeJSON writes v next to path and renames it into place so readers never
// see a half-written file.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readGoal(path string) (*plan.Goal, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g plan.Goal
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &g, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) LoadGoal(_ context.Context, userID string) (*plan.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := readGoal(s.goalPath(userID))
	return g, store.Fail("load goal", err)
}

func (s *Store) SaveGoal(ctx context.Context, userID string, g plan.Goal) error {
	g.UpdatedAt = time.Now()
	return s.write(ctx, "save goal", userID, func() error {
		return writeJSON(s.goalPath(userID), g)
	}, store.KindGoal)
}

func (s *Store) DeleteGoal(ctx context.Context, userID string) error {
	return s.write(ctx, "delete goal", userID, func() error {
		return removeIfExists(s.goalPath(userID))
	}, store.KindGoal)
}

func (s *Store) LoadPendingGoal(_ context.Context, userID string) (*plan.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := readGoal(s.pendingPath(userID))
	return g, store.Fail("load pending goal", err)
}

func (s *Store) SavePendingGoal(ctx context.Context, userID string, g plan.Goal) error {
	g.UpdatedAt = time.Now()
	return s.write(ctx, "save pending goal", userID, func() error {
		return writeJSON(s.pendingPath(userID), g)
	}, store.KindPending)
}

func (s *Store) DeletePendingGoal(ctx context.Context, userID string) error {
	return s.write(ctx, "delete pending goal", userID, func() error {
		return removeIfExists(s.pendingPath(userID))
	}, store.KindPending)
}

// PromotePending writes the goal first; the pending file is staged away
// before that and restored if the goal write fails.
func (s *Store) PromotePending(ctx context.Context, userID string, g plan.Goal) error {
	g.UpdatedAt = time.Now()
	return s.write(ctx, "promote pending goal", userID, func() error {
		return s.staged(userID, []string{s.pendingPath(userID)}, func() error {
			return writeJSON(s.goalPath(userID), g)
		})
	}, store.KindGoal, store.KindPending)
}

// SaveCapture stages the current day file and pending file, writes both and
// puts the originals back if either write fails.
func (s *Store) SaveCapture(ctx context.Context, userID string, pending plan.Goal, e day.Entry) error {
	pending.UpdatedAt = time.Now()
	e.Date = clock.StartOfDay(e.Date)
	e.UpdatedAt = time.Now()
	dayPath := s.dayPath(userID, e.Date)
	return s.write(ctx, "save day-zero capture", userID, func() error {
		return s.staged(userID, []string{dayPath, s.pendingPath(userID)}, func() error {
			if err := writeJSON(dayPath, e); err != nil {
				return err
			}
			if err := writeJSON(s.pendingPath(userID), pending); err != nil {
				_ = os.Remove(dayPath)
				return err
			}
			return nil
		})
	}, store.KindPending, store.KindEntries)
}

func (s *Store) LoadDayEntries(_ context.Context, userID string) ([]day.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readDays(userID)
	return entries, store.Fail("load day entries", err)
}

func (s *Store) readDays(userID string) ([]day.Entry, error) {
	dir := s.daysPath(userID)
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []day.Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, err
		}
		// a corrupt file must not hide the rest of the history
		var e day.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		if e.FoodEntries == nil {
			e.FoodEntries = []day.FoodEntry{}
		}
		entries = append(entries, e)
	}
	store.SortEntries(entries)
	return entries, nil
}

func (s *Store) SaveDayEntry(ctx context.Context, userID string, e day.Entry) error {
	e.Date = clock.StartOfDay(e.Date)
	e.UpdatedAt = time.Now()
	return s.write(ctx, "save day entry", userID, func() error {
		return writeJSON(s.dayPath(userID, e.Date), e)
	}, store.KindEntries)
}

func (s *Store) DeleteAllDayEntries(ctx context.Context, userID string) error {
	return s.write(ctx, "delete day entries", userID, func() error {
		paths, err := s.dayFiles(userID, time.Time{})
		if err != nil {
			return err
		}
		return s.staged(userID, paths, nil)
	}, store.KindEntries)
}

// RollbackPending writes restore only after the files it replaces are
// staged, so a failed write brings every original back.
func (s *Store) RollbackPending(ctx context.Context, userID string, since time.Time, restore *day.Entry) error {
	var fn func() error
	if restore != nil {
		e := day.Clone(*restore)
		e.Date = clock.StartOfDay(e.Date)
		e.UpdatedAt = time.Now()
		fn = func() error {
			return writeJSON(s.dayPath(userID, e.Date), e)
		}
	}
	return s.write(ctx, "roll back pending goal", userID, func() error {
		paths, err := s.dayFiles(userID, clock.StartOfDay(since))
		if err != nil {
			return err
		}
		return s.staged(userID, append(paths, s.pendingPath(userID)), fn)
	}, store.KindPending, store.KindEntries)
}

func (s *Store) ResetPlan(ctx context.Context, userID string) error {
	return s.write(ctx, "reset plan", userID, func() error {
		paths, err := s.dayFiles(userID, time.Time{})
		if err != nil {
			return err
		}
		paths = append(paths, s.goalPath(userID), s.pendingPath(userID))
		return s.staged(userID, paths, nil)
	}, store.Kinds...)
}

// dayFiles lists the day files dated on or after since. Keys sort like
// dates, so a string compare is enough.
func (s *Store) dayFiles(userID string, since time.Time) ([]string, error) {
	dir := s.daysPath(userID)
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	floor := ""
	if !since.IsZero() {
		floor = day.Key(since)
	}
	var out []string
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.TrimSuffix(name, ".json") >= floor {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out, nil
}

// staged moves paths into a staging directory, runs fn, and then discards
// the staging directory. If a move or fn fails, every moved file is put
// back, so the user's files end up either all changed or all untouched.
func (s *Store) staged(userID string, paths []string, fn func() error) error {
	stage := filepath.Join(s.UserDir(userID), stagePrefix+hashutil.Nonce(userID))
	if err := os.MkdirAll(stage, 0755); err != nil {
		return err
	}

	type move struct{ from, to string }
	var moved []move
	restore := func() {
		for i := len(moved) - 1; i >= 0; i-- {
			_ = os.Rename(moved[i].to, moved[i].from)
		}
		_ = os.RemoveAll(stage)
	}

	for i, p := range paths {
		to := filepath.Join(stage, fmt.Sprintf("%03d-%s", i, filepath.Base(p)))
		if err := os.Rename(p, to); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			restore()
			return err
		}
		moved = append(moved, move{from: p, to: to})
	}

	if fn != nil {
		if err := fn(); err != nil {
			restore()
			return err
		}
	}
	return os.RemoveAll(stage)
}

// write serializes fn against other writers and notifies watchers on
// success.
func (s *Store) write(ctx context.Context, op, userID string, fn func() error, kinds ...store.Kind) error {
	if err := ctx.Err(); err != nil {
		return store.Fail(op, err)
	}
	s.mu.Lock()
	err := fn()
	s.mu.Unlock()
	if err != nil {
		return store.Fail(op, err)
	}
	s.hub.Notify(ctx, s, userID, kinds...)
	return nil
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

// IsStaging reports whether a directory name belongs to an unfinished
// atomic operation. Leftovers only exist after a crash.
func IsStaging(name string) bool {
	return strings.HasPrefix(name, stagePrefix)
}

// Recover puts back files left in staging directories by an interrupted
// operation. Files that were replaced in the meantime win.
func (s *Store) Recover(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.UserDir(userID)
	items, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, it := range items {
		if !it.IsDir() || !IsStaging(it.Name()) {
			continue
		}
		if err := s.restoreStage(userID, filepath.Join(dir, it.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) restoreStage(userID, stage string) error {
	files, err := os.ReadDir(stage)
	if err != nil {
		return err
	}
	for _, f := range files {
		// staged names are "<seq>-<original>"
		_, name, ok := strings.Cut(f.Name(), "-")
		if !ok {
			continue
		}
		dest := filepath.Join(s.daysPath(userID), name)
		if name == goalFile || name == pendingFile {
			dest = filepath.Join(s.UserDir(userID), name)
		}
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(stage, f.Name()), dest); err != nil {
			return err
		}
	}
	return os.RemoveAll(stage)
}
