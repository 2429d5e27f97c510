// Package sqlitestore keeps goals and day entries as JSON documents in an
// embedded SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store"
)

const (
	slotActive  = "active"
	slotPending = "pending"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS goals (
		user_id    TEXT NOT NULL,
		slot       TEXT NOT NULL CHECK (slot IN ('active', 'pending')),
		doc        TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, slot)
	)`,
	`CREATE TABLE IF NOT EXISTS day_entries (
		user_id    TEXT NOT NULL,
		day        TEXT NOT NULL,
		doc        TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, day)
	)`,
}

// Store is a store.Store on SQLite.
type Store struct {
	db  *sql.DB
	hub *store.Hub
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Fail("open sqlite store", err)
	}
	// one connection keeps writers from tripping over SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, store.Fail("migrate sqlite store", err)
		}
	}
	return &Store{db: db, hub: store.NewHub()}, nil
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Store) loadSlot(ctx context.Context, op, userID, slot string) (*plan.Goal, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM goals WHERE user_id = ? AND slot = ?", userID, slot,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, store.Fail(op, err)
	}

	var g plan.Goal
	if err := json.Unmarshal([]byte(doc), &g); err != nil {
		return nil, store.Fail(op, fmt.Errorf("decode %s goal: %w", slot, err))
	}
	return &g, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveSlot(ctx context.Context, db execer, userID, slot string, g plan.Goal) error {
	g.UpdatedAt = time.Now()
	doc, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO goals (user_id, slot, doc, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, slot) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		userID, slot, string(doc), stamp(),
	)
	return err
}

func deleteSlot(ctx context.Context, db execer, userID, slot string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM goals WHERE user_id = ? AND slot = ?", userID, slot)
	return err
}

func (s *Store) LoadGoal(ctx context.Context, userID string) (*plan.Goal, error) {
	return s.loadSlot(ctx, "load goal", userID, slotActive)
}

func (s *Store) SaveGoal(ctx context.Context, userID string, g plan.Goal) error {
	err := saveSlot(ctx, s.db, userID, slotActive, g)
	return s.done(ctx, "save goal", userID, err, store.KindGoal)
}

func (s *Store) DeleteGoal(ctx context.Context, userID string) error {
	err := deleteSlot(ctx, s.db, userID, slotActive)
	return s.done(ctx, "delete goal", userID, err, store.KindGoal)
}

func (s *Store) LoadPendingGoal(ctx context.Context, userID string) (*plan.Goal, error) {
	return s.loadSlot(ctx, "load pending goal", userID, slotPending)
}

func (s *Store) SavePendingGoal(ctx context.Context, userID string, g plan.Goal) error {
	err := saveSlot(ctx, s.db, userID, slotPending, g)
	return s.done(ctx, "save pending goal", userID, err, store.KindPending)
}

func (s *Store) DeletePendingGoal(ctx context.Context, userID string) error {
	err := deleteSlot(ctx, s.db, userID, slotPending)
	return s.done(ctx, "delete pending goal", userID, err, store.KindPending)
}

func (s *Store) PromotePending(ctx context.Context, userID string, g plan.Goal) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if err := saveSlot(ctx, tx, userID, slotActive, g); err != nil {
			return err
		}
		return deleteSlot(ctx, tx, userID, slotPending)
	})
	return s.done(ctx, "promote pending goal", userID, err, store.KindGoal, store.KindPending)
}

func (s *Store) SaveCapture(ctx context.Context, userID string, pending plan.Goal, e day.Entry) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if err := saveDay(ctx, tx, userID, e); err != nil {
			return err
		}
		return saveSlot(ctx, tx, userID, slotPending, pending)
	})
	return s.done(ctx, "save day-zero capture", userID, err, store.KindPending, store.KindEntries)
}

func (s *Store) LoadDayEntries(ctx context.Context, userID string) ([]day.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT doc FROM day_entries WHERE user_id = ? ORDER BY day", userID)
	if err != nil {
		return nil, store.Fail("load day entries", err)
	}
	defer rows.Close()

	var entries []day.Entry
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, store.Fail("load day entries", err)
		}
		var e day.Entry
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, store.Fail("load day entries", fmt.Errorf("decode day entry: %w", err))
		}
		if e.FoodEntries == nil {
			e.FoodEntries = []day.FoodEntry{}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail("load day entries", err)
	}
	return entries, nil
}

func saveDay(ctx context.Context, db execer, userID string, e day.Entry) error {
	e.Date = clock.StartOfDay(e.Date)
	e.UpdatedAt = time.Now()
	doc, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO day_entries (user_id, day, doc, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		userID, e.Key(), string(doc), stamp(),
	)
	return err
}

func (s *Store) SaveDayEntry(ctx context.Context, userID string, e day.Entry) error {
	err := saveDay(ctx, s.db, userID, e)
	return s.done(ctx, "save day entry", userID, err, store.KindEntries)
}

func (s *Store) DeleteAllDayEntries(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM day_entries WHERE user_id = ?", userID)
	return s.done(ctx, "delete day entries", userID, err, store.KindEntries)
}

// RollbackPending compares the YYYY-MM-DD keys as strings, which orders
// them chronologically.
func (s *Store) RollbackPending(ctx context.Context, userID string, since time.Time, restore *day.Entry) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if err := deleteSlot(ctx, tx, userID, slotPending); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"DELETE FROM day_entries WHERE user_id = ? AND day >= ?", userID, day.Key(since))
		if err != nil || restore == nil {
			return err
		}
		return saveDay(ctx, tx, userID, *restore)
	})
	return s.done(ctx, "roll back pending goal", userID, err, store.KindPending, store.KindEntries)
}

func (s *Store) ResetPlan(ctx context.Context, userID string) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM goals WHERE user_id = ?", userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM day_entries WHERE user_id = ?", userID)
		return err
	})
	return s.done(ctx, "reset plan", userID, err, store.Kinds...)
}

func (s *Store) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// done wraps a write error or, on success, notifies watchers.
func (s *Store) done(ctx context.Context, op, userID string, err error, kinds ...store.Kind) error {
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
	return s.db.Close()
}
