package store

import (
	"context"
	"sync"
)

// HubBuffer is the channel capacity per subscriber. A subscriber that falls
// this far behind is dropped.
const HubBuffer = 32

// Hub fans change events out to in-process subscribers. Backends without a
// native change feed publish to it after every successful write.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch     chan Event
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a subscriber for userID. load is called while the hub
// is locked so no event can slip in between the initial snapshot and the
// first change.
func (h *Hub) Subscribe(ctx context.Context, userID string, load func() (Snapshot, error)) (<-chan Event, error) {
	h.mu.Lock()
	snap, err := load()
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}

	sub := &subscriber{ch: make(chan Event, HubBuffer)}
	for _, k := range Kinds {
		sub.ch <- Event{Kind: k, Snapshot: snap}
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		h.drop(userID, sub)
		h.mu.Unlock()
	}()
	return sub.ch, nil
}

// Publish sends an event to every subscriber of userID without blocking.
func (h *Hub) Publish(userID string, kind Kind, snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[userID] {
		select {
		case sub.ch <- Event{Kind: kind, Snapshot: snap}:
		default:
			h.drop(userID, sub)
		}
	}
}

// Subscribers returns how many subscriptions userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, subs := range h.subs {
		for sub := range subs {
			h.drop(userID, sub)
		}
	}
}

// drop removes and closes a subscriber. Callers hold mu.
func (h *Hub) drop(userID string, sub *subscriber) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	delete(h.subs[userID], sub)
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

// Notify reloads the user's snapshot from s and publishes one event per kind.
// Nothing is loaded when nobody is listening.
func (h *Hub) Notify(ctx context.Context, s Store, userID string, kinds ...Kind) {
	if h.Subscribers(userID) == 0 {
		return
	}
	snap, err := Load(ctx, s, userID)
	if err != nil {
		return
	}
	for _, k := range kinds {
		h.Publish(userID, k, snap)
	}
}
