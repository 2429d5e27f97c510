package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return Event{}
}

func TestHubDeliversInitialSnapshot(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := h.Subscribe(ctx, "u1", func() (Snapshot, error) {
		return Snapshot{Goal: sampleGoal(90)}, nil
	})
	require.NoError(t, err)

	for _, k := range Kinds {
		ev := receive(t, ch)
		assert.Equal(t, k, ev.Kind)
		assert.Equal(t, 90.0, ev.Snapshot.Goal.StartWeight)
	}
}

func TestHubPublishesPerUser(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	empty := func() (Snapshot, error) { return Snapshot{}, nil }
	a, err := h.Subscribe(ctx, "a", empty)
	require.NoError(t, err)
	b, err := h.Subscribe(ctx, "b", empty)
	require.NoError(t, err)
	for range Kinds {
		receive(t, a)
		receive(t, b)
	}

	h.Publish("a", KindPending, Snapshot{Pending: sampleGoal(91)})

	ev := receive(t, a)
	assert.Equal(t, KindPending, ev.Kind)
	assert.Equal(t, 91.0, ev.Snapshot.Pending.StartWeight)
	assert.Empty(t, b)
}

func TestHubSubscribeLoadError(t *testing.T) {
	h := NewHub()

	_, err := h.Subscribe(context.Background(), "u1", func() (Snapshot, error) {
		return Snapshot{}, errors.New("boom")
	})

	assert.EqualError(t, err, "boom")
	assert.Equal(t, 0, h.Subscribers("u1"))
}

func TestHubCancelClosesChannel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := h.Subscribe(ctx, "u1", func() (Snapshot, error) { return Snapshot{}, nil })
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool { return h.Subscribers("u1") == 0 }, time.Second, 5*time.Millisecond)
	for range ch {
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := h.Subscribe(ctx, "u1", func() (Snapshot, error) { return Snapshot{}, nil })
	require.NoError(t, err)

	for i := 0; i < HubBuffer; i++ {
		h.Publish("u1", KindEntries, Snapshot{})
	}

	assert.Equal(t, 0, h.Subscribers("u1"))
	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, HubBuffer, n)
}

func TestHubClose(t *testing.T) {
	h := NewHub()
	ch, err := h.Subscribe(context.Background(), "u1", func() (Snapshot, error) { return Snapshot{}, nil })
	require.NoError(t, err)

	h.Close()

	for range ch {
	}
	assert.Equal(t, 0, h.Subscribers("u1"))
}
