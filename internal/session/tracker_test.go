package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerTouchAndLast(t *testing.T) {
	store := NewMemoryStore()
	clock := &fakeClock{t: time.UnixMilli(1_000).UTC()}
	tracker := Tracker{store: store, key: "session:sid:last_activity", now: clock.Now}
	ctx := context.Background()

	_, ok := tracker.Last(ctx)
	assert.False(t, ok, "no activity recorded yet")

	tracker.Touch(ctx)
	last, ok := tracker.Last(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1_000), last)

	// Later touches overwrite; the value never goes backwards under a
	// forward-moving clock.
	clock.AdvanceMillis(500)
	tracker.Touch(ctx)
	last, ok = tracker.Last(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1_500), last)
}

func TestTrackerMalformedValue(t *testing.T) {
	store := NewMemoryStore()
	tracker := Tracker{store: store, key: "k", now: time.Now}
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "yesterday"))

	_, ok := tracker.Last(ctx)
	assert.False(t, ok)
}

func TestTrackerNilStore(t *testing.T) {
	tracker := Tracker{now: time.Now}
	ctx := context.Background()

	tracker.Touch(ctx) // must not panic

	_, ok := tracker.Last(ctx)
	assert.False(t, ok)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteMany(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	require.NoError(t, store.Set(ctx, "c", "3"))

	require.NoError(t, store.Delete(ctx, "a", "b", "absent"))
	assert.Equal(t, 1, store.Len())
}
