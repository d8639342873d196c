package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordgame-service/domain"
	"wordgame-service/internal/store"
)

const nowMillis = int64(1_700_000_000_000)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewStore(client, WithClock(func() time.Time { return time.UnixMilli(nowMillis) }))
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestSetOnceRemove(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "rooms/ABC123", map[string]any{
		"code":      "ABC123",
		"status":    "waiting",
		"createdAt": store.ServerTimestamp,
	}))
	assert.True(t, mr.Exists("store:rooms/ABC123"))

	snap, err := s.Once(ctx, "rooms/ABC123")
	require.NoError(t, err)
	var room domain.Room
	require.NoError(t, snap.Decode(&room))
	assert.Equal(t, domain.StatusWaiting, room.Status)
	assert.Equal(t, nowMillis, room.CreatedAt)

	snap, err = s.Once(ctx, "rooms/ABC123/status")
	require.NoError(t, err)
	assert.Equal(t, "waiting", snap.Value())

	require.NoError(t, s.Remove(ctx, "rooms/ABC123"))
	assert.False(t, mr.Exists("store:rooms/ABC123"))
	snap, err = s.Once(ctx, "rooms/ABC123")
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestUpdateChildPaths(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "rooms/ABC123/players/p1", map[string]any{"name": "Alice"}))
	require.NoError(t, s.Update(ctx, "rooms/ABC123", map[string]any{
		"players/p2": map[string]any{"name": "Bob"},
		"status":     "playing",
	}))
	require.NoError(t, s.Remove(ctx, "rooms/ABC123/players/p1"))

	snap, err := s.Once(ctx, "rooms/ABC123")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"players": map[string]any{"p2": map[string]any{"name": "Bob"}},
		"status":  "playing",
	}, snap.Value())
}

func TestUpdateRejectsShallowAndCrossDocumentWrites(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Set(ctx, "rooms", map[string]any{}), domain.ErrValidation)
	err := s.Update(ctx, "rooms", map[string]any{
		"ABC123/status": "waiting",
		"XYZ789/status": "waiting",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOnceScansRooms(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "rooms/ABC123/status", "waiting"))
	require.NoError(t, s.Set(ctx, "rooms/XYZ789/status", "playing"))

	snap, err := s.Once(ctx, "rooms")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"ABC123": map[string]any{"status": "waiting"},
		"XYZ789": map[string]any{"status": "playing"},
	}, snap.Value())
}

func TestOnDeliversInitialValueAndChanges(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "rooms/ABC123/status", "waiting"))

	got := make(chan store.Snapshot, 10)
	sub, err := s.On(ctx, "rooms/ABC123/submissions", func(snap store.Snapshot) { got <- snap })
	require.NoError(t, err)

	assert.False(t, receive(t, got).Exists())

	require.NoError(t, s.Set(ctx, "rooms/ABC123/submissions/p1", map[string]any{"word": "cat"}))
	assert.Equal(t, map[string]any{"p1": map[string]any{"word": "cat"}}, receive(t, got).Value())

	// a write elsewhere in the document leaves the subscribed value alone
	require.NoError(t, s.Set(ctx, "rooms/ABC123/status", "playing"))
	require.NoError(t, s.Remove(ctx, "rooms/ABC123"))
	assert.False(t, receive(t, got).Exists())

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, s.Set(ctx, "rooms/ABC123/submissions/p2", map[string]any{"word": "dog"}))
	assertQuiet(t, got)
}

func TestSharedSubscriberPerDocument(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	a := make(chan store.Snapshot, 10)
	b := make(chan store.Snapshot, 10)
	subA, err := s.On(ctx, "rooms/ABC123", func(snap store.Snapshot) { a <- snap })
	require.NoError(t, err)
	subB, err := s.On(ctx, "rooms/ABC123/status", func(snap store.Snapshot) { b <- snap })
	require.NoError(t, err)
	receive(t, a)
	receive(t, b)

	s.hub.mutex.Lock()
	assert.Len(t, s.hub.subscribers, 1)
	s.hub.mutex.Unlock()

	require.NoError(t, s.Set(ctx, "rooms/ABC123/status", "waiting"))
	assert.Equal(t, map[string]any{"status": "waiting"}, receive(t, a).Value())
	assert.Equal(t, "waiting", receive(t, b).Value())

	require.NoError(t, subA.Unsubscribe())
	require.NoError(t, subB.Unsubscribe())
	s.hub.mutex.Lock()
	assert.Empty(t, s.hub.subscribers)
	s.hub.mutex.Unlock()
}

func receive(t *testing.T, ch <-chan store.Snapshot) store.Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return store.Snapshot{}
	}
}

func assertQuiet(t *testing.T, ch <-chan store.Snapshot) {
	t.Helper()
	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot %v", snap.Value())
	case <-time.After(100 * time.Millisecond):
	}
}
