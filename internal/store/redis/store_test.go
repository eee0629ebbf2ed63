package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, logger.Nop()), mr
}

func nextEvent(t *testing.T, sub *Subscription) domain.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return domain.ChangeEvent{}
}

func TestCreateAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := store.Create(ctx, "https://a.com", "A", "u1")
	require.NoError(t, err)
	second, err := store.Create(ctx, "https://b.com", "B", "u1")
	require.NoError(t, err)
	_, err = store.Create(ctx, "https://other.com", "Other", "u2")
	require.NoError(t, err)

	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)

	list, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
	require.True(t, list[0].CreatedAt.Equal(second.CreatedAt))
	require.Equal(t, "u1", list[1].Owner)
}

func TestListEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	list, err := store.List(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestListSkipsDanglingIndexEntries(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	b, err := store.Create(ctx, "https://a.com", "A", "u1")
	require.NoError(t, err)
	_, err = mr.ZAdd(UserBookmarksKey("u1"), 1, "ghost")
	require.NoError(t, err)

	list, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, b.ID, list[0].ID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	b, err := store.Create(ctx, "https://a.com", "A", "u1")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, b.ID))
	require.False(t, mr.Exists(BookmarkKey(b.ID)))

	list, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, list)

	// unknown id is not an error
	require.NoError(t, store.Delete(ctx, "missing"))
}

func TestSubscribeDeliversOwnWrites(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sub, err := store.Subscribe(ctx, "u1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	b, err := store.Create(ctx, "https://a.com", "A", "u1")
	require.NoError(t, err)

	ev := nextEvent(t, sub)
	require.Equal(t, domain.EventInsert, ev.Kind)
	require.Equal(t, b.ID, ev.ID)
	require.NotNil(t, ev.Record)
	require.Equal(t, "https://a.com", ev.Record.URL)

	require.NoError(t, store.Delete(ctx, b.ID))

	ev = nextEvent(t, sub)
	require.Equal(t, domain.EventDelete, ev.Kind)
	require.Equal(t, b.ID, ev.ID)
	require.Nil(t, ev.Record)
}

func TestSubscribeIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sub, err := store.Subscribe(ctx, "u1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	_, err = store.Create(ctx, "https://other.com", "Other", "u2")
	require.NoError(t, err)
	mine, err := store.Create(ctx, "https://mine.com", "Mine", "u1")
	require.NoError(t, err)

	ev := nextEvent(t, sub)
	require.Equal(t, mine.ID, ev.ID)
}

func TestSubscriptionCloseEndsEvents(t *testing.T) {
	store, _ := newTestStore(t)

	sub, err := store.Subscribe(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed after Close")
	}
}
