package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
)

func newRequestStore(t *testing.T) *storage.SQLiteRequestStore {
	t.Helper()
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteRequestStore(db)
}

func newRequest(id, thread string, trigger notification.Trigger, submitted time.Time) notification.Request {
	in := notification.ContentInput{Title: "title " + id, Body: "body"}
	if thread != "" {
		in.ThreadID = &thread
	}
	return notification.Request{
		ID:          id,
		Content:     notification.NewContent(in, submitted),
		Trigger:     trigger,
		SubmittedAt: submitted,
	}
}

func TestSQLiteRequestStore_Pending(t *testing.T) {
	store := newRequestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	list, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	date := now.Add(time.Hour)
	require.NoError(t, store.SavePending(ctx, newRequest("a", "", notification.After{Delay: 300 * time.Second}, now)))
	require.NoError(t, store.SavePending(ctx, newRequest("b", "t1", notification.At{Date: date, Repeat: true}, now)))
	require.NoError(t, store.SavePending(ctx, newRequest("c", "t1", notification.Immediate{}, now)))

	list, err = store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, notification.After{Delay: 300 * time.Second}, list[0].Trigger)
	assert.Equal(t, "t1", list[1].Content.ThreadID)
	at, ok := list[1].Trigger.(notification.At)
	require.True(t, ok)
	assert.True(t, date.Equal(at.Date))
	assert.True(t, at.Repeat)
	assert.True(t, now.Equal(list[0].SubmittedAt))

	t.Run("replace keeps order", func(t *testing.T) {
		replaced := newRequest("a", "", notification.After{Delay: time.Minute}, now)
		replaced.Content.Title = "replaced"
		require.NoError(t, store.SavePending(ctx, replaced))

		list, err := store.ListPending(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "a", list[0].ID)
		assert.Equal(t, "replaced", list[0].Content.Title)
	})

	t.Run("get", func(t *testing.T) {
		got, err := store.GetPending(ctx, "b")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "title b", got.Content.Title)

		missing, err := store.GetPending(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("delete", func(t *testing.T) {
		n, err := store.DeletePending(ctx, []string{"b", "missing"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.DeletePending(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, store.DeleteAllPending(ctx))
		list, err := store.ListPending(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestSQLiteRequestStore_MarkDelivered(t *testing.T) {
	store := newRequestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	once := newRequest("once", "", notification.After{Delay: time.Second}, now)
	repeating := newRequest("again", "", notification.After{Delay: time.Minute, Repeat: true}, now)
	require.NoError(t, store.SavePending(ctx, once))
	require.NoError(t, store.SavePending(ctx, repeating))

	require.NoError(t, store.MarkDelivered(ctx, notification.Delivered{Request: once, DeliveredAt: now.Add(time.Second)}, false))
	require.NoError(t, store.MarkDelivered(ctx, notification.Delivered{Request: repeating, DeliveredAt: now.Add(time.Minute)}, true))
	// A second firing of a repeating request replaces its delivered record.
	require.NoError(t, store.MarkDelivered(ctx, notification.Delivered{Request: repeating, DeliveredAt: now.Add(2 * time.Minute)}, true))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "again", pending[0].ID)

	delivered, err := store.ListDelivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 2)
	assert.Equal(t, "again", delivered[0].ID())
	assert.True(t, now.Add(2*time.Minute).Equal(delivered[0].DeliveredAt))
	assert.Equal(t, "once", delivered[1].ID())

	got, err := store.GetDelivered(ctx, "once")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "title once", got.Request.Content.Title)

	missing, err := store.GetDelivered(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.DeleteDelivered(ctx, []string{"once", "missing"}))
	delivered, err = store.ListDelivered(ctx)
	require.NoError(t, err)
	assert.Len(t, delivered, 1)

	require.NoError(t, store.DeleteAllDelivered(ctx))
	delivered, err = store.ListDelivered(ctx)
	require.NoError(t, err)
	assert.Empty(t, delivered)
}

func TestSQLiteRequestStore_PruneDelivered(t *testing.T) {
	store := newRequestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"d1", "d2", "d3", "d4"} {
		req := newRequest(id, "", notification.Immediate{}, base)
		at := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.MarkDelivered(ctx, notification.Delivered{Request: req, DeliveredAt: at}, false))
	}

	removed, err := store.PruneDelivered(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	delivered, err := store.ListDelivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 2)
	assert.Equal(t, "d4", delivered[0].ID())
	assert.Equal(t, "d3", delivered[1].ID())
}

func TestSQLiteRequestStore_State(t *testing.T) {
	store := newRequestStore(t)
	ctx := context.Background()

	st, err := store.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.AuthorizationNotDetermined, st.Authorization)
	assert.Zero(t, st.Badge)

	want := storage.CenterState{
		Authorization: storage.AuthorizationAuthorized,
		Options:       storage.DefaultAuthorizationOptions(),
		Badge:         4,
		Categories:    notification.DefaultCategories(),
	}
	require.NoError(t, store.SaveState(ctx, want))

	got, err := store.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.Badge = 0
	want.Authorization = storage.AuthorizationDenied
	require.NoError(t, store.SaveState(ctx, want))
	got, err = store.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.AuthorizationDenied, got.Authorization)
	assert.Zero(t, got.Badge)
}
