package center_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifyd/internal/center"
	"github.com/shaharia-lab/notifyd/internal/eventbus"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(eventType string, payload map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventbus.Event{Type: eventType, Payload: payload})
}

func (p *recordingPublisher) ofType(eventType string) []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []eventbus.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestStore(t *testing.T) storage.RequestStore {
	t.Helper()
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteRequestStore(db)
}

func newTestCenter(t *testing.T, store storage.RequestStore, mutate func(*center.Config)) (*center.Center, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	cfg := center.Config{
		Store:     store,
		Publisher: pub,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		AutoGrant: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := center.New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Stop() })
	return c, pub
}

func request(id string, trigger notification.Trigger) notification.Request {
	now := time.Now()
	return notification.Request{
		ID:          id,
		Content:     notification.NewContent(notification.ContentInput{Title: "t " + id, Body: "b"}, now),
		Trigger:     trigger,
		SubmittedAt: now,
	}
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := center.New(center.Config{})
	assert.Error(t, err)
}

func TestCenter_AddImmediateDelivers(t *testing.T) {
	c, pub := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, request("now", notification.Immediate{})))

	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "now", delivered[0].ID())

	events := pub.ofType(eventbus.NotificationDelivered)
	require.Len(t, events, 1)
	assert.Equal(t, "now", events[0].NotificationID())
	assert.Equal(t, notification.KindImmediate, events[0].Payload[eventbus.KeyTrigger])
}

func TestCenter_AddNilTriggerIsImmediate(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, request("nil", nil)))
	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	assert.Len(t, delivered, 1)
}

func TestCenter_AddTimedStaysPending(t *testing.T) {
	c, pub := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, request("later", notification.After{Delay: 300 * time.Second})))

	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "later", pending[0].ID)
	assert.Equal(t, notification.After{Delay: 300 * time.Second}, pending[0].Trigger)

	require.NotNil(t, pending[0].NextFireAt)
	assert.WithinDuration(t, time.Now().Add(300*time.Second), *pending[0].NextFireAt, 2*time.Second)
	assert.Empty(t, pub.ofType(eventbus.NotificationDelivered))
}

func TestCenter_AddRejectsInvalidTriggers(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		trigger notification.Trigger
	}{
		{name: "zero delay", trigger: notification.After{}},
		{name: "negative delay", trigger: notification.After{Delay: -time.Second}},
		{name: "repeating under a minute", trigger: notification.After{Delay: 30 * time.Second, Repeat: true}},
		{name: "date in the past", trigger: notification.At{Date: time.Now().Add(-time.Minute)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, c.Add(ctx, request("bad", tt.trigger)))
		})
	}

	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	assert.Empty(t, delivered)
}

func TestCenter_AddRequiresID(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	assert.Error(t, c.Add(context.Background(), request("", notification.Immediate{})))
}

func TestCenter_TriggerFiresIntoDelivered(t *testing.T) {
	c, pub := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, request("soon", notification.After{Delay: 50 * time.Millisecond})))

	require.Eventually(t, func() bool {
		return len(pub.ofType(eventbus.NotificationDelivered)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "soon", delivered[0].ID())
}

func TestCenter_RemovePendingBeforeFire(t *testing.T) {
	c, pub := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, request("gone", notification.After{Delay: 100 * time.Millisecond})))
	require.NoError(t, c.RemovePending(ctx, []string{"gone", "never-existed"}))
	require.NoError(t, c.RemovePending(ctx, []string{"gone"}))
	require.NoError(t, c.RemovePending(ctx, nil))

	time.Sleep(250 * time.Millisecond)
	assert.Empty(t, pub.ofType(eventbus.NotificationDelivered))
	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCenter_DeliverSkipsRemovedRequest(t *testing.T) {
	c, pub := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Deliver(ctx, request("removed", notification.After{Delay: time.Minute}), time.Now()))

	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	assert.Empty(t, delivered)
	assert.Empty(t, pub.ofType(eventbus.NotificationDelivered))
}

func TestCenter_DeliverRepeatingKeepsPending(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	req := request("hourly", notification.After{Delay: time.Hour, Repeat: true})
	require.NoError(t, c.Add(ctx, req))
	require.NoError(t, c.Deliver(ctx, req, time.Now()))
	require.NoError(t, c.Deliver(ctx, req, time.Now().Add(time.Hour)))

	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "hourly", delivered[0].ID())
}

func TestCenter_DeliverAppliesContentBadge(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	req := request("badged", notification.Immediate{})
	badge := 7
	req.Content.Badge = &badge
	require.NoError(t, c.Add(ctx, req))

	n, err := c.BadgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestCenter_DeliveredHistoryIsPruned(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), func(cfg *center.Config) { cfg.DeliveredLimit = 2 })
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Add(ctx, request(id, notification.Immediate{})))
		time.Sleep(2 * time.Millisecond)
	}

	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 2)
	assert.Equal(t, "c", delivered[0].ID())
	assert.Equal(t, "b", delivered[1].ID())
}

func TestCenter_RemoveAll(t *testing.T) {
	c, pub := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, request("p1", notification.After{Delay: 100 * time.Millisecond})))
	require.NoError(t, c.Add(ctx, request("p2", notification.After{Delay: time.Hour})))
	require.NoError(t, c.Add(ctx, request("d1", notification.Immediate{})))

	require.NoError(t, c.RemoveAllPending(ctx))
	require.NoError(t, c.RemoveAllDelivered(ctx))

	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	assert.Empty(t, delivered)

	time.Sleep(250 * time.Millisecond)
	assert.Len(t, pub.ofType(eventbus.NotificationDelivered), 1)
}

func TestCenter_RemoveDelivered(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, request("d1", notification.Immediate{})))
	require.NoError(t, c.Add(ctx, request("d2", notification.Immediate{})))
	require.NoError(t, c.RemoveDelivered(ctx, []string{"d1", "unknown"}))

	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "d2", delivered[0].ID())
}

func TestCenter_Authorization(t *testing.T) {
	tests := []struct {
		name      string
		autoGrant bool
		want      storage.AuthorizationStatus
	}{
		{name: "auto grant", autoGrant: true, want: storage.AuthorizationAuthorized},
		{name: "deny", autoGrant: false, want: storage.AuthorizationDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			c, _ := newTestCenter(t, store, func(cfg *center.Config) { cfg.AutoGrant = tt.autoGrant })
			ctx := context.Background()

			status, err := c.AuthorizationStatus(ctx)
			require.NoError(t, err)
			assert.Equal(t, storage.AuthorizationNotDetermined, status)

			granted, err := c.RequestAuthorization(ctx, storage.DefaultAuthorizationOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want == storage.AuthorizationAuthorized, granted)

			status, err = c.AuthorizationStatus(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)

			st, err := store.GetState(ctx)
			require.NoError(t, err)
			assert.Equal(t, storage.DefaultAuthorizationOptions(), st.Options)
		})
	}
}

func TestCenter_AuthorizationDecidedOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveState(ctx, storage.CenterState{Authorization: storage.AuthorizationDenied}))

	c, _ := newTestCenter(t, store, func(cfg *center.Config) { cfg.AutoGrant = true })
	granted, err := c.RequestAuthorization(ctx, storage.DefaultAuthorizationOptions())
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestCenter_Badge(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	require.NoError(t, c.SetBadgeCount(ctx, 5))
	n, err := c.BadgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.NoError(t, c.SetBadgeCount(ctx, -3))
	n, err = c.BadgeCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCenter_Categories(t *testing.T) {
	c, _ := newTestCenter(t, newTestStore(t), nil)
	ctx := context.Background()

	defs, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, notification.DefaultCategories(), defs)

	custom := notification.DefaultCategories()[:1]
	custom[0].Title = "Plain"
	require.NoError(t, c.SetCategories(ctx, custom))

	defs, err = c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Plain", defs[0].Title)
}

func TestCenter_StartRearmsOverdueRequests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	overdue := request("overdue", notification.After{Delay: time.Minute})
	overdue.SubmittedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.SavePending(ctx, overdue))

	c, pub := newTestCenter(t, store, nil)

	require.Eventually(t, func() bool {
		return len(pub.ofType(eventbus.NotificationDelivered)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	delivered, err := c.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "overdue", delivered[0].ID())
}
