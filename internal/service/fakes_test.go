package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shaharia-lab/notifyd/internal/eventbus"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCenter is an in-memory storage.NotificationCenter.
type fakeCenter struct {
	mu         sync.Mutex
	status     storage.AuthorizationStatus
	grant      bool
	pending    []notification.Request
	delivered  []notification.Delivered
	badge      int
	categories []notification.CategoryDefinition
	addErr     error
	adds       int
}

func newFakeCenter() *fakeCenter {
	return &fakeCenter{status: storage.AuthorizationAuthorized, grant: true}
}

func (c *fakeCenter) AuthorizationStatus(context.Context) (storage.AuthorizationStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, nil
}

func (c *fakeCenter) RequestAuthorization(context.Context, storage.AuthorizationOptions) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grant {
		c.status = storage.AuthorizationAuthorized
	} else {
		c.status = storage.AuthorizationDenied
	}
	return c.grant, nil
}

func (c *fakeCenter) Add(_ context.Context, req notification.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adds++
	if c.addErr != nil {
		return c.addErr
	}
	if err := notification.ValidateTrigger(req.Trigger, req.SubmittedAt); err != nil {
		return err
	}
	if _, ok := req.Trigger.(notification.Immediate); ok {
		c.delivered = append([]notification.Delivered{{Request: req, DeliveredAt: time.Now()}}, c.delivered...)
		return nil
	}
	c.pending = append(c.pending, req)
	return nil
}

// deliver moves a pending request to delivered, as a firing trigger would.
func (c *fakeCenter) deliver(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, req := range c.pending {
		if req.ID == id {
			c.pending = slices.Delete(c.pending, i, i+1)
			c.delivered = append([]notification.Delivered{{Request: req, DeliveredAt: time.Now()}}, c.delivered...)
			return
		}
	}
}

func (c *fakeCenter) RemovePending(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = slices.DeleteFunc(c.pending, func(r notification.Request) bool { return slices.Contains(ids, r.ID) })
	return nil
}

func (c *fakeCenter) RemoveDelivered(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = slices.DeleteFunc(c.delivered, func(d notification.Delivered) bool { return slices.Contains(ids, d.ID()) })
	return nil
}

func (c *fakeCenter) RemoveAllPending(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	return nil
}

func (c *fakeCenter) RemoveAllDelivered(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = nil
	return nil
}

func (c *fakeCenter) Pending(context.Context) ([]notification.Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending), nil
}

func (c *fakeCenter) Delivered(context.Context) ([]notification.Delivered, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.delivered), nil
}

func (c *fakeCenter) SetBadgeCount(_ context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.badge = max(n, 0)
	return nil
}

func (c *fakeCenter) BadgeCount(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.badge, nil
}

func (c *fakeCenter) SetCategories(_ context.Context, defs []notification.CategoryDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = defs
	return nil
}

func (c *fakeCenter) Categories(context.Context) ([]notification.CategoryDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.categories == nil {
		return notification.DefaultCategories(), nil
	}
	return c.categories, nil
}

// stubResolver returns a fixed attachment for every URL.
type stubResolver struct {
	att  *notification.Attachment
	urls []string
	mu   sync.Mutex
}

func (r *stubResolver) Resolve(_ context.Context, rawURL string) *notification.Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, rawURL)
	return r.att
}

// stubEventPublisher records published events.
type stubEventPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *stubEventPublisher) Publish(eventType string, payload map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventbus.Event{Type: eventType, Payload: payload})
}

func (p *stubEventPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errStore = errors.New("store unavailable")
