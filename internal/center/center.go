// Package center is the local notification center: the authoritative owner
// of pending requests, delivered history, authorization and the badge.
package center

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/notifyd/internal/eventbus"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/scheduler"
	"github.com/shaharia-lab/notifyd/internal/storage"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

// DefaultDeliveredLimit is the number of delivered notifications retained
// when Config.DeliveredLimit is not set.
const DefaultDeliveredLimit = 64

// Publisher receives center events.
type Publisher interface {
	Publish(eventType string, payload map[string]string)
}

// Config holds the center configuration.
type Config struct {
	Store     storage.RequestStore
	Publisher Publisher
	Logger    *slog.Logger
	Metrics   *telemetry.Metrics
	// AutoGrant decides the first authorization request.
	AutoGrant bool
	// DeliveredLimit bounds the delivered history; oldest records are pruned.
	DeliveredLimit int
	// MaxConcurrency bounds simultaneous trigger deliveries.
	MaxConcurrency int
	Location       *time.Location
	Now            func() time.Time
}

// Center implements storage.NotificationCenter over a RequestStore and a
// trigger scheduler. It is also the scheduler's Deliverer.
type Center struct {
	store     storage.RequestStore
	scheduler *scheduler.Scheduler
	publisher Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	autoGrant bool
	limit     int
	now       func() time.Time

	// mu serializes delivery against removal and state updates.
	mu sync.Mutex
}

var _ storage.NotificationCenter = (*Center)(nil)

// New creates a Center and its scheduler. Call Start to re-arm persisted
// requests and begin firing triggers.
func New(cfg Config) (*Center, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("center requires a request store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	limit := cfg.DeliveredLimit
	if limit <= 0 {
		limit = DefaultDeliveredLimit
	}

	c := &Center{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    logger,
		tracer:    telemetry.Tracer("notifyd/center"),
		autoGrant: cfg.AutoGrant,
		limit:     limit,
		now:       now,
	}

	sched, err := scheduler.New(scheduler.Config{
		Store:          cfg.Store,
		Deliverer:      c,
		Logger:         logger,
		Metrics:        cfg.Metrics,
		MaxConcurrency: cfg.MaxConcurrency,
		Location:       cfg.Location,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}
	c.scheduler = sched
	return c, nil
}

// Start re-arms persisted pending requests and starts firing triggers.
func (c *Center) Start(ctx context.Context) error {
	return c.scheduler.Start(ctx)
}

// Stop halts the scheduler. Pending requests stay persisted.
func (c *Center) Stop() error {
	return c.scheduler.Stop()
}

// AuthorizationStatus implements storage.NotificationCenter.
func (c *Center) AuthorizationStatus(ctx context.Context) (storage.AuthorizationStatus, error) {
	st, err := c.store.GetState(ctx)
	if err != nil {
		return "", fmt.Errorf("reading authorization status: %w", err)
	}
	return st.Authorization, nil
}

// RequestAuthorization implements storage.NotificationCenter. Only the first
// request is decided; later requests report the stored decision.
func (c *Center) RequestAuthorization(ctx context.Context, opts storage.AuthorizationOptions) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.store.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("reading authorization status: %w", err)
	}
	if st.Authorization != storage.AuthorizationNotDetermined {
		return st.Authorization == storage.AuthorizationAuthorized, nil
	}

	st.Authorization = storage.AuthorizationDenied
	if c.autoGrant {
		st.Authorization = storage.AuthorizationAuthorized
	}
	st.Options = opts
	if err := c.store.SaveState(ctx, st); err != nil {
		return false, fmt.Errorf("saving authorization status: %w", err)
	}
	c.logger.Info("authorization decided", "status", st.Authorization)
	return st.Authorization == storage.AuthorizationAuthorized, nil
}

// Add implements storage.NotificationCenter. Immediate requests are
// delivered before Add returns; timed requests are persisted and armed.
func (c *Center) Add(ctx context.Context, req notification.Request) (err error) {
	spec := notification.EncodeTrigger(req.Trigger)
	ctx, span := c.tracer.Start(ctx, "center.Add", trace.WithAttributes(
		attribute.String("notification.id", req.ID),
		attribute.String("notification.trigger", spec.Kind),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if req.ID == "" {
		return fmt.Errorf("request id is required")
	}
	if req.Trigger == nil {
		req.Trigger = notification.Immediate{}
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = c.now()
	}
	if err := notification.ValidateTrigger(req.Trigger, req.SubmittedAt); err != nil {
		return fmt.Errorf("invalid trigger for %q: %w", req.ID, err)
	}

	if _, ok := req.Trigger.(notification.Immediate); ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.deliverLocked(ctx, req, c.now())
	}

	if err := c.store.SavePending(ctx, req); err != nil {
		return fmt.Errorf("saving pending request %q: %w", req.ID, err)
	}
	if err := c.scheduler.Arm(req); err != nil {
		if _, delErr := c.store.DeletePending(ctx, []string{req.ID}); delErr != nil {
			c.logger.Error("failed to roll back pending request",
				"notification_id", req.ID, "error", delErr)
		}
		return fmt.Errorf("arming request %q: %w", req.ID, err)
	}
	c.logger.Debug("request added", "notification_id", req.ID, "trigger", spec.Kind)
	return nil
}

// Deliver implements scheduler.Deliverer. A request removed from pending
// after its trigger fired is not delivered.
func (c *Center) Deliver(ctx context.Context, req notification.Request, firedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.store.GetPending(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("checking pending request %q: %w", req.ID, err)
	}
	if current == nil {
		c.logger.Debug("skipping delivery of removed request", "notification_id", req.ID)
		return nil
	}
	return c.deliverLocked(ctx, *current, firedAt)
}

// deliverLocked must be called with c.mu held.
func (c *Center) deliverLocked(ctx context.Context, req notification.Request, at time.Time) error {
	_, span := c.tracer.Start(ctx, "center.Deliver", trace.WithAttributes(
		attribute.String("notification.id", req.ID),
	))
	defer span.End()

	d := notification.Delivered{Request: req, DeliveredAt: at}
	if err := c.store.MarkDelivered(ctx, d, req.Trigger.Repeats()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("marking %q delivered: %w", req.ID, err)
	}
	if removed, err := c.store.PruneDelivered(ctx, c.limit); err != nil {
		c.logger.Warn("failed to prune delivered history", "error", err)
	} else if removed > 0 {
		c.logger.Debug("pruned delivered history", "removed", removed)
	}

	if req.Content.Badge != nil {
		if err := c.setBadgeLocked(ctx, *req.Content.Badge); err != nil {
			c.logger.Warn("failed to apply content badge", "notification_id", req.ID, "error", err)
		}
	}

	c.logger.Info("notification delivered", "notification_id", req.ID,
		"thread_id", req.Content.ThreadID, "repeats", req.Trigger.Repeats())
	c.publish(eventbus.NotificationDelivered, map[string]string{
		eventbus.KeyNotificationID: req.ID,
		eventbus.KeyThreadID:       req.Content.ThreadID,
		eventbus.KeyTrigger:        notification.EncodeTrigger(req.Trigger).Kind,
		eventbus.KeyDeliveredAt:    at.UTC().Format(time.RFC3339Nano),
	})
	return nil
}

// RemovePending implements storage.NotificationCenter.
func (c *Center) RemovePending(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scheduler.Disarm(ids...)
	n, err := c.store.DeletePending(ctx, ids)
	if err != nil {
		return fmt.Errorf("removing pending requests: %w", err)
	}
	c.logger.Debug("pending requests removed", "requested", len(ids), "removed", n)
	return nil
}

// RemoveDelivered implements storage.NotificationCenter.
func (c *Center) RemoveDelivered(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.DeleteDelivered(ctx, ids); err != nil {
		return fmt.Errorf("removing delivered notifications: %w", err)
	}
	return nil
}

// RemoveAllPending implements storage.NotificationCenter.
func (c *Center) RemoveAllPending(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduler.DisarmAll()
	if err := c.store.DeleteAllPending(ctx); err != nil {
		return fmt.Errorf("removing all pending requests: %w", err)
	}
	return nil
}

// RemoveAllDelivered implements storage.NotificationCenter.
func (c *Center) RemoveAllDelivered(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.DeleteAllDelivered(ctx); err != nil {
		return fmt.Errorf("removing all delivered notifications: %w", err)
	}
	return nil
}

// Pending implements storage.NotificationCenter.
func (c *Center) Pending(ctx context.Context) ([]notification.Request, error) {
	reqs, err := c.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	for i := range reqs {
		if next, ok := c.scheduler.NextRun(reqs[i].ID); ok {
			reqs[i].NextFireAt = &next
		}
	}
	return reqs, nil
}

// Delivered implements storage.NotificationCenter.
func (c *Center) Delivered(ctx context.Context) ([]notification.Delivered, error) {
	ds, err := c.store.ListDelivered(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing delivered notifications: %w", err)
	}
	return ds, nil
}

// SetBadgeCount implements storage.NotificationCenter. Negative counts clear the badge.
func (c *Center) SetBadgeCount(ctx context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setBadgeLocked(ctx, n)
}

func (c *Center) setBadgeLocked(ctx context.Context, n int) error {
	st, err := c.store.GetState(ctx)
	if err != nil {
		return fmt.Errorf("reading center state: %w", err)
	}
	st.Badge = max(n, 0)
	if err := c.store.SaveState(ctx, st); err != nil {
		return fmt.Errorf("saving badge count: %w", err)
	}
	c.logger.Debug("badge updated", "badge", st.Badge)
	return nil
}

// BadgeCount implements storage.NotificationCenter.
func (c *Center) BadgeCount(ctx context.Context) (int, error) {
	st, err := c.store.GetState(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading center state: %w", err)
	}
	return st.Badge, nil
}

// SetCategories implements storage.NotificationCenter.
func (c *Center) SetCategories(ctx context.Context, defs []notification.CategoryDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := c.store.GetState(ctx)
	if err != nil {
		return fmt.Errorf("reading center state: %w", err)
	}
	st.Categories = defs
	if err := c.store.SaveState(ctx, st); err != nil {
		return fmt.Errorf("saving categories: %w", err)
	}
	return nil
}

// Categories implements storage.NotificationCenter. The built-in categories
// are returned until SetCategories is called.
func (c *Center) Categories(ctx context.Context) ([]notification.CategoryDefinition, error) {
	st, err := c.store.GetState(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading center state: %w", err)
	}
	if len(st.Categories) == 0 {
		return notification.DefaultCategories(), nil
	}
	return st.Categories, nil
}

func (c *Center) publish(eventType string, payload map[string]string) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(eventType, payload)
}
