// Package service implements the notification lifecycle and the command
// surface between the HTTP handlers and the notification center. All
// interfaces are designed for easy mocking in tests.
package service

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/notifyd/internal/attachment"
	"github.com/shaharia-lab/notifyd/internal/eventbus"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

// Trigger defaults.
const (
	DefaultScheduleDelay = 60 * time.Second
	SnoozeDelay          = 300 * time.Second
)

// TriggerInput selects when a scheduled notification fires. Date wins over
// DelaySeconds; with neither set the notification fires after DefaultScheduleDelay.
type TriggerInput struct {
	Date         *time.Time
	DelaySeconds float64
	Repeats      bool
}

// Resolve converts the input into a Trigger.
func (in TriggerInput) Resolve() notification.Trigger {
	if in.Date != nil {
		return notification.At{Date: *in.Date, Repeat: in.Repeats}
	}
	if in.DelaySeconds > 0 {
		return notification.After{
			Delay:  time.Duration(in.DelaySeconds * float64(time.Second)),
			Repeat: in.Repeats,
		}
	}
	return notification.After{Delay: DefaultScheduleDelay, Repeat: in.Repeats}
}

// NotificationManager owns the mirrored view of the notification center and
// orchestrates every create, cancel and query operation. Operations never
// return errors: failures are logged and reported through return values.
type NotificationManager interface {
	// CheckPermissionStatus reloads the authorization state from the center.
	CheckPermissionStatus(ctx context.Context)
	// RequestPermission asks the center for authorization.
	RequestPermission(ctx context.Context)
	// Authorized returns the last known authorization state.
	Authorized() bool

	// SendNotification delivers content immediately.
	SendNotification(ctx context.Context, in notification.ContentInput) bool
	// ScheduleNotification submits content for later delivery and returns its id.
	ScheduleNotification(ctx context.Context, in notification.ContentInput, trigger TriggerInput) (string, bool)
	// Snooze re-submits a delivered notification's content after SnoozeDelay
	// under a new id.
	Snooze(ctx context.Context, deliveredID string) (string, bool)

	// CancelNotification removes id from pending and delivered. Unknown ids are ignored.
	CancelNotification(ctx context.Context, id string)
	CancelAllNotifications(ctx context.Context)
	// CancelNotificationsByThread removes the pending requests of a thread and
	// returns how many matched.
	CancelNotificationsByThread(ctx context.Context, threadID string) int

	SetBadge(ctx context.Context, n int)
	ClearBadge(ctx context.Context)
	// BadgeCount returns the center's badge, or false when it cannot be read.
	BadgeCount(ctx context.Context) (int, bool)

	// RefreshNotificationLists replaces both mirrored lists with the center's.
	RefreshNotificationLists(ctx context.Context)
	Pending() []notification.Request
	Delivered() []notification.Delivered
	// Categories returns the registered action categories.
	Categories(ctx context.Context) []notification.CategoryDefinition
}

type notificationManager struct {
	center   storage.NotificationCenter
	resolver attachment.Resolver
	events   EventPublisher
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	mu         sync.RWMutex
	authorized bool
	pending    []notification.Request
	delivered  []notification.Delivered
}

// NewNotificationManager returns a NotificationManager over center. resolver,
// events and metrics may be nil.
func NewNotificationManager(
	center storage.NotificationCenter,
	resolver attachment.Resolver,
	events EventPublisher,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) NotificationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &notificationManager{
		center:   center,
		resolver: resolver,
		events:   events,
		metrics:  metrics,
		logger:   logger,
		tracer:   telemetry.Tracer("notifyd/service"),
		now:      time.Now,
	}
}

func (m *notificationManager) CheckPermissionStatus(ctx context.Context) {
	status, err := m.center.AuthorizationStatus(ctx)
	if err != nil {
		m.logger.Error("failed to check authorization status", "error", err)
		return
	}
	m.mu.Lock()
	m.authorized = status == storage.AuthorizationAuthorized
	m.mu.Unlock()
}

func (m *notificationManager) RequestPermission(ctx context.Context) {
	granted, err := m.center.RequestAuthorization(ctx, storage.DefaultAuthorizationOptions())
	if err != nil {
		m.logger.Error("failed to request authorization", "error", err)
		return
	}
	m.mu.Lock()
	m.authorized = granted
	m.mu.Unlock()
	m.logger.Info("authorization requested", "granted", granted)
}

func (m *notificationManager) Authorized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authorized
}

func (m *notificationManager) SendNotification(ctx context.Context, in notification.ContentInput) bool {
	ctx, span := m.tracer.Start(ctx, "manager.SendNotification")
	defer span.End()

	content := m.buildContent(ctx, in)
	id, ok := m.submit(ctx, content, notification.Immediate{})
	m.RefreshNotificationLists(ctx)
	span.SetAttributes(attribute.String("notification.id", id), attribute.Bool("notification.ok", ok))
	if ok {
		m.publish(eventbus.NotificationSent, map[string]string{
			eventbus.KeyNotificationID: id,
			eventbus.KeyThreadID:       content.ThreadID,
		})
	}
	return ok
}

func (m *notificationManager) ScheduleNotification(
	ctx context.Context, in notification.ContentInput, trigger TriggerInput,
) (string, bool) {
	ctx, span := m.tracer.Start(ctx, "manager.ScheduleNotification")
	defer span.End()

	content := m.buildContent(ctx, in)
	t := trigger.Resolve()
	id, ok := m.submit(ctx, content, t)
	m.RefreshNotificationLists(ctx)
	span.SetAttributes(attribute.String("notification.id", id), attribute.Bool("notification.ok", ok))
	if !ok {
		return "", false
	}
	m.publish(eventbus.NotificationScheduled, map[string]string{
		eventbus.KeyNotificationID: id,
		eventbus.KeyThreadID:       content.ThreadID,
		eventbus.KeyTrigger:        notification.EncodeTrigger(t).Kind,
	})
	return id, true
}

func (m *notificationManager) Snooze(ctx context.Context, deliveredID string) (string, bool) {
	m.RefreshNotificationLists(ctx)

	var (
		original notification.Delivered
		found    bool
	)
	for _, d := range m.Delivered() {
		if d.ID() == deliveredID {
			original, found = d, true
			break
		}
	}
	if !found {
		m.logger.Warn("snooze target not delivered", "notification_id", deliveredID)
		return "", false
	}

	content := original.Request.Content.Clone()
	content.Metadata.CreatedAt = m.now()
	id, ok := m.submit(ctx, content, notification.After{Delay: SnoozeDelay})
	m.RefreshNotificationLists(ctx)
	if !ok {
		return "", false
	}
	m.logger.Info("notification snoozed", "notification_id", deliveredID, "snoozed_id", id)
	m.publish(eventbus.NotificationSnoozed, map[string]string{
		eventbus.KeyNotificationID: id,
		"snoozed_from":             deliveredID,
	})
	return id, true
}

func (m *notificationManager) CancelNotification(ctx context.Context, id string) {
	ids := []string{id}
	if err := m.center.RemovePending(ctx, ids); err != nil {
		m.logger.Error("failed to remove pending notification", "notification_id", id, "error", err)
	}
	if err := m.center.RemoveDelivered(ctx, ids); err != nil {
		m.logger.Error("failed to remove delivered notification", "notification_id", id, "error", err)
	}
	m.RefreshNotificationLists(ctx)
	m.metrics.Cancel("id")
	m.publish(eventbus.NotificationCanceled, map[string]string{eventbus.KeyNotificationID: id})
}

func (m *notificationManager) CancelAllNotifications(ctx context.Context) {
	if err := m.center.RemoveAllPending(ctx); err != nil {
		m.logger.Error("failed to remove all pending notifications", "error", err)
	}
	if err := m.center.RemoveAllDelivered(ctx); err != nil {
		m.logger.Error("failed to remove all delivered notifications", "error", err)
	}
	m.RefreshNotificationLists(ctx)
	m.metrics.Cancel("all")
	m.publish(eventbus.NotificationCanceledAll, nil)
}

func (m *notificationManager) CancelNotificationsByThread(ctx context.Context, threadID string) int {
	// The mirror may be stale; match against the center's current pending set.
	pending, err := m.center.Pending(ctx)
	if err != nil {
		m.logger.Error("failed to list pending notifications", "thread_id", threadID, "error", err)
		m.RefreshNotificationLists(ctx)
		return 0
	}

	var ids []string
	for _, req := range pending {
		if req.Content.ThreadID == threadID {
			ids = append(ids, req.ID)
		}
	}
	if len(ids) > 0 {
		if err := m.center.RemovePending(ctx, ids); err != nil {
			m.logger.Error("failed to remove thread notifications", "thread_id", threadID, "error", err)
		}
		if err := m.center.RemoveDelivered(ctx, ids); err != nil {
			m.logger.Error("failed to remove delivered thread notifications", "thread_id", threadID, "error", err)
		}
	}
	m.RefreshNotificationLists(ctx)
	m.metrics.Cancel("thread")
	m.publish(eventbus.NotificationCanceledThread, map[string]string{
		eventbus.KeyThreadID: threadID,
		eventbus.KeyCount:    strconv.Itoa(len(ids)),
	})
	return len(ids)
}

func (m *notificationManager) SetBadge(ctx context.Context, n int) {
	if err := m.center.SetBadgeCount(ctx, n); err != nil {
		m.logger.Error("failed to set badge", "badge", n, "error", err)
	}
}

func (m *notificationManager) ClearBadge(ctx context.Context) {
	m.SetBadge(ctx, 0)
}

func (m *notificationManager) BadgeCount(ctx context.Context) (int, bool) {
	n, err := m.center.BadgeCount(ctx)
	if err != nil {
		m.logger.Error("failed to read badge", "error", err)
		return 0, false
	}
	return n, true
}

func (m *notificationManager) RefreshNotificationLists(ctx context.Context) {
	pending, err := m.center.Pending(ctx)
	if err != nil {
		m.logger.Error("failed to refresh pending notifications", "error", err)
	}
	delivered, dErr := m.center.Delivered(ctx)
	if dErr != nil {
		m.logger.Error("failed to refresh delivered notifications", "error", dErr)
	}

	m.mu.Lock()
	if err == nil {
		m.pending = pending
	}
	if dErr == nil {
		m.delivered = delivered
	}
	np, nd := len(m.pending), len(m.delivered)
	m.mu.Unlock()

	m.metrics.Lists(np, nd)
}

func (m *notificationManager) Pending() []notification.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.pending)
}

func (m *notificationManager) Delivered() []notification.Delivered {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.delivered)
}

func (m *notificationManager) Categories(ctx context.Context) []notification.CategoryDefinition {
	defs, err := m.center.Categories(ctx)
	if err != nil || len(defs) == 0 {
		if err != nil {
			m.logger.Error("failed to load categories", "error", err)
		}
		return notification.DefaultCategories()
	}
	return defs
}

// buildContent normalizes the input and attaches the resolved image, if any.
func (m *notificationManager) buildContent(ctx context.Context, in notification.ContentInput) notification.Content {
	content := notification.NewContent(in, m.now())
	if content.ImageURL != "" && m.resolver != nil {
		content.Attachment = m.resolver.Resolve(ctx, content.ImageURL)
		if content.Attachment == nil {
			m.logger.Warn("sending without attachment", "image_url", content.ImageURL)
		}
	}
	return content
}

// submit hands a request with a fresh id to the center.
func (m *notificationManager) submit(
	ctx context.Context, content notification.Content, trigger notification.Trigger,
) (string, bool) {
	req := notification.Request{
		ID:          uuid.NewString(),
		Content:     content,
		Trigger:     trigger,
		SubmittedAt: m.now(),
	}
	kind := notification.EncodeTrigger(trigger).Kind
	if err := m.center.Add(ctx, req); err != nil {
		m.logger.Error("failed to submit notification",
			"notification_id", req.ID, "trigger", kind, "error", err)
		m.metrics.Submission(kind, false)
		return "", false
	}
	m.metrics.Submission(kind, true)
	m.logger.Info("notification submitted",
		"notification_id", req.ID, "trigger", kind, "thread_id", content.ThreadID)
	return req.ID, true
}

func (m *notificationManager) publish(eventType string, payload map[string]string) {
	if m.events == nil {
		return
	}
	m.events.Publish(eventType, payload)
}
