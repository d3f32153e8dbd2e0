package delivery

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaharia-lab/notifyd/internal/eventbus"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

const presentTimeout = 30 * time.Second

// DeliveredLookup loads a delivered notification by id.
type DeliveredLookup interface {
	GetDelivered(ctx context.Context, id string) (*notification.Delivered, error)
}

// AuthorizationChecker reports the notification center's permission state.
type AuthorizationChecker interface {
	AuthorizationStatus(ctx context.Context) (storage.AuthorizationStatus, error)
}

// HandlerConfig holds the Handler dependencies.
type HandlerConfig struct {
	Lookup    DeliveredLookup
	Auth      AuthorizationChecker
	Providers []Provider
	Log       storage.DeliveryLogStore
	// Rate is the number of presentations per second. Zero or less disables throttling.
	Rate    float64
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// Handler presents delivered notifications through its providers and
// records each attempt in the delivery log.
type Handler struct {
	cfg     HandlerConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	return &Handler{cfg: cfg, limiter: rate.NewLimiter(limit, 1), logger: logger}
}

// Listener adapts the handler to the event bus.
func (h *Handler) Listener() eventbus.Listener {
	return func(e eventbus.Event) {
		h.Handle(e.Type, e.Payload)
	}
}

// Handle presents the notification named by a notification.delivered event.
// Other event types are ignored.
func (h *Handler) Handle(eventType string, payload map[string]string) {
	if eventType != eventbus.NotificationDelivered {
		return
	}
	id := payload[eventbus.KeyNotificationID]
	if id == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), presentTimeout)
	defer cancel()

	d, err := h.cfg.Lookup.GetDelivered(ctx, id)
	if err != nil {
		h.logger.Error("failed to load delivered notification", "notification_id", id, "error", err)
		return
	}
	if d == nil {
		// Removed before it could be presented.
		h.logger.Debug("delivered notification no longer exists", "notification_id", id)
		return
	}

	msg := buildMessage(*d)
	authorized := h.authorized(ctx)

	for _, p := range h.cfg.Providers {
		entry := storage.DeliveryLogEntry{
			NotificationID: id,
			Provider:       p.Name(),
			Subject:        msg.Subject,
			Status:         storage.DeliveryStatusSent,
			CreatedAt:      time.Now(),
		}

		switch {
		case !authorized:
			entry.Status = storage.DeliveryStatusSkipped
			entry.ErrorMsg = "notifications are not authorized"
		case d.Request.Content.Urgency == notification.UrgencyPassive && p.Name() != LogProviderName:
			entry.Status = storage.DeliveryStatusSkipped
			entry.ErrorMsg = "passive notifications are not interruptive"
		default:
			if err := h.limiter.Wait(ctx); err != nil {
				entry.Status = storage.DeliveryStatusFailed
				entry.ErrorMsg = err.Error()
				break
			}
			if err := p.Send(ctx, msg); err != nil {
				entry.Status = storage.DeliveryStatusFailed
				entry.ErrorMsg = err.Error()
				h.logger.Error("failed to present notification",
					"notification_id", id, "provider", p.Name(), "error", err)
			}
		}

		h.cfg.Metrics.Presentation(p.Name(), entry.Status)
		h.record(ctx, entry)
	}
}

func (h *Handler) authorized(ctx context.Context) bool {
	if h.cfg.Auth == nil {
		return true
	}
	status, err := h.cfg.Auth.AuthorizationStatus(ctx)
	if err != nil {
		h.logger.Error("failed to read authorization status", "error", err)
		return false
	}
	return status == storage.AuthorizationAuthorized
}

func (h *Handler) record(ctx context.Context, entry storage.DeliveryLogEntry) {
	if h.cfg.Log == nil {
		return
	}
	if err := h.cfg.Log.LogDelivery(ctx, entry); err != nil {
		h.logger.Error("failed to record delivery",
			"notification_id", entry.NotificationID, "provider", entry.Provider, "error", err)
	}
}

// buildMessage renders delivered content into a provider Message.
func buildMessage(d notification.Delivered) Message {
	c := d.Request.Content.Clone()

	var body strings.Builder
	if c.Subtitle != "" {
		body.WriteString(c.Subtitle)
		body.WriteString("\n\n")
	}
	body.WriteString(c.Body)
	if len(c.Metadata.Extra) > 0 {
		body.WriteString("\n")
		for _, k := range slices.Sorted(maps.Keys(c.Metadata.Extra)) {
			body.WriteString("\n")
			body.WriteString(k)
			body.WriteString(": ")
			body.WriteString(c.Metadata.Extra[k])
		}
	}

	msg := Message{
		NotificationID: d.ID(),
		Subject:        buildSubject(c.Title),
		Body:           body.String(),
		Sound:          string(c.Sound),
		Urgency:        string(c.Urgency),
		ThreadID:       c.ThreadID,
		Content:        &c,
	}
	if c.Attachment != nil && c.Attachment.Path != "" {
		msg.Attachments = []string{c.Attachment.Path}
	}
	return msg
}
