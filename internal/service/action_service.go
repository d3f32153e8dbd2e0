package service

import (
	"context"
	"log/slog"

	"github.com/shaharia-lab/notifyd/internal/eventbus"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

// ActionResponse is a user's response to a delivered notification.
type ActionResponse struct {
	NotificationID string `json:"notification_id"`
	ActionID       string `json:"action"`
	// Text is the reply entered for REPLY_ACTION.
	Text string `json:"text,omitempty"`
}

// ActionResult reports how an action response was handled.
type ActionResult struct {
	NotificationID string `json:"notification_id"`
	ActionID       string `json:"action"`
	// SnoozedID is the id of the re-submitted notification for SNOOZE_ACTION.
	SnoozedID string `json:"snoozed_id,omitempty"`
}

// ActionService handles action button responses on delivered notifications.
type ActionService interface {
	Handle(ctx context.Context, resp ActionResponse) (*ActionResult, error)
}

type actionService struct {
	manager NotificationManager
	events  EventPublisher
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewActionService returns an ActionService backed by manager.
func NewActionService(
	manager NotificationManager,
	events EventPublisher,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) ActionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &actionService{manager: manager, events: events, metrics: metrics, logger: logger}
}

func (s *actionService) Handle(ctx context.Context, resp ActionResponse) (*ActionResult, error) {
	if resp.NotificationID == "" {
		return nil, &ValidationError{Field: "notification_id", Message: "notification id is required"}
	}
	if resp.ActionID == "" {
		resp.ActionID = notification.ActionDefault
	}

	s.manager.RefreshNotificationLists(ctx)
	delivered, ok := s.findDelivered(resp.NotificationID)
	if !ok {
		return nil, &NotFoundError{Resource: "delivered notification", ID: resp.NotificationID}
	}

	category := delivered.Request.Content.Category
	def, ok := s.findCategory(ctx, category)
	if !ok || !def.Offers(resp.ActionID) {
		return nil, &ValidationError{
			Field:   "action",
			Message: "action " + resp.ActionID + " is not offered by category " + string(category),
		}
	}

	result := &ActionResult{NotificationID: resp.NotificationID, ActionID: resp.ActionID}
	logger := s.logger.With("notification_id", resp.NotificationID, "action", resp.ActionID)

	switch resp.ActionID {
	case notification.ActionReply:
		if resp.Text == "" {
			return nil, &ValidationError{Field: "text", Message: "reply text is required"}
		}
		logger.Info("user replied", "text", resp.Text)
	case notification.ActionSnooze:
		id, ok := s.manager.Snooze(ctx, resp.NotificationID)
		if !ok {
			return nil, ErrFailedToSchedule
		}
		result.SnoozedID = id
		logger.Info("notification snoozed", "snoozed_id", id)
	case notification.ActionMarkRead:
		logger.Info("notification marked as read")
	case notification.ActionOpen, notification.ActionDefault:
		logger.Info("notification opened")
	case notification.ActionDismiss, notification.ActionDismissed:
		logger.Info("notification dismissed")
	default:
		logger.Info("custom action received")
	}

	s.metrics.Action(resp.ActionID)
	if s.events != nil {
		s.events.Publish(eventbus.NotificationAction, map[string]string{
			eventbus.KeyNotificationID: resp.NotificationID,
			eventbus.KeyAction:         resp.ActionID,
		})
	}
	return result, nil
}

func (s *actionService) findDelivered(id string) (notification.Delivered, bool) {
	for _, d := range s.manager.Delivered() {
		if d.ID() == id {
			return d, true
		}
	}
	return notification.Delivered{}, false
}

func (s *actionService) findCategory(
	ctx context.Context, id notification.Category,
) (notification.CategoryDefinition, bool) {
	for _, def := range s.manager.Categories(ctx) {
		if def.ID == id {
			return def, true
		}
	}
	return notification.CategoryDefinition{}, false
}
