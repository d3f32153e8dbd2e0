package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// DefaultDelayMinutes is used by ScheduleDelayed when no delay is given.
const DefaultDelayMinutes = 5

// maxDelaySeconds is the longest delay representable as a time.Duration.
const maxDelaySeconds = float64(math.MaxInt64) / float64(time.Second)

// SendRequest is the content of a notification submitted through the command surface.
type SendRequest struct {
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Subtitle       string            `json:"subtitle,omitempty"`
	Badge          *int              `json:"badge,omitempty"`
	Sound          string            `json:"sound,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	ThreadID       string            `json:"thread_id,omitempty"`
	Category       string            `json:"category,omitempty"`
	Urgency        string            `json:"urgency,omitempty"`
	RelevanceScore *float64          `json:"relevance_score,omitempty"`
	UserInfo       map[string]string `json:"user_info,omitempty"`
}

// ScheduleRequest is a notification to deliver at Date, after DelaySeconds,
// or after the default delay when neither is set.
type ScheduleRequest struct {
	SendRequest
	Date         *time.Time `json:"date,omitempty"`
	DelaySeconds *float64   `json:"delay_seconds,omitempty"`
	Repeats      bool       `json:"repeats"`
}

// DelayedRequest is a reminder delivered DelayMinutes from now.
type DelayedRequest struct {
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Sound        string   `json:"sound,omitempty"`
	DelayMinutes *float64 `json:"delay_minutes,omitempty"`
}

// CommandService is the automation-facing command surface over a NotificationManager.
// Each verb returns a distinct error for each failure mode.
type CommandService interface {
	Send(ctx context.Context, req SendRequest) error
	Schedule(ctx context.Context, req ScheduleRequest) (string, error)
	ScheduleDelayed(ctx context.Context, req DelayedRequest) (string, error)
	Cancel(ctx context.Context, id string) error
	// CancelAll returns the number of notifications that existed just before
	// the cancel. The count is best effort: deliveries racing the cancel are
	// not reflected.
	CancelAll(ctx context.Context) (int, error)
	CancelByThread(ctx context.Context, threadID string) (int, error)
	// SetBadge sets the badge; n <= 0 clears it.
	SetBadge(ctx context.Context, n int) error
	ClearBadge(ctx context.Context) error
	Badge(ctx context.Context) (int, error)
	PendingCount(ctx context.Context) (int, error)
	ListPending(ctx context.Context) ([]notification.Request, error)
	ListDelivered(ctx context.Context) ([]notification.Delivered, error)
	// PermissionStatus reloads and returns the authorization state.
	PermissionStatus(ctx context.Context) bool
	// RequestPermission asks for authorization and returns the result.
	RequestPermission(ctx context.Context) bool
	Categories(ctx context.Context) []notification.CategoryDefinition
}

type commandService struct {
	manager NotificationManager
	logger  *slog.Logger
	now     func() time.Time
}

// NewCommandService returns a CommandService backed by manager.
func NewCommandService(manager NotificationManager, logger *slog.Logger) CommandService {
	if logger == nil {
		logger = slog.Default()
	}
	return &commandService{manager: manager, logger: logger, now: time.Now}
}

func (s *commandService) Send(ctx context.Context, req SendRequest) error {
	if err := s.requireAuthorized(ctx); err != nil {
		return err
	}
	in, err := toContentInput(req)
	if err != nil {
		return err
	}
	if !s.manager.SendNotification(ctx, in) {
		return ErrFailedToSend
	}
	return nil
}

func (s *commandService) Schedule(ctx context.Context, req ScheduleRequest) (string, error) {
	if err := s.requireAuthorized(ctx); err != nil {
		return "", err
	}
	if req.Date != nil && !req.Date.After(s.now()) {
		return "", ErrInvalidDate
	}
	in, err := toContentInput(req.SendRequest)
	if err != nil {
		return "", err
	}

	trigger := TriggerInput{Date: req.Date, Repeats: req.Repeats}
	if req.DelaySeconds != nil {
		if *req.DelaySeconds < 0 {
			return "", &ValidationError{Field: "delay_seconds", Message: "must not be negative"}
		}
		if *req.DelaySeconds > maxDelaySeconds {
			return "", &ValidationError{Field: "delay_seconds", Message: "is too large"}
		}
		trigger.DelaySeconds = *req.DelaySeconds
	}

	id, ok := s.manager.ScheduleNotification(ctx, in, trigger)
	if !ok {
		return "", ErrFailedToSchedule
	}
	return id, nil
}

func (s *commandService) ScheduleDelayed(ctx context.Context, req DelayedRequest) (string, error) {
	if err := s.requireAuthorized(ctx); err != nil {
		return "", err
	}
	minutes := float64(DefaultDelayMinutes)
	if req.DelayMinutes != nil {
		if *req.DelayMinutes <= 0 {
			return "", &ValidationError{Field: "delay_minutes", Message: "must be greater than 0"}
		}
		if *req.DelayMinutes*60 > maxDelaySeconds {
			return "", &ValidationError{Field: "delay_minutes", Message: "is too large"}
		}
		minutes = *req.DelayMinutes
	}
	in, err := toContentInput(SendRequest{Title: req.Title, Body: req.Body, Sound: req.Sound})
	if err != nil {
		return "", err
	}

	id, ok := s.manager.ScheduleNotification(ctx, in, TriggerInput{DelaySeconds: minutes * 60})
	if !ok {
		return "", ErrFailedToSchedule
	}
	return id, nil
}

func (s *commandService) Cancel(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	s.manager.CancelNotification(ctx, id)
	return nil
}

func (s *commandService) CancelAll(ctx context.Context) (int, error) {
	s.manager.RefreshNotificationLists(ctx)
	count := len(s.manager.Pending()) + len(s.manager.Delivered())
	s.manager.CancelAllNotifications(ctx)
	s.logger.Info("all notifications canceled", "count", count)
	return count, nil
}

func (s *commandService) CancelByThread(ctx context.Context, threadID string) (int, error) {
	if strings.TrimSpace(threadID) == "" {
		return 0, &ValidationError{Field: "thread_id", Message: "thread id is required"}
	}
	return s.manager.CancelNotificationsByThread(ctx, threadID), nil
}

func (s *commandService) SetBadge(ctx context.Context, n int) error {
	if err := s.requireAuthorized(ctx); err != nil {
		return err
	}
	if n <= 0 {
		s.manager.ClearBadge(ctx)
		return nil
	}
	s.manager.SetBadge(ctx, n)
	return nil
}

func (s *commandService) ClearBadge(ctx context.Context) error {
	s.manager.ClearBadge(ctx)
	return nil
}

func (s *commandService) Badge(ctx context.Context) (int, error) {
	n, ok := s.manager.BadgeCount(ctx)
	if !ok {
		return 0, errors.New("reading badge count failed")
	}
	return n, nil
}

func (s *commandService) PendingCount(ctx context.Context) (int, error) {
	s.manager.RefreshNotificationLists(ctx)
	return len(s.manager.Pending()), nil
}

func (s *commandService) ListPending(ctx context.Context) ([]notification.Request, error) {
	s.manager.RefreshNotificationLists(ctx)
	return s.manager.Pending(), nil
}

func (s *commandService) ListDelivered(ctx context.Context) ([]notification.Delivered, error) {
	s.manager.RefreshNotificationLists(ctx)
	return s.manager.Delivered(), nil
}

func (s *commandService) PermissionStatus(ctx context.Context) bool {
	s.manager.CheckPermissionStatus(ctx)
	return s.manager.Authorized()
}

func (s *commandService) RequestPermission(ctx context.Context) bool {
	s.manager.RequestPermission(ctx)
	return s.manager.Authorized()
}

func (s *commandService) Categories(ctx context.Context) []notification.CategoryDefinition {
	return s.manager.Categories(ctx)
}

func (s *commandService) requireAuthorized(ctx context.Context) error {
	s.manager.CheckPermissionStatus(ctx)
	if !s.manager.Authorized() {
		return ErrNotAuthorized
	}
	return nil
}

// toContentInput validates the string enums of a SendRequest.
func toContentInput(req SendRequest) (notification.ContentInput, error) {
	if strings.TrimSpace(req.Title) == "" {
		return notification.ContentInput{}, &ValidationError{Field: "title", Message: "title is required"}
	}
	sound, err := notification.ParseSound(req.Sound)
	if err != nil {
		return notification.ContentInput{}, &ValidationError{Field: "sound", Message: err.Error()}
	}
	category, err := notification.ParseCategory(req.Category)
	if err != nil {
		return notification.ContentInput{}, &ValidationError{Field: "category", Message: err.Error()}
	}
	urgency, err := notification.ParseUrgency(req.Urgency)
	if err != nil {
		return notification.ContentInput{}, &ValidationError{Field: "urgency", Message: err.Error()}
	}

	in := notification.ContentInput{
		Title:          req.Title,
		Body:           req.Body,
		Badge:          req.Badge,
		Sound:          sound,
		Category:       category,
		Urgency:        urgency,
		RelevanceScore: req.RelevanceScore,
		UserInfo:       req.UserInfo,
	}
	if req.Subtitle != "" {
		in.Subtitle = &req.Subtitle
	}
	if req.ImageURL != "" {
		in.ImageURL = &req.ImageURL
	}
	if req.ThreadID != "" {
		in.ThreadID = &req.ThreadID
	}
	return in, nil
}
