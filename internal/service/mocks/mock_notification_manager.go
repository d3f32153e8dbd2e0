package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/service"
)

// MockNotificationManager is a mock implementation of service.NotificationManager.
type MockNotificationManager struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationManager) CheckPermissionStatus(ctx context.Context) {
	m.Called(ctx)
}

//nolint:revive
func (m *MockNotificationManager) RequestPermission(ctx context.Context) {
	m.Called(ctx)
}

//nolint:revive
func (m *MockNotificationManager) Authorized() bool {
	args := m.Called()
	return args.Bool(0)
}

//nolint:revive
func (m *MockNotificationManager) SendNotification(ctx context.Context, in notification.ContentInput) bool {
	args := m.Called(ctx, in)
	return args.Bool(0)
}

//nolint:revive
func (m *MockNotificationManager) ScheduleNotification(
	ctx context.Context, in notification.ContentInput, trigger service.TriggerInput,
) (string, bool) {
	args := m.Called(ctx, in, trigger)
	return args.String(0), args.Bool(1)
}

//nolint:revive
func (m *MockNotificationManager) Snooze(ctx context.Context, deliveredID string) (string, bool) {
	args := m.Called(ctx, deliveredID)
	return args.String(0), args.Bool(1)
}

//nolint:revive
func (m *MockNotificationManager) CancelNotification(ctx context.Context, id string) {
	m.Called(ctx, id)
}

//nolint:revive
func (m *MockNotificationManager) CancelAllNotifications(ctx context.Context) {
	m.Called(ctx)
}

//nolint:revive
func (m *MockNotificationManager) CancelNotificationsByThread(ctx context.Context, threadID string) int {
	args := m.Called(ctx, threadID)
	return args.Int(0)
}

//nolint:revive
func (m *MockNotificationManager) SetBadge(ctx context.Context, n int) {
	m.Called(ctx, n)
}

//nolint:revive
func (m *MockNotificationManager) ClearBadge(ctx context.Context) {
	m.Called(ctx)
}

//nolint:revive
func (m *MockNotificationManager) BadgeCount(ctx context.Context) (int, bool) {
	args := m.Called(ctx)
	return args.Int(0), args.Bool(1)
}

//nolint:revive
func (m *MockNotificationManager) RefreshNotificationLists(ctx context.Context) {
	m.Called(ctx)
}

//nolint:revive
func (m *MockNotificationManager) Pending() []notification.Request {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]notification.Request)
}

//nolint:revive
func (m *MockNotificationManager) Delivered() []notification.Delivered {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]notification.Delivered)
}

//nolint:revive
func (m *MockNotificationManager) Categories(ctx context.Context) []notification.CategoryDefinition {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]notification.CategoryDefinition)
}
