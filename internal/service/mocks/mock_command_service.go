package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/service"
)

// MockCommandService is a mock implementation of service.CommandService.
type MockCommandService struct {
	mock.Mock
}

//nolint:revive
func (m *MockCommandService) Send(ctx context.Context, req service.SendRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

//nolint:revive
func (m *MockCommandService) Schedule(ctx context.Context, req service.ScheduleRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) ScheduleDelayed(ctx context.Context, req service.DelayedRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

//nolint:revive
func (m *MockCommandService) CancelAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) CancelByThread(ctx context.Context, threadID string) (int, error) {
	args := m.Called(ctx, threadID)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) SetBadge(ctx context.Context, n int) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

//nolint:revive
func (m *MockCommandService) ClearBadge(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

//nolint:revive
func (m *MockCommandService) Badge(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) PendingCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) ListPending(ctx context.Context) ([]notification.Request, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Request), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) ListDelivered(ctx context.Context) ([]notification.Delivered, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Delivered), args.Error(1)
}

//nolint:revive
func (m *MockCommandService) PermissionStatus(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

//nolint:revive
func (m *MockCommandService) RequestPermission(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

//nolint:revive
func (m *MockCommandService) Categories(ctx context.Context) []notification.CategoryDefinition {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]notification.CategoryDefinition)
}
