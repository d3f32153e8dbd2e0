package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
)

// MockNotificationCenter is a mock implementation of storage.NotificationCenter.
type MockNotificationCenter struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationCenter) AuthorizationStatus(ctx context.Context) (storage.AuthorizationStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.AuthorizationStatus), args.Error(1)
}

//nolint:revive
func (m *MockNotificationCenter) RequestAuthorization(ctx context.Context, opts storage.AuthorizationOptions) (bool, error) {
	args := m.Called(ctx, opts)
	return args.Bool(0), args.Error(1)
}

//nolint:revive
func (m *MockNotificationCenter) Add(ctx context.Context, req notification.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationCenter) RemovePending(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationCenter) RemoveDelivered(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationCenter) RemoveAllPending(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationCenter) RemoveAllDelivered(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationCenter) Pending(ctx context.Context) ([]notification.Request, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Request), args.Error(1)
}

//nolint:revive
func (m *MockNotificationCenter) Delivered(ctx context.Context) ([]notification.Delivered, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Delivered), args.Error(1)
}

//nolint:revive
func (m *MockNotificationCenter) SetBadgeCount(ctx context.Context, n int) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationCenter) BadgeCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockNotificationCenter) SetCategories(ctx context.Context, defs []notification.CategoryDefinition) error {
	args := m.Called(ctx, defs)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationCenter) Categories(ctx context.Context) ([]notification.CategoryDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.CategoryDefinition), args.Error(1)
}
