package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/notifyd/internal/service"
)

// MockActionService is a mock implementation of service.ActionService.
type MockActionService struct {
	mock.Mock
}

//nolint:revive
func (m *MockActionService) Handle(ctx context.Context, resp service.ActionResponse) (*service.ActionResult, error) {
	args := m.Called(ctx, resp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ActionResult), args.Error(1)
}
