package storage

import (
	"context"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// CenterState is the singleton settings row of the notification center.
type CenterState struct {
	Authorization AuthorizationStatus               `json:"authorization"`
	Options       AuthorizationOptions              `json:"options"`
	Badge         int                               `json:"badge"`
	Categories    []notification.CategoryDefinition `json:"categories"`
}

// RequestStore persists the notification center's pending requests,
// delivered history and state.
type RequestStore interface {
	// SavePending inserts or replaces a pending request by id. Replacing keeps
	// the original submission order.
	SavePending(ctx context.Context, req notification.Request) error
	// GetPending returns a pending request by id, or nil if not found.
	GetPending(ctx context.Context, id string) (*notification.Request, error)
	// ListPending returns pending requests in submission order.
	ListPending(ctx context.Context) ([]notification.Request, error)
	// DeletePending removes the given ids and returns how many existed.
	DeletePending(ctx context.Context, ids []string) (int, error)
	DeleteAllPending(ctx context.Context) error

	// MarkDelivered records d as delivered (replacing any earlier delivery of
	// the same id) and, unless keepPending is set, removes it from pending.
	MarkDelivered(ctx context.Context, d notification.Delivered, keepPending bool) error
	// ListDelivered returns delivered notifications, most recent first.
	ListDelivered(ctx context.Context) ([]notification.Delivered, error)
	// GetDelivered returns a delivered notification by id, or nil if not found.
	GetDelivered(ctx context.Context, id string) (*notification.Delivered, error)
	DeleteDelivered(ctx context.Context, ids []string) error
	DeleteAllDelivered(ctx context.Context) error
	// PruneDelivered keeps the newest keep records and returns how many were removed.
	PruneDelivered(ctx context.Context, keep int) (int, error)

	// GetState returns the center state, with defaults when never saved.
	GetState(ctx context.Context) (CenterState, error)
	SaveState(ctx context.Context, st CenterState) error
}
