package storage

import (
	"context"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// AuthorizationStatus is the permission state held by the notification center.
type AuthorizationStatus string

// Authorization states.
const (
	AuthorizationNotDetermined AuthorizationStatus = "notDetermined"
	AuthorizationDenied        AuthorizationStatus = "denied"
	AuthorizationAuthorized    AuthorizationStatus = "authorized"
)

// AuthorizationOptions are the capabilities requested when asking for permission.
type AuthorizationOptions struct {
	Alert         bool `json:"alert"`
	Badge         bool `json:"badge"`
	Sound         bool `json:"sound"`
	CriticalAlert bool `json:"critical_alert"`
}

// DefaultAuthorizationOptions requests every capability notifyd uses.
func DefaultAuthorizationOptions() AuthorizationOptions {
	return AuthorizationOptions{Alert: true, Badge: true, Sound: true, CriticalAlert: true}
}

// NotificationCenter is the authoritative delivery and permission subsystem.
// It owns pending requests and delivered notifications; callers only mirror
// what it returns.
type NotificationCenter interface {
	// AuthorizationStatus returns the current permission state.
	AuthorizationStatus(ctx context.Context) (AuthorizationStatus, error)
	// RequestAuthorization asks for permission and reports whether it was granted.
	RequestAuthorization(ctx context.Context, opts AuthorizationOptions) (bool, error)

	// Add submits a request. A request with an existing pending id replaces it.
	Add(ctx context.Context, req notification.Request) error
	// RemovePending removes pending requests. Unknown ids are ignored.
	RemovePending(ctx context.Context, ids []string) error
	// RemoveDelivered removes delivered notifications. Unknown ids are ignored.
	RemoveDelivered(ctx context.Context, ids []string) error
	RemoveAllPending(ctx context.Context) error
	RemoveAllDelivered(ctx context.Context) error

	// Pending lists pending requests in submission order.
	Pending(ctx context.Context) ([]notification.Request, error)
	// Delivered lists delivered notifications, most recent first.
	Delivered(ctx context.Context) ([]notification.Delivered, error)

	SetBadgeCount(ctx context.Context, n int) error
	BadgeCount(ctx context.Context) (int, error)

	// SetCategories registers the action categories delivered notifications offer.
	SetCategories(ctx context.Context, defs []notification.CategoryDefinition) error
	Categories(ctx context.Context) ([]notification.CategoryDefinition, error)
}
