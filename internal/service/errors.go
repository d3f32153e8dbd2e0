package service

import (
	"errors"
	"fmt"
)

// Command errors returned by CommandService and ActionService.
var (
	// ErrNotAuthorized is returned when a privileged verb runs without permission.
	ErrNotAuthorized = errors.New("notifications are not authorized")
	// ErrInvalidDate is returned when a scheduled date is not in the future.
	ErrInvalidDate = errors.New("scheduled date must be in the future")
	// ErrFailedToSend is returned when the notification center rejects an immediate notification.
	ErrFailedToSend = errors.New("failed to send notification")
	// ErrFailedToSchedule is returned when the notification center rejects a scheduled notification.
	ErrFailedToSchedule = errors.New("failed to schedule notification")
)

// NotFoundError is returned when a requested resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ValidationError is returned when request data fails validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
	}
	return e.Message
}
