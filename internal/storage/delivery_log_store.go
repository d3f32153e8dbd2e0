package storage

import (
	"context"
	"time"
)

// Delivery log statuses.
const (
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
	DeliveryStatusSkipped = "skipped"
)

// DeliveryLogEntry records a single presentation attempt of a delivered notification.
type DeliveryLogEntry struct {
	ID             int64     `json:"id"`
	NotificationID string    `json:"notification_id"`
	Provider       string    `json:"provider"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	ErrorMsg       string    `json:"error_msg"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeliveryLogStore defines the interface for persisting presentation attempts.
type DeliveryLogStore interface {
	// LogDelivery records a presentation attempt.
	LogDelivery(ctx context.Context, entry DeliveryLogEntry) error
	// ListDeliveries returns the most recent log entries, up to limit.
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryLogEntry, error)
}
