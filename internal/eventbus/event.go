package eventbus

import "time"

// Notification lifecycle event types.
const (
	NotificationSent           = "notification.sent"
	NotificationScheduled      = "notification.scheduled"
	NotificationCanceled       = "notification.canceled"
	NotificationCanceledAll    = "notification.canceled_all"
	NotificationCanceledThread = "notification.canceled_thread"
	NotificationDelivered      = "notification.delivered"
	NotificationSnoozed        = "notification.snoozed"
	NotificationAction         = "notification.action"
)

// Payload keys shared by publishers and listeners.
const (
	KeyNotificationID = "notification_id"
	KeyThreadID       = "thread_id"
	KeyTrigger        = "trigger"
	KeyCount          = "count"
	KeyAction         = "action"
	KeyDeliveredAt    = "delivered_at"
)

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// NotificationID returns the notification id carried by the event, if any.
func (e Event) NotificationID() string {
	return e.Payload[KeyNotificationID]
}

// Listener is a function that handles an event.
type Listener func(Event)
