package notification

import (
	"encoding/json"
	"fmt"
	"time"
)

// Attachment is a local file staged for display alongside the content.
type Attachment struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Ext      string `json:"ext"`
	MIMEType string `json:"mime_type,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// State is the lifecycle state of a record as seen by the notification center.
type State string

// Record states.
const (
	StatePending   State = "pending"
	StateDelivered State = "delivered"
)

// Request is a submission accepted by the notification center and not yet
// delivered (or a repeating request that keeps firing).
type Request struct {
	ID          string
	Content     Content
	Trigger     Trigger
	SubmittedAt time.Time
	// NextFireAt is filled in by the center when listing pending requests.
	// It is never persisted.
	NextFireAt *time.Time
}

type requestJSON struct {
	ID          string      `json:"id"`
	State       State       `json:"state"`
	Content     Content     `json:"content"`
	Trigger     TriggerSpec `json:"trigger"`
	SubmittedAt time.Time   `json:"submitted_at"`
	NextFireAt  *time.Time  `json:"next_fire_at,omitempty"`
}

// MarshalJSON encodes the trigger through TriggerSpec.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(requestJSON{
		ID:          r.ID,
		State:       StatePending,
		Content:     r.Content,
		Trigger:     EncodeTrigger(r.Trigger),
		SubmittedAt: r.SubmittedAt,
		NextFireAt:  r.NextFireAt,
	})
}

// UnmarshalJSON decodes the trigger through TriggerSpec.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw requestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	trigger, err := DecodeTrigger(raw.Trigger)
	if err != nil {
		return fmt.Errorf("decoding trigger of %q: %w", raw.ID, err)
	}
	*r = Request{ID: raw.ID, Content: raw.Content, Trigger: trigger, SubmittedAt: raw.SubmittedAt, NextFireAt: raw.NextFireAt}
	return nil
}

// Delivered is a notification the center has already presented.
type Delivered struct {
	Request     Request
	DeliveredAt time.Time
}

type deliveredJSON struct {
	requestJSON
	DeliveredAt time.Time `json:"delivered_at"`
}

// ID returns the identifier of the underlying request.
func (d Delivered) ID() string { return d.Request.ID }

// MarshalJSON flattens the request fields next to delivered_at.
func (d Delivered) MarshalJSON() ([]byte, error) {
	return json.Marshal(deliveredJSON{
		requestJSON: requestJSON{
			ID:          d.Request.ID,
			State:       StateDelivered,
			Content:     d.Request.Content,
			Trigger:     EncodeTrigger(d.Request.Trigger),
			SubmittedAt: d.Request.SubmittedAt,
		},
		DeliveredAt: d.DeliveredAt,
	})
}

// UnmarshalJSON reverses MarshalJSON.
func (d *Delivered) UnmarshalJSON(data []byte) error {
	var raw deliveredJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	trigger, err := DecodeTrigger(raw.Trigger)
	if err != nil {
		return fmt.Errorf("decoding trigger of %q: %w", raw.ID, err)
	}
	d.Request = Request{ID: raw.ID, Content: raw.Content, Trigger: trigger, SubmittedAt: raw.SubmittedAt}
	d.DeliveredAt = raw.DeliveredAt
	return nil
}
