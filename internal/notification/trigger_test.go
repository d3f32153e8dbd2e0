package notification_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

func TestEncodeDecodeTrigger(t *testing.T) {
	date := time.Date(2026, 12, 24, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		trigger notification.Trigger
		kind    string
	}{
		{name: "immediate", trigger: notification.Immediate{}, kind: notification.KindImmediate},
		{name: "at", trigger: notification.At{Date: date}, kind: notification.KindAt},
		{name: "at repeating", trigger: notification.At{Date: date, Repeat: true}, kind: notification.KindAt},
		{name: "after", trigger: notification.After{Delay: 300 * time.Second}, kind: notification.KindAfter},
		{name: "after repeating", trigger: notification.After{Delay: 90 * time.Second, Repeat: true}, kind: notification.KindAfter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := notification.EncodeTrigger(tt.trigger)
			assert.Equal(t, tt.kind, spec.Kind)
			assert.Equal(t, tt.trigger.Repeats(), spec.Repeats)

			got, err := notification.DecodeTrigger(spec)
			require.NoError(t, err)
			assert.Equal(t, tt.trigger, got)
		})
	}
}

func TestEncodeTrigger_NilIsImmediate(t *testing.T) {
	assert.Equal(t, notification.KindImmediate, notification.EncodeTrigger(nil).Kind)
}

func TestDecodeTrigger_Errors(t *testing.T) {
	_, err := notification.DecodeTrigger(notification.TriggerSpec{Kind: "calendar"})
	assert.Error(t, err)

	_, err = notification.DecodeTrigger(notification.TriggerSpec{Kind: notification.KindAt})
	assert.Error(t, err)
}

func TestValidateTrigger(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		trigger notification.Trigger
		wantErr bool
	}{
		{name: "immediate", trigger: notification.Immediate{}},
		{name: "nil", trigger: nil},
		{name: "future date", trigger: notification.At{Date: now.Add(time.Minute)}},
		{name: "past date", trigger: notification.At{Date: now.Add(-time.Minute)}, wantErr: true},
		{name: "date equal to now", trigger: notification.At{Date: now}, wantErr: true},
		{name: "past repeating date", trigger: notification.At{Date: now.Add(-time.Hour), Repeat: true}},
		{name: "zero date", trigger: notification.At{}, wantErr: true},
		{name: "positive delay", trigger: notification.After{Delay: time.Second}},
		{name: "zero delay", trigger: notification.After{}, wantErr: true},
		{name: "negative delay", trigger: notification.After{Delay: -time.Second}, wantErr: true},
		{name: "short repeating delay", trigger: notification.After{Delay: 30 * time.Second, Repeat: true}, wantErr: true},
		{name: "minute repeating delay", trigger: notification.After{Delay: time.Minute, Repeat: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := notification.ValidateTrigger(tt.trigger, now)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFireTime(t *testing.T) {
	submitted := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	date := submitted.Add(2 * time.Hour)

	assert.Equal(t, submitted, notification.FireTime(notification.Immediate{}, submitted))
	assert.Equal(t, date, notification.FireTime(notification.At{Date: date}, submitted))
	assert.Equal(t, submitted.Add(5*time.Minute), notification.FireTime(notification.After{Delay: 5 * time.Minute}, submitted))
}

func TestRequest_JSON(t *testing.T) {
	submitted := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	req := notification.Request{
		ID:          "abc",
		Content:     notification.NewContent(notification.ContentInput{Title: "R", Body: "B"}, submitted),
		Trigger:     notification.After{Delay: 300 * time.Second},
		SubmittedAt: submitted,
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"pending"`)
	assert.Contains(t, string(data), `"delay_seconds":300`)
	assert.NotContains(t, string(data), `"subtitle"`)

	var got notification.Request
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, req.Trigger, got.Trigger)
	assert.Equal(t, req.Content.Title, got.Content.Title)
	assert.True(t, req.SubmittedAt.Equal(got.SubmittedAt))
	assert.Nil(t, got.NextFireAt)
	assert.NotContains(t, string(data), `"next_fire_at"`)

	next := submitted.Add(300 * time.Second)
	req.NextFireAt = &next
	data, err = json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"next_fire_at":"2026-05-01T12:05:00Z"`)
	require.NoError(t, json.Unmarshal(data, &got))
	require.NotNil(t, got.NextFireAt)
	assert.True(t, next.Equal(*got.NextFireAt))
}

func TestDelivered_JSON(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 5, 0, 0, time.UTC)
	d := notification.Delivered{
		Request:     notification.Request{ID: "xyz", Trigger: notification.Immediate{}},
		DeliveredAt: at,
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"delivered"`)
	assert.Contains(t, string(data), `"id":"xyz"`)

	var got notification.Delivered
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "xyz", got.ID())
	assert.True(t, at.Equal(got.DeliveredAt))
	assert.Equal(t, notification.Immediate{}, got.Request.Trigger)
}
