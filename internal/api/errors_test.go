package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/notifyd/internal/service"
)

func TestHttpErr(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "not authorized maps to 403", err: service.ErrNotAuthorized, expectedStatus: http.StatusForbidden},
		{name: "invalid date maps to 400", err: service.ErrInvalidDate, expectedStatus: http.StatusBadRequest},
		{name: "failed to send maps to 502", err: service.ErrFailedToSend, expectedStatus: http.StatusBadGateway},
		{name: "failed to schedule maps to 502", err: service.ErrFailedToSchedule, expectedStatus: http.StatusBadGateway},
		{name: "wrapped sentinel", err: fmt.Errorf("snooze: %w", service.ErrFailedToSchedule), expectedStatus: http.StatusBadGateway},
		{name: "NotFoundError maps to 404", err: &service.NotFoundError{Resource: "notification", ID: "abc"}, expectedStatus: http.StatusNotFound},
		{name: "ValidationError maps to 400", err: &service.ValidationError{Field: "title", Message: "required"}, expectedStatus: http.StatusBadRequest},
		{name: "generic error maps to 500", err: errors.New("something went wrong"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			httpErr(rec, tt.err)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var body map[string]string
			err := json.Unmarshal(rec.Body.Bytes(), &body)
			assert.NoError(t, err)
			assert.NotEmpty(t, body["error"])
		})
	}
}
