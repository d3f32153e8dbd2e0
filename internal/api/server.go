// Package api implements the HTTP command surface of notifyd.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/notifyd/internal/service"
	"github.com/shaharia-lab/notifyd/internal/storage"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	commandSvc  service.CommandService
	actionSvc   service.ActionService
	deliveryLog storage.DeliveryLogStore
	logger      *slog.Logger
}

// New creates a new API Server backed by the provided services.
// deliveryLog may be nil, in which case the delivery log route returns an empty list.
func New(
	commandSvc service.CommandService,
	actionSvc service.ActionService,
	deliveryLog storage.DeliveryLogStore,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		commandSvc:  commandSvc,
		actionSvc:   actionSvc,
		deliveryLog: deliveryLog,
		logger:      logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Notifications
	r.Post("/notifications/send", s.handleSend)
	r.Post("/notifications/schedule", s.handleSchedule)
	r.Post("/notifications/delayed", s.handleScheduleDelayed)
	r.Get("/notifications/pending", s.handleListPending)
	r.Get("/notifications/pending/count", s.handlePendingCount)
	r.Get("/notifications/delivered", s.handleListDelivered)
	r.Post("/notifications/delivered/{id}/actions", s.handleAction)
	r.Delete("/notifications/{id}", s.handleCancel)
	r.Delete("/notifications", s.handleCancelAll)
	r.Delete("/threads/{threadID}/notifications", s.handleCancelThread)

	// Badge
	r.Get("/badge", s.handleGetBadge)
	r.Put("/badge", s.handleSetBadge)
	r.Delete("/badge", s.handleClearBadge)

	// Permission and categories
	r.Get("/permission", s.handleGetPermission)
	r.Post("/permission", s.handleRequestPermission)
	r.Get("/categories", s.handleListCategories)

	r.Get("/delivery-log", s.handleListDeliveryLog)
	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// httpErr maps service errors to HTTP status codes.
func httpErr(w http.ResponseWriter, err error) {
	var (
		nfe *service.NotFoundError
		ve  *service.ValidationError
	)
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrFailedToSend), errors.Is(err, service.ErrFailedToSchedule):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return false
	}
	return true
}
