package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/notifyd/internal/service"
)

// IDResponse is returned for commands that create a pending notification.
type IDResponse struct {
	ID string `json:"id"`
}

// CountResponse carries a single count.
type CountResponse struct {
	Count int `json:"count"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req service.SendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.commandSvc.Send(r.Context(), req); err != nil {
		s.logger.Warn("send notification failed", "error", err)
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "sent"})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req service.ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.commandSvc.Schedule(r.Context(), req)
	if err != nil {
		s.logger.Warn("schedule notification failed", "error", err)
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (s *Server) handleScheduleDelayed(w http.ResponseWriter, r *http.Request) {
	var req service.DelayedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.commandSvc.ScheduleDelayed(r.Context(), req)
	if err != nil {
		s.logger.Warn("schedule delayed notification failed", "error", err)
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.commandSvc.ListPending(r.Context())
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handlePendingCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.commandSvc.PendingCount(r.Context())
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (s *Server) handleListDelivered(w http.ResponseWriter, r *http.Request) {
	delivered, err := s.commandSvc.ListDelivered(r.Context())
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delivered)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var resp service.ActionResponse
	if !decodeJSON(w, r, &resp) {
		return
	}
	resp.NotificationID = chi.URLParam(r, "id")

	result, err := s.actionSvc.Handle(r.Context(), resp)
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.commandSvc.Cancel(r.Context(), id); err != nil {
		httpErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.commandSvc.CancelAll(r.Context())
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (s *Server) handleCancelThread(w http.ResponseWriter, r *http.Request) {
	n, err := s.commandSvc.CancelByThread(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}
