package api

import (
	"net/http"
	"strconv"

	"github.com/shaharia-lab/notifyd/internal/storage"
)

const defaultDeliveryLogLimit = 50

// handleListDeliveryLog returns recent presentation attempts.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListDeliveryLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultDeliveryLogLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	if s.deliveryLog == nil {
		writeJSON(w, http.StatusOK, []storage.DeliveryLogEntry{})
		return
	}
	entries, err := s.deliveryLog.ListDeliveries(r.Context(), limit)
	if err != nil {
		s.logger.Error("list delivery log failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list delivery log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
