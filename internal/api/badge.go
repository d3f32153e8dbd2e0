package api

import "net/http"

func (s *Server) handleGetBadge(w http.ResponseWriter, r *http.Request) {
	n, err := s.commandSvc.Badge(r.Context())
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (s *Server) handleSetBadge(w http.ResponseWriter, r *http.Request) {
	var req CountResponse
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.commandSvc.SetBadge(r.Context(), req.Count); err != nil {
		httpErr(w, err)
		return
	}
	if req.Count < 0 {
		req.Count = 0
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleClearBadge(w http.ResponseWriter, r *http.Request) {
	if err := s.commandSvc.ClearBadge(r.Context()); err != nil {
		httpErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
