package api

import "net/http"

// PermissionResponse reports whether notifications are authorized.
type PermissionResponse struct {
	Authorized bool `json:"authorized"`
}

func (s *Server) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PermissionResponse{Authorized: s.commandSvc.PermissionStatus(r.Context())})
}

// handleRequestPermission blocks until the notification center has decided.
func (s *Server) handleRequestPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PermissionResponse{Authorized: s.commandSvc.RequestPermission(r.Context())})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.commandSvc.Categories(r.Context()))
}
