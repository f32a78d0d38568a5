package server

import "net/http"

type maintenanceRequest struct {
	Maintenance bool `json:"maintenance"`
}

func (s *Server) handleAdminMaintenance(w http.ResponseWriter, r *http.Request, _, _ string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req maintenanceRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.SetMaintenance(req.Maintenance); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"maintenance": req.Maintenance})
}

type announcementRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) handleAdminAnnouncement(w http.ResponseWriter, r *http.Request, _, _ string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req announcementRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	count, err := s.app.Announce(req.Subject, req.Body)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recipients": count})
}

func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request, _, _ string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	url, err := s.app.Export(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
