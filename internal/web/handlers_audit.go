package web

import (
	"net/http"

	"github.com/JonMunkholm/invoicer/internal/core"
)

// maxAuditLimit caps the limit query parameter.
const maxAuditLimit = 500

// handleAuditLog returns recent audit entries, newest first.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", core.DefaultAuditLimit), maxAuditLimit)

	entries, err := s.service.AuditLog(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
