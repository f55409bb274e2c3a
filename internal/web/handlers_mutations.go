package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/invoicer/internal/core"
)

// maxBackupBody bounds an uploaded backup document.
const maxBackupBody = 64 << 20

// handleExportBackup downloads every saved invoice as a backup document.
func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	b, err := s.service.ExportBackup(withRequestMeta(r), &buf)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.BackupFilename(b.ExportedAt)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// handleRestoreBackup replaces every saved invoice with the posted backup.
// The request must carry confirm=true; the payload is checked first so a
// malformed file is reported even without confirmation.
func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	body := http.MaxBytesReader(w, r.Body, maxBackupBody)
	restored, err := s.service.RestoreBackup(withRequestMeta(r), body, confirm)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"restored": restored})
}
