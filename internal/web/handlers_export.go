package web

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/locgrid/internal/core"
	"github.com/JonMunkholm/locgrid/internal/logging"
)

// handleExportFile downloads one output file.
func (s *Server) handleExportFile(w http.ResponseWriter, r *http.Request) {
	file, err := strconv.Atoi(chi.URLParam(r, "file"))
	if err != nil {
		s.fail(w, r, &requestError{err: err})
		return
	}

	f, err := s.service.Export(chi.URLParam(r, "sessionID"), file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeAttachment(w, f, "text/csv; charset=utf-8")
}

// handleExportAll downloads every output file in one zip.
func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	f, err := s.service.ExportAll(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeAttachment(w, f, "application/zip")
}

type saveResponse struct {
	Saved    bool `json:"saved"`
	Fallback bool `json:"fallback,omitempty"`
	// Download is the zip URL the editor fetches when the save falls back
	Download string `json:"download,omitempty"`
	*core.SaveResult
}

// handleSave writes the output files on the server. Without an output
// directory it answers with the download URL instead of an error.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	res, err := s.service.SaveToDir(r.Context(), sessionID)
	if errors.Is(err, core.ErrUserCancelled) {
		logging.ForSession(r.Context(), sessionID).Debug("save falling back to download")
		writeJSON(w, saveResponse{
			Fallback: true,
			Download: "/api/session/" + sessionID + "/export",
		})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, saveResponse{Saved: true, SaveResult: res})
}

func writeAttachment(w http.ResponseWriter, f *core.ExportFile, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Write(f.Data)
}
