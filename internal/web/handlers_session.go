package web

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/locgrid/internal/core"
	"github.com/JonMunkholm/locgrid/internal/logging"
)

// multipartMemory is how much of an upload is kept in memory before the
// rest spills to temp files.
const multipartMemory = 32 << 20

// handleCreateSession starts a new editor session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.service.CreateSession()
	logging.ForSession(r.Context(), sess.ID).Debug("session created")

	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"session_id":          sess.ID,
		"translation_enabled": s.service.TranslationEnabled(),
	})
}

// handleCloseSession drops a session and cancels its translation jobs.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CloseSession(chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLoadFiles replaces the session's files with the multipart "files"
// parts. An optional "label" names the folder the files came from; with a
// label only .csv files are kept, as for a folder opened on the server.
func (s *Server) handleLoadFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	limit := s.cfg.Upload.MaxFileSize*int64(s.cfg.Upload.MaxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.fail(w, r, &requestError{err: err})
		return
	}
	defer r.MultipartForm.RemoveAll()

	label := folderLabel(r.FormValue("label"))
	parts := r.MultipartForm.File["files"]

	inputs := make([]core.FileInput, 0, len(parts))
	for _, fh := range parts {
		name := baseName(fh.Filename)
		if label != "" && !strings.HasSuffix(name, ".csv") {
			continue
		}
		inputs = append(inputs, core.FileInput{
			Name: name,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	if label != "" && len(parts) > 0 && len(inputs) == 0 {
		s.fail(w, r, core.ErrNoCSVFiles)
		return
	}

	res, err := s.service.LoadFiles(r.Context(), sessionID, label, inputs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

type loadFolderRequest struct {
	Folder string `json:"folder"`
}

// handleLoadFolder loads a folder from the server's input directory.
func (s *Server) handleLoadFolder(w http.ResponseWriter, r *http.Request) {
	var req loadFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.service.LoadFolder(r.Context(), chi.URLParam(r, "sessionID"), req.Folder)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleListFolders lists the folders that can be opened on the server.
func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.service.ListFolders()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if folders == nil {
		folders = []core.FolderInfo{}
	}
	writeJSON(w, map[string]any{"folders": folders})
}

// baseName strips any client-side directory from an upload name. Folder
// selections send "folder/file.csv".
func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

// folderLabel keeps the top directory of a relative path such as
// "shop/de.csv", or the value itself when it has no slash.
func folderLabel(v string) string {
	v = strings.Trim(strings.ReplaceAll(strings.TrimSpace(v), `\`, "/"), "/")
	if v == "" {
		return ""
	}
	top, _, _ := strings.Cut(v, "/")
	if top == "." || top == ".." {
		return ""
	}
	return top
}
