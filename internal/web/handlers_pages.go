package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/locgrid/internal/core"
	"github.com/JonMunkholm/locgrid/internal/lang"
	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/web/templates"
)

// handleEditor renders the editor page.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	params := templates.EditorParams{
		Targets:            lang.Targets(),
		TranslationEnabled: s.service.TranslationEnabled(),
		SaveToServer:       s.cfg.Output.Dir != "",
		MaxFileSize:        s.cfg.Upload.MaxFileSize,
		MaxFiles:           s.cfg.Upload.MaxFiles,
	}

	folders, err := s.service.ListFolders()
	switch {
	case err == nil:
		params.FoldersEnabled = true
		params.Folders = folders
	case !errors.Is(err, core.ErrFoldersDisabled):
		logging.FromContext(r.Context()).Warn("listing folders failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.EditorPage(params).Render(r.Context(), w)
}

// handlePreviewPage renders what a save would write.
func (s *Server) handlePreviewPage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.service.Session(sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	files, err := s.service.Preview(sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	label := sess.Label()
	if label == "" {
		label = s.cfg.Output.Label
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.PreviewPage(templates.PreviewParams{
		SessionID: sessionID,
		Label:     label,
		Files:     files,
	}).Render(r.Context(), w)
}

// handleLanguages lists the bulk translation targets.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"source":              s.cfg.Translate.SourceLanguage,
		"targets":             lang.Targets(),
		"translation_enabled": s.service.TranslationEnabled(),
	})
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// handleHistory returns recent saves, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	saves, err := s.service.History().RecentSaves(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if saves == nil {
		saves = []core.SaveRecord{}
	}
	writeJSON(w, map[string]any{"saves": saves})
}

// handleHealth reports liveness plus load and queue pressure.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":              "ok",
		"sessions":            s.service.SessionCount(),
		"loads":               s.service.LimiterStatus(),
		"translate_pending":   s.service.QueuePending(),
		"translation_enabled": s.service.TranslationEnabled(),
	})
}

// parseIntParam parses a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
