package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
	"github.com/JonMunkholm/locgrid/internal/table"
)

type tableResponse struct {
	Label    string                        `json:"label"`
	Grid     table.Grid                    `json:"grid"`
	Warnings map[string][]csvcodec.Warning `json:"warnings,omitempty"`
}

// handleTable returns the session's current grid.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	grid, err := sess.Table()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, tableResponse{
		Label:    sess.Label(),
		Grid:     grid,
		Warnings: sess.Warnings(),
	})
}

type editCellRequest struct {
	File  int    `json:"file"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type cellResponse struct {
	File     int    `json:"file"`
	Key      string `json:"key"`
	Modified bool   `json:"modified"`
	table.GridCell
}

// handleEditCell writes a user-typed value into one cell.
func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	var req editCellRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	cell, err := s.service.EditCell(chi.URLParam(r, "sessionID"), req.File, req.Key, req.Value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, cellResponse{
		File:     req.File,
		Key:      req.Key,
		Modified: cell.Modified(),
		GridCell: cell,
	})
}

type translateCellRequest struct {
	File int    `json:"file"`
	Key  string `json:"key"`
}

// handleTranslateCell machine-translates one cell. An API failure is part
// of the 200 response so the editor can flag the cell.
func (s *Server) handleTranslateCell(w http.ResponseWriter, r *http.Request) {
	var req translateCellRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.service.TranslateCell(r.Context(), chi.URLParam(r, "sessionID"), req.File, req.Key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}
