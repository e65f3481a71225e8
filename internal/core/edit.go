package core

import (
	"context"
	"errors"

	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/table"
	"github.com/JonMunkholm/locgrid/internal/translate"
)

// Cell translation statuses shown on the cell until RevertAfterMs passes.
const (
	CellStatusSuccess = "success"
	CellStatusError   = "error"
)

// Table returns the session's grid snapshot.
func (s *Service) Table(sessionID string) (table.Grid, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return table.Grid{}, err
	}
	return sess.Table()
}

// EditCell sets one cell to a user-typed value.
func (s *Service) EditCell(sessionID string, file int, key, value string) (table.GridCell, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return table.GridCell{}, err
	}
	return sess.edit(file, key, value)
}

// CellTranslation is the outcome of a per-cell machine translation.
type CellTranslation struct {
	Status        string          `json:"status"`
	Value         string          `json:"value"`
	Cell          *table.GridCell `json:"cell,omitempty"`
	Target        string          `json:"target"`
	Error         string          `json:"error,omitempty"`
	RevertAfterMs int64           `json:"revert_after_ms"`
}

// TranslateCell translates the key of (file, key) into the column's language
// and writes the result into the cell.
//
// A failed API call is reported in the returned CellTranslation with status
// "error", not as an error. Errors are returned for a missing session or
// column, and ErrStaleSession when the files were reloaded during the call.
func (s *Service) TranslateCell(ctx context.Context, sessionID string, file int, key string) (*CellTranslation, error) {
	if s.translator == nil {
		return nil, ErrNoTranslator
	}
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	name, gen, err := sess.fileName(file)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, table.ErrInvalidKey
	}

	target := s.aliases.Infer(name)
	source := s.cfg.Translate.SourceLanguage
	text, err := s.queue.Submit(ctx, func(ctx context.Context) (string, error) {
		return translate.Text(ctx, s.translator, s.aliases, key, source, target)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		logging.ForSession(ctx, sessionID).Warn("cell translation failed",
			"file", name,
			"key", key,
			"target", target,
			"error", err,
		)
		return &CellTranslation{
			Status:        CellStatusError,
			Target:        target,
			Error:         FormatUserError(err),
			RevertAfterMs: s.cfg.Translate.CellErrorRevert.Milliseconds(),
		}, nil
	}

	cell, err := sess.applyMachine(gen, file, key, text)
	if err != nil {
		return nil, err
	}
	return &CellTranslation{
		Status:        CellStatusSuccess,
		Value:         text,
		Cell:          &cell,
		Target:        target,
		RevertAfterMs: s.cfg.Translate.CellSuccessRevert.Milliseconds(),
	}, nil
}
