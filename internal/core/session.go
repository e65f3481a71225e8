package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
	"github.com/JonMunkholm/locgrid/internal/table"
)

// Session is the state of one editor: the loaded files and their grid.
//
// All access goes through the session mutex. The generation counter is bumped
// by Reset; operations that suspend capture it first and write back only when
// it is unchanged.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	gen      uint64
	label    string
	names    []string
	model    *table.Model
	warnings map[string][]csvcodec.Warning
	lastUsed time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, lastUsed: now}
}

// Reset drops the loaded files and starts a new generation, which it returns.
func (s *Session) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.label = ""
	s.names = nil
	s.model = nil
	s.warnings = nil
	return s.gen
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Loaded reports whether a file set is installed.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model != nil
}

// Label names the loaded file set: the folder name, or the configured
// fallback for loose files.
func (s *Session) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

func (s *Session) FileNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Warnings returns the parse warnings of the loaded files by file name.
func (s *Session) Warnings() map[string][]csvcodec.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]csvcodec.Warning, len(s.warnings))
	for k, v := range s.warnings {
		out[k] = append([]csvcodec.Warning(nil), v...)
	}
	return out
}

// Table returns a snapshot of the grid.
func (s *Session) Table() (table.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return table.Grid{}, ErrNotLoaded
	}
	return s.model.Snapshot(), nil
}

// install sets the loaded file set if gen is still current.
func (s *Session) install(gen uint64, label string, names []string, m *table.Model, warnings map[string][]csvcodec.Warning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrStaleSession
	}
	s.label = label
	s.names = names
	s.model = m
	s.warnings = warnings
	return nil
}

// view runs fn with the loaded grid under the session lock.
func (s *Session) view(fn func(names []string, m *table.Model) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ErrNotLoaded
	}
	return fn(s.names, s.model)
}

func (s *Session) edit(file int, key, value string) (table.GridCell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return table.GridCell{}, ErrNotLoaded
	}
	return s.model.ApplyEdit(file, key, value)
}

// applyMachine writes a machine translation started under gen.
func (s *Session) applyMachine(gen uint64, file int, key, value string) (table.GridCell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return table.GridCell{}, ErrStaleSession
	}
	if s.model == nil {
		return table.GridCell{}, ErrNotLoaded
	}
	return s.model.ApplyTranslation(file, key, value)
}

// fileName returns the name of column file together with the generation it
// was read under.
func (s *Session) fileName(file int) (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return "", s.gen, ErrNotLoaded
	}
	if file < 0 || file >= len(s.names) {
		return "", s.gen, fmt.Errorf("%w: %d", table.ErrFileIndex, file)
	}
	return s.names[file], s.gen, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
