// Package table merges per-language datasets into one editable grid.
//
// The grid has one row per key in the key universe and one column per file.
// Each (file, key) pair is a GridCell carrying the value as loaded and the
// value as edited. Edits are written through to the backing dataset rows so
// the dataset always reflects what will be saved.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
)

var (
	// ErrFileIndex is returned for a file index outside the loaded file set.
	ErrFileIndex = errors.New("file index out of range")

	// ErrInvalidKey is returned for empty keys and the header sentinel.
	ErrInvalidKey = errors.New("invalid translation key")
)

// Dataset is the parsed content of one file.
type Dataset struct {
	Index int
	Name  string
	Rows  []csvcodec.Row
}

// GridCell is the editable value for one (file, key) pair.
//
// Modified is the authoritative change signal. Unmodified is the display hint
// the editor styles cells with: at load time it is set when the original
// value is non-empty, not when it equals anything. After an edit it tracks
// Current == Original exactly (untrimmed). The two signals disagree for cells
// loaded empty and for whitespace-only edits; that is known and kept.
type GridCell struct {
	Current    string `json:"value"`
	Original   string `json:"original"`
	Unmodified bool   `json:"unmodified"`
}

// Modified reports whether the trimmed current value differs from the trimmed
// original.
func (c GridCell) Modified() bool {
	return strings.TrimSpace(c.Current) != strings.TrimSpace(c.Original)
}

// CellRef addresses one grid cell.
type CellRef struct {
	File int    `json:"file"`
	Key  string `json:"key"`
}

type cellID struct {
	file int
	key  string
}

// Model is the grid built from a set of datasets. It is not safe for
// concurrent use; callers serialize access.
type Model struct {
	files []*Dataset
	keys  []string
	cells map[cellID]*GridCell
}

// New builds the grid. Datasets are re-indexed by position, so datasets[i]
// becomes file i.
func New(datasets []*Dataset) *Model {
	m := &Model{
		files: make([]*Dataset, len(datasets)),
		cells: make(map[cellID]*GridCell),
	}
	for i, d := range datasets {
		if d == nil {
			d = &Dataset{}
		}
		d.Index = i
		m.files[i] = d
	}

	m.keys = BuildKeyUniverse(m.files)
	for _, k := range m.keys {
		m.addCells(k)
	}
	return m
}

func (m *Model) addCells(key string) {
	for i, d := range m.files {
		v := LookupTranslation(d, key)
		m.cells[cellID{i, key}] = &GridCell{
			Current:    v,
			Original:   v,
			Unmodified: strings.TrimSpace(v) != "",
		}
	}
}

// FileCount returns the number of files in the grid.
func (m *Model) FileCount() int {
	return len(m.files)
}

// Keys returns a copy of the key universe in display order.
func (m *Model) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Dataset returns the backing dataset of file i.
func (m *Model) Dataset(i int) (*Dataset, error) {
	if i < 0 || i >= len(m.files) {
		return nil, fmt.Errorf("%w: %d", ErrFileIndex, i)
	}
	return m.files[i], nil
}

// Cell returns the grid cell for (file, key).
func (m *Model) Cell(file int, key string) (GridCell, bool) {
	c, ok := m.cells[cellID{file, key}]
	if !ok {
		return GridCell{}, false
	}
	return *c, true
}

// Value returns the current value of (file, key), or "".
func (m *Model) Value(file int, key string) string {
	c, _ := m.Cell(file, key)
	return c.Current
}

// ApplyEdit sets the value of (file, key). A key the dataset does not contain
// gets a new [key, ""] row first, so every edited key is saved. A key outside
// the universe joins it.
func (m *Model) ApplyEdit(file int, key, value string) (GridCell, error) {
	d, err := m.Dataset(file)
	if err != nil {
		return GridCell{}, err
	}
	if key == "" || key == csvcodec.HeaderKey {
		return GridCell{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	if _, ok := m.cells[cellID{file, key}]; !ok {
		m.keys = append(m.keys, key)
		sortKeys(m.keys)
		m.addCells(key)
	}

	idx := -1
	for i, row := range d.Rows {
		if row.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.Rows = append(d.Rows, csvcodec.Row{key, ""})
		idx = len(d.Rows) - 1
	}
	for len(d.Rows[idx]) < 2 {
		d.Rows[idx] = append(d.Rows[idx], "")
	}
	d.Rows[idx][1] = value

	c := m.cells[cellID{file, key}]
	c.Current = value
	c.Unmodified = value == c.Original
	return *c, nil
}

// ApplyTranslation writes a machine-filled value. It follows the same rules
// as a user edit: a result equal to the original shows as unmodified again.
func (m *Model) ApplyTranslation(file int, key, value string) (GridCell, error) {
	return m.ApplyEdit(file, key, value)
}

// OutputRows returns the pairs to save for file, in key-universe order.
func (m *Model) OutputRows(file int) ([]csvcodec.Pair, error) {
	if _, err := m.Dataset(file); err != nil {
		return nil, err
	}
	out := make([]csvcodec.Pair, 0, len(m.keys))
	for _, k := range m.keys {
		if k == csvcodec.HeaderKey {
			continue
		}
		out = append(out, csvcodec.Pair{Key: k, Value: m.Value(file, k)})
	}
	return out, nil
}

// Candidates returns the cells a bulk machine translation should fill: cells
// that are empty or still show as unmodified. A whitespace-only edit clears
// the display hint, so that cell is kept. Order is row-major, as the grid is
// read.
func (m *Model) Candidates() []CellRef {
	var refs []CellRef
	for _, k := range m.keys {
		for i := range m.files {
			c := m.cells[cellID{i, k}]
			if strings.TrimSpace(c.Current) == "" || c.Unmodified {
				refs = append(refs, CellRef{File: i, Key: k})
			}
		}
	}
	return refs
}
