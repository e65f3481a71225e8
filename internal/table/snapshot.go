package table

// FileInfo describes one grid column.
type FileInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// GridRow is one key with a cell per file, in file order.
type GridRow struct {
	Key   string     `json:"key"`
	Cells []GridCell `json:"cells"`
}

// Grid is a read-only copy of the model for rendering and JSON.
type Grid struct {
	Files []FileInfo `json:"files"`
	Rows  []GridRow  `json:"rows"`
	Stats Stats      `json:"stats"`
}

// Stats summarizes the grid.
type Stats struct {
	Keys     int `json:"keys"`
	Files    int `json:"files"`
	Empty    int `json:"empty"`
	Modified int `json:"modified"`
}

// Files returns the grid columns.
func (m *Model) Files() []FileInfo {
	out := make([]FileInfo, len(m.files))
	for i, d := range m.files {
		out[i] = FileInfo{Index: i, Name: d.Name}
	}
	return out
}

// Snapshot copies the grid. Later edits do not affect the returned value.
func (m *Model) Snapshot() Grid {
	g := Grid{
		Files: m.Files(),
		Rows:  make([]GridRow, 0, len(m.keys)),
	}
	for _, k := range m.keys {
		row := GridRow{Key: k, Cells: make([]GridCell, len(m.files))}
		for i := range m.files {
			c := *m.cells[cellID{i, k}]
			row.Cells[i] = c
			if c.Current == "" {
				g.Stats.Empty++
			}
			if c.Modified() {
				g.Stats.Modified++
			}
		}
		g.Rows = append(g.Rows, row)
	}
	g.Stats.Keys = len(m.keys)
	g.Stats.Files = len(m.files)
	return g
}
