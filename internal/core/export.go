package core

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/table"
)

// ExportFile is one serialized output file.
type ExportFile struct {
	Name string
	Data []byte
}

// SaveResult describes a server-side save.
type SaveResult struct {
	Dir     string    `json:"dir"`
	Files   []string  `json:"files"`
	Keys    int       `json:"keys"`
	SavedAt time.Time `json:"saved_at"`
}

// PreviewRow is one line of the save preview.
type PreviewRow struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Modified bool   `json:"modified"`
}

// PreviewFile is the preview of one output file.
type PreviewFile struct {
	Index int          `json:"index"`
	Name  string       `json:"name"`
	Rows  []PreviewRow `json:"rows"`
}

type output struct {
	name     string
	data     []byte
	keys     int
	modified int
}

// outputs serializes every file with trimmed values, skipping empty ones.
func (sess *Session) outputs() (label string, out []output, err error) {
	err = sess.view(func(names []string, m *table.Model) error {
		label = sess.label
		out = make([]output, len(names))
		for i, name := range names {
			o, err := serializeFile(m, i)
			if err != nil {
				return err
			}
			o.name = name
			out[i] = o
		}
		return nil
	})
	return label, out, err
}

func serializeFile(m *table.Model, file int) (output, error) {
	pairs, err := m.OutputRows(file)
	if err != nil {
		return output{}, err
	}

	var o output
	for i, p := range pairs {
		pairs[i].Value = strings.TrimSpace(p.Value)
		if pairs[i].Value == "" {
			continue
		}
		o.keys++
		if c, ok := m.Cell(file, p.Key); ok && c.Modified() {
			o.modified++
		}
	}
	o.data = []byte(csvcodec.Serialize(pairs, true))
	return o, nil
}

// Export serializes one file for download under its original name.
func (s *Service) Export(sessionID string, file int) (*ExportFile, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	var f *ExportFile
	err = sess.view(func(names []string, m *table.Model) error {
		if file < 0 || file >= len(names) {
			return fmt.Errorf("%w: %d", table.ErrFileIndex, file)
		}
		o, err := serializeFile(m, file)
		if err != nil {
			return err
		}
		f = &ExportFile{Name: names[file], Data: o.data}
		return nil
	})
	return f, err
}

// ExportAll packs every file into one zip named after the save folder.
func (s *Service) ExportAll(ctx context.Context, sessionID string) (*ExportFile, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	label, outs, err := sess.outputs()
	if err != nil {
		return nil, err
	}

	now := s.now()
	folder := saveFolderName(label, now)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := uniqueNames(outs)
	for i, o := range outs {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     folder + "/" + names[i],
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", names[i], err)
		}
		if _, err := w.Write(o.data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", names[i], err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}

	s.recordSave(ctx, sessionID, label, "download", "", names, outs, now)
	return &ExportFile{Name: folder + ".zip", Data: buf.Bytes()}, nil
}

// SaveToDir writes every file into a new timestamped folder under OUTPUT_DIR.
// Without an output directory it returns ErrUserCancelled and the caller
// falls back to downloads.
func (s *Service) SaveToDir(ctx context.Context, sessionID string) (*SaveResult, error) {
	root := s.cfg.Output.Dir
	if root == "" {
		return nil, ErrUserCancelled
	}
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	label, outs, err := sess.outputs()
	if err != nil {
		return nil, err
	}

	now := s.now()
	dir := filepath.Join(root, saveFolderName(label, now))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save folder: %w", err)
	}

	names := uniqueNames(outs)
	res := &SaveResult{Dir: dir, Files: names, SavedAt: now}
	for i, o := range outs {
		if err := os.WriteFile(filepath.Join(dir, names[i]), o.data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", names[i], err)
		}
		res.Keys += o.keys
	}

	logging.ForSession(ctx, sessionID).Info("files saved", "dir", dir, "files", len(names))
	s.recordSave(ctx, sessionID, label, "folder", dir, names, outs, now)
	return res, nil
}

// Preview lists what a save would write: per file, the non-empty rows with
// their modified flag.
func (s *Service) Preview(sessionID string) ([]PreviewFile, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	var files []PreviewFile
	err = sess.view(func(names []string, m *table.Model) error {
		files = make([]PreviewFile, len(names))
		for i, name := range names {
			pairs, err := m.OutputRows(i)
			if err != nil {
				return err
			}
			pf := PreviewFile{Index: i, Name: name, Rows: []PreviewRow{}}
			for _, p := range pairs {
				v := strings.TrimSpace(p.Value)
				if v == "" {
					continue
				}
				c, _ := m.Cell(i, p.Key)
				pf.Rows = append(pf.Rows, PreviewRow{Key: p.Key, Value: v, Modified: c.Modified()})
			}
			files[i] = pf
		}
		return nil
	})
	return files, err
}

func (s *Service) recordSave(ctx context.Context, sessionID, label, kind, dir string, names []string, outs []output, at time.Time) {
	rec := SaveRecord{
		ID:        uuid.New(),
		SessionID: sessionID,
		Label:     label,
		Kind:      kind,
		Dir:       dir,
		Files:     names,
		SavedAt:   at,
	}
	for _, o := range outs {
		rec.Keys += o.keys
		rec.Modified += o.modified
	}
	if err := s.history.RecordSave(ctx, rec); err != nil {
		logging.ForSession(ctx, sessionID).Warn("save history not recorded", "error", err)
	}
}

// saveFolderName is "<label>_modified_<UTC ISO timestamp>" with ':' and '.'
// replaced by '-' so it is a valid file name everywhere.
func saveFolderName(label string, t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return label + "_modified_" + ts
}

// uniqueNames returns the output file names, suffixing repeats with " (n)".
func uniqueNames(outs []output) []string {
	seen := make(map[string]int, len(outs))
	names := make([]string, len(outs))
	for i, o := range outs {
		name := filepath.Base(o.name)
		if n := seen[name]; n > 0 {
			ext := filepath.Ext(name)
			names[i] = strings.TrimSuffix(name, ext) + " (" + strconv.Itoa(n+1) + ")" + ext
		} else {
			names[i] = name
		}
		seen[name]++
	}
	return names
}
