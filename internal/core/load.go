package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/table"
)

// FileInput is one file of a selection. Size is the declared size used for
// the up-front ceiling check; the read itself is bounded as well.
type FileInput struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// BytesInput wraps in-memory content as a FileInput.
func BytesInput(name string, data []byte) FileInput {
	return FileInput{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// LoadResult is the grid installed by a successful load.
type LoadResult struct {
	Label    string                        `json:"label"`
	Grid     table.Grid                    `json:"grid"`
	Warnings map[string][]csvcodec.Warning `json:"warnings,omitempty"`
	Duration time.Duration                 `json:"-"`
}

type loadedFile struct {
	rows     []csvcodec.Row
	warnings []csvcodec.Warning
	err      error
}

// LoadFiles replaces the session's file set with files.
//
// The session is reset first. Files over the size ceiling are rejected
// together before anything is read. The rest are read and parsed
// concurrently; the grid is installed only if every file succeeded, with
// columns in input order. Otherwise a *LoadError lists every failure and the
// session stays empty. A load overtaken by another reset returns
// ErrStaleSession and changes nothing.
func (s *Service) LoadFiles(ctx context.Context, sessionID, label string, files []FileInput) (*LoadResult, error) {
	start := time.Now()

	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if n := s.cfg.Upload.MaxFiles; n > 0 && len(files) > n {
		return nil, fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(files), n)
	}
	if label == "" {
		label = s.cfg.Output.Label
	}

	gen := sess.Reset()

	limit := s.cfg.Upload.MaxFileSize
	var oversize []string
	for _, f := range files {
		if f.Size > limit {
			oversize = append(oversize, f.Name)
		}
	}
	if len(oversize) > 0 {
		return nil, &FileTooLargeError{Names: oversize, Limit: limit}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}

	loaded := make([]loadedFile, len(files))
	var g errgroup.Group
	g.SetLimit(max(s.cfg.Upload.ReadConcurrency, 1))
	for i, f := range files {
		g.Go(func() error {
			loaded[i] = readAndParse(ctx, f, limit)
			return nil
		})
	}
	_ = g.Wait()

	if sess.Generation() != gen {
		return nil, ErrStaleSession
	}

	var failures []FileFailure
	for i, lf := range loaded {
		if lf.err != nil {
			failures = append(failures, FileFailure{Index: i, Name: files[i].Name, Err: lf.err})
		}
	}
	if len(failures) > 0 {
		return nil, &LoadError{Failures: failures}
	}

	log := logging.ForSession(ctx, sessionID)
	datasets := make([]*table.Dataset, len(files))
	names := make([]string, len(files))
	warnings := make(map[string][]csvcodec.Warning)
	for i, lf := range loaded {
		names[i] = files[i].Name
		datasets[i] = &table.Dataset{Index: i, Name: files[i].Name, Rows: lf.rows}
		if len(lf.warnings) > 0 {
			warnings[files[i].Name] = append(warnings[files[i].Name], lf.warnings...)
		}
		for _, w := range lf.warnings {
			log.Warn("csv warning", "file", files[i].Name, "kind", w.Kind, "line", w.Line, "message", w.Message)
		}
	}

	model := table.New(datasets)
	grid := model.Snapshot()
	if err := sess.install(gen, label, names, model, warnings); err != nil {
		return nil, err
	}

	res := &LoadResult{
		Label:    label,
		Grid:     grid,
		Warnings: warnings,
		Duration: time.Since(start),
	}
	log.Info("files loaded",
		"files", len(files),
		"keys", res.Grid.Stats.Keys,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func readAndParse(ctx context.Context, f FileInput, limit int64) loadedFile {
	if err := ctx.Err(); err != nil {
		return loadedFile{err: &FileReadError{Name: f.Name, Err: err}}
	}
	content, err := readInput(f, limit)
	if err != nil {
		return loadedFile{err: err}
	}
	res, err := csvcodec.Parse(content)
	if err != nil {
		return loadedFile{err: err}
	}
	return loadedFile{rows: res.Rows, warnings: res.Warnings}
}

// readInput reads at most limit bytes of f. A file that turns out larger than
// declared fails with FileTooLargeError.
func readInput(f FileInput, limit int64) (string, error) {
	if f.Open == nil {
		return "", &FileReadError{Name: f.Name, Err: ErrNoFiles}
	}
	rc, err := f.Open()
	if err != nil {
		return "", &FileReadError{Name: f.Name, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return "", &FileReadError{Name: f.Name, Err: err}
	}
	if int64(len(data)) > limit {
		return "", &FileTooLargeError{Names: []string{f.Name}, Limit: limit}
	}
	return string(data), nil
}
