package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FolderInfo is a loadable folder under the input root.
type FolderInfo struct {
	Name  string `json:"name"`
	Files int    `json:"files"`
}

// ListFolders returns the folders under INPUT_DIR that contain CSV files.
func (s *Service) ListFolders() ([]FolderInfo, error) {
	root := s.cfg.Upload.InputDir
	if root == "" {
		return nil, ErrFoldersDisabled
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	collate.New(language.Und).SortStrings(names)

	folders := make([]FolderInfo, 0, len(names))
	for _, name := range names {
		files, err := csvEntries(filepath.Join(root, name))
		if err != nil || len(files) == 0 {
			continue
		}
		folders = append(folders, FolderInfo{Name: name, Files: len(files)})
	}
	return folders, nil
}

// LoadFolder loads every .csv file directly inside INPUT_DIR/name, in
// collated name order. The folder name becomes the session label.
func (s *Service) LoadFolder(ctx context.Context, sessionID, name string) (*LoadResult, error) {
	root := s.cfg.Upload.InputDir
	if root == "" {
		return nil, ErrFoldersDisabled
	}
	if !validFolderName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFolder, name)
	}

	dir := filepath.Join(root, name)
	entries, err := csvEntries(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFolder, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", name, err)
	}
	if len(entries) == 0 {
		return nil, ErrNoCSVFiles
	}

	inputs := make([]FileInput, len(entries))
	for i, e := range entries {
		path := filepath.Join(dir, e.Name())
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		inputs[i] = FileInput{
			Name: e.Name(),
			Size: size,
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		}
	}
	return s.LoadFiles(ctx, sessionID, name, inputs)
}

// csvEntries lists the regular .csv files in dir, sorted.
func csvEntries(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []fs.DirEntry
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			out = append(out, e)
		}
	}

	col := collate.New(language.Und)
	slices.SortFunc(out, func(a, b fs.DirEntry) int {
		return col.CompareString(a.Name(), b.Name())
	})
	return out, nil
}

// validFolderName accepts a single path element.
func validFolderName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
