package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrStaleSession       = errors.New("stale session: files were reloaded")
	ErrNotLoaded          = errors.New("no files loaded")
	ErrNoFiles            = errors.New("no file provided")
	ErrTooManyFiles       = errors.New("too many files selected")
	ErrNothingToTranslate = errors.New("nothing to translate: no empty or unmodified translations found")
	ErrJobNotFound        = errors.New("translation job not found")
	ErrNoTranslator       = errors.New("translation is not configured")

	// ErrUserCancelled means no server-side destination was chosen. The
	// editor falls back to downloads without reporting an error.
	ErrUserCancelled = errors.New("save cancelled")

	ErrFoldersDisabled = errors.New("folder loading is not configured")
	ErrInvalidFolder   = errors.New("invalid folder name")
	ErrNoCSVFiles      = errors.New("no CSV files found in the selected folder")
)

// FileTooLargeError lists every file over the size ceiling. It is returned
// before any file is read.
type FileTooLargeError struct {
	Names []string
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s exceed %d bytes", strings.Join(e.Names, ", "), e.Limit)
}

// FileReadError wraps an I/O failure for one file.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// FileFailure is one failed file of a batch load.
type FileFailure struct {
	Index int
	Name  string
	Err   error
}

// LoadError aggregates every failed file of a batch load, in input order.
type LoadError struct {
	Failures []FileFailure
}

func (e *LoadError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Name + ": " + f.Err.Error()
	}
	return "errors processing files: " + strings.Join(parts, "; ")
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
