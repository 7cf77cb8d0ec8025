// Package filesystem provides the markdown-file notebook store. The file is
// the canonical human-readable record; a process restart re-parses it so a
// resumed run sees the full history.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/helixforge/labrun/domain/notebook"
)

// NotebookStore persists the notebook as a single markdown document.
type NotebookStore struct {
	path    string
	file    *os.File
	entries []notebook.Entry
	closed  bool
	mu      sync.RWMutex
}

var _ notebook.Store = (*NotebookStore)(nil)

// NewNotebookStore opens or creates the notebook file at path. An existing
// document is parsed so appends continue the prior history.
func NewNotebookStore(path string) (*NotebookStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create notebook directory: %w", err)
		}
	}

	var entries []notebook.Entry
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		entries, err = notebook.ParseDocument(string(existing))
		if err != nil {
			return nil, fmt.Errorf("parse existing notebook: %w", err)
		}
	case os.IsNotExist(err):
		if err := os.WriteFile(path, []byte(notebook.Header), 0o644); err != nil {
			return nil, fmt.Errorf("create notebook: %w", err)
		}
	default:
		return nil, fmt.Errorf("read notebook: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open notebook for append: %w", err)
	}

	return &NotebookStore{path: path, file: f, entries: entries}, nil
}

// Path returns the notebook file location.
func (s *NotebookStore) Path() string {
	return s.path
}

// Append writes the entry to the file and syncs before making it visible to
// Read, so a crash never shows an entry that was not durably recorded.
func (s *NotebookStore) Append(ctx context.Context, entry notebook.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return notebook.ErrStoreClosed
	}

	if _, err := s.file.WriteString("\n" + notebook.FormatEntry(entry)); err != nil {
		return fmt.Errorf("append notebook entry: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync notebook: %w", err)
	}

	s.entries = append(s.entries, entry)
	return nil
}

// Read returns all entries in append order.
func (s *NotebookStore) Read(ctx context.Context) ([]notebook.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, notebook.ErrStoreClosed
	}

	out := make([]notebook.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// ReadSince returns entries appended strictly after the given time.
func (s *NotebookStore) ReadSince(ctx context.Context, since time.Time) ([]notebook.Entry, error) {
	all, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}

	var out []notebook.Entry
	for _, e := range all {
		if e.Timestamp.After(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close releases the file handle.
func (s *NotebookStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
