// Package memory provides in-memory storage implementations, used in tests
// and single-shot runs that do not need durability.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/helixforge/labrun/domain/notebook"
)

// NotebookStore is an in-memory implementation of notebook.Store.
type NotebookStore struct {
	entries []notebook.Entry
	closed  bool
	mu      sync.RWMutex
}

var _ notebook.Store = (*NotebookStore)(nil)

// NewNotebookStore creates an empty in-memory notebook store.
func NewNotebookStore() *NotebookStore {
	return &NotebookStore{}
}

// Append records an entry.
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

// Close marks the store closed.
func (s *NotebookStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
