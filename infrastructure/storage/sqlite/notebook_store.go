package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/notebook"
)

// NotebookStore is a SQLite-backed implementation of notebook.Store.
type NotebookStore struct {
	db *sql.DB
}

var _ notebook.Store = (*NotebookStore)(nil)

// NewNotebookStore opens the database and creates the schema.
func NewNotebookStore(cfg Config, opts ...Option) (*NotebookStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &NotebookStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewNotebookStoreFromDB creates a store from an existing connection.
func NewNotebookStoreFromDB(db *sql.DB) (*NotebookStore, error) {
	s := &NotebookStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the notebook table if it doesn't exist. The rowid keeps
// append order independent of timestamps.
func (s *NotebookStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS notebook_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			ts INTEGER NOT NULL,
			source TEXT NOT NULL,
			team TEXT NOT NULL,
			type TEXT NOT NULL,
			body TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notebook_entries_ts ON notebook_entries(ts);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Append durably records an entry.
func (s *NotebookStore) Append(ctx context.Context, entry notebook.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notebook_entries (id, ts, source, team, type, body) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Timestamp.UnixNano(), entry.Source, string(entry.Team), string(entry.Type), entry.Body,
	)
	return err
}

// Read returns all entries in append order.
func (s *NotebookStore) Read(ctx context.Context) ([]notebook.Entry, error) {
	return s.query(ctx,
		`SELECT id, ts, source, team, type, body FROM notebook_entries ORDER BY seq`)
}

// ReadSince returns entries appended strictly after the given time.
func (s *NotebookStore) ReadSince(ctx context.Context, since time.Time) ([]notebook.Entry, error) {
	return s.query(ctx,
		`SELECT id, ts, source, team, type, body FROM notebook_entries WHERE ts > ? ORDER BY seq`,
		since.UnixNano())
}

func (s *NotebookStore) query(ctx context.Context, q string, args ...any) ([]notebook.Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []notebook.Entry
	for rows.Next() {
		var (
			id, source, team, typ, body string
			ts                          int64
		)
		if err := rows.Scan(&id, &ts, &source, &team, &typ, &body); err != nil {
			return nil, err
		}

		entryID, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, notebook.Entry{
			ID:        entryID,
			Timestamp: time.Unix(0, ts).UTC(),
			Source:    source,
			Team:      agent.Team(team),
			Type:      notebook.EntryType(typ),
			Body:      body,
		})
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *NotebookStore) Close() error {
	return s.db.Close()
}
