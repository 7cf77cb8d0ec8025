// Package postgres provides the PostgreSQL-backed notebook store, for runs
// that share a notebook across hosts.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/notebook"
)

// NotebookStore is a PostgreSQL-backed implementation of notebook.Store.
type NotebookStore struct {
	pool   *pgxpool.Pool
	schema string
}

var _ notebook.Store = (*NotebookStore)(nil)

// Connect opens a pool for the DSN and prepares the schema.
func Connect(ctx context.Context, dsn string) (*NotebookStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := NewNotebookStore(pool, "")
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewNotebookStore creates a store over an existing pool.
func NewNotebookStore(pool *pgxpool.Pool, schema string) *NotebookStore {
	if schema == "" {
		schema = "public"
	}
	return &NotebookStore{pool: pool, schema: schema}
}

func (s *NotebookStore) tableName() string {
	return fmt.Sprintf("%s.notebook_entries", s.schema)
}

// Migrate creates the notebook table if it doesn't exist.
func (s *NotebookStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			id UUID NOT NULL UNIQUE,
			ts TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL,
			team TEXT NOT NULL,
			type TEXT NOT NULL,
			body TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notebook_entries_ts ON %s (ts);
	`, s.tableName(), s.tableName())

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("migrate notebook table: %w", err)
	}
	return nil
}

// Append durably records an entry.
func (s *NotebookStore) Append(ctx context.Context, entry notebook.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, ts, source, team, type, body)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.tableName())

	_, err := s.pool.Exec(ctx, query,
		entry.ID, entry.Timestamp, entry.Source, string(entry.Team), string(entry.Type), entry.Body)
	return err
}

// Read returns all entries in append order.
func (s *NotebookStore) Read(ctx context.Context) ([]notebook.Entry, error) {
	query := fmt.Sprintf(`
		SELECT id, ts, source, team, type, body FROM %s ORDER BY seq
	`, s.tableName())
	return s.query(ctx, query)
}

// ReadSince returns entries appended strictly after the given time.
func (s *NotebookStore) ReadSince(ctx context.Context, since time.Time) ([]notebook.Entry, error) {
	query := fmt.Sprintf(`
		SELECT id, ts, source, team, type, body FROM %s WHERE ts > $1 ORDER BY seq
	`, s.tableName())
	return s.query(ctx, query, since)
}

func (s *NotebookStore) query(ctx context.Context, query string, args ...any) ([]notebook.Entry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []notebook.Entry
	for rows.Next() {
		var (
			e         notebook.Entry
			team, typ string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Source, &team, &typ, &e.Body); err != nil {
			return nil, err
		}
		e.Team = agent.Team(team)
		e.Type = notebook.EntryType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the pool.
func (s *NotebookStore) Close() error {
	s.pool.Close()
	return nil
}
