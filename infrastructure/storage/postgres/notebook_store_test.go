package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/notebook"
	"github.com/helixforge/labrun/infrastructure/storage/postgres"
)

// Integration test; requires a reachable database.
func newStore(t *testing.T) *postgres.NotebookStore {
	t.Helper()

	dsn := os.Getenv("LABRUN_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LABRUN_POSTGRES_DSN not set")
	}

	store, err := postgres.Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNotebookStore_AppendRead(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	entry := notebook.NewEntry("lead", agent.TeamPlanning, notebook.TypePlan, "postgres round trip")
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	found := false
	for _, e := range entries {
		if e.ID == entry.ID {
			found = true
			if e.Body != entry.Body {
				t.Errorf("Body = %q, want %q", e.Body, entry.Body)
			}
		}
	}
	if !found {
		t.Error("appended entry not returned by Read()")
	}
}
