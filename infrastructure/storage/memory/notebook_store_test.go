package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/notebook"
	"github.com/helixforge/labrun/infrastructure/storage/memory"
)

func TestNotebookStore_AppendRead(t *testing.T) {
	t.Parallel()

	store := memory.NewNotebookStore()
	ctx := context.Background()

	entries := []notebook.Entry{
		notebook.NewEntry("lead", agent.TeamPlanning, notebook.TypePlan, "phase one"),
		notebook.NewEntry("engineer", agent.TeamImplementation, notebook.TypeOutput, "done"),
	}
	for _, e := range entries {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Read() len = %d, want 2", len(got))
	}
	if got[0].Source != "lead" || got[1].Source != "engineer" {
		t.Error("Read() did not preserve append order")
	}
}

func TestNotebookStore_RejectsInvalidEntry(t *testing.T) {
	t.Parallel()

	store := memory.NewNotebookStore()
	err := store.Append(context.Background(), notebook.Entry{})
	if !errors.Is(err, notebook.ErrEmptySource) {
		t.Errorf("Append() error = %v, want ErrEmptySource", err)
	}
}

func TestNotebookStore_ReadSince(t *testing.T) {
	t.Parallel()

	store := memory.NewNotebookStore()
	ctx := context.Background()

	old := notebook.NewEntry("lead", agent.TeamPlanning, notebook.TypeNote, "old")
	old.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := notebook.NewEntry("lead", agent.TeamPlanning, notebook.TypeNote, "recent")

	for _, e := range []notebook.Entry{old, recent} {
		if err := store.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ReadSince(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadSince() error = %v", err)
	}
	if len(got) != 1 || got[0].Body != "recent" {
		t.Errorf("ReadSince() = %v, want only the recent entry", got)
	}
}

func TestNotebookStore_Close(t *testing.T) {
	t.Parallel()

	store := memory.NewNotebookStore()
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	err := store.Append(context.Background(), notebook.NewEntry("x", agent.TeamPlanning, notebook.TypeNote, "y"))
	if !errors.Is(err, notebook.ErrStoreClosed) {
		t.Errorf("Append() after Close error = %v, want ErrStoreClosed", err)
	}
}
