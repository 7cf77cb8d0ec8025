package notebook_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/notebook"
)

func TestNewEntry(t *testing.T) {
	t.Parallel()

	e := notebook.NewEntry("principal_scientist", agent.TeamPlanning, notebook.TypePlan, "  Run EDA on the expression matrix.  ")

	if e.ID.String() == "" {
		t.Error("entry has no ID")
	}
	if e.Body != "Run EDA on the expression matrix." {
		t.Errorf("Body = %q, want trimmed body", e.Body)
	}
	if e.Timestamp.Location() != time.UTC {
		t.Error("timestamp not in UTC")
	}
}

func TestEntry_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entry   notebook.Entry
		wantErr error
	}{
		{
			"valid",
			notebook.NewEntry("engineer", agent.TeamImplementation, notebook.TypeOutput, "AUC 0.91 on held-out split"),
			nil,
		},
		{
			"empty source",
			notebook.NewEntry("", agent.TeamPlanning, notebook.TypeNote, "x"),
			notebook.ErrEmptySource,
		},
		{
			"empty body",
			notebook.NewEntry("engineer", agent.TeamImplementation, notebook.TypeNote, "   "),
			notebook.ErrEmptyBody,
		},
		{
			"unknown type",
			notebook.NewEntry("engineer", agent.TeamImplementation, notebook.EntryType("GOSSIP"), "x"),
			notebook.ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.entry.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatEntry(t *testing.T) {
	t.Parallel()

	e := notebook.Entry{
		Timestamp: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		Source:    "principal_scientist",
		Team:      agent.TeamPlanning,
		Type:      notebook.TypePlan,
		Body:      "1. Load data\n2. Train baseline",
	}

	got := notebook.FormatEntry(e)
	want := "### [2026-08-23T10:00:00Z] principal_scientist (planning) - PLAN\n\n1. Load data\n2. Train baseline\n"
	if got != want {
		t.Errorf("FormatEntry() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderParse_RoundTrip(t *testing.T) {
	t.Parallel()

	in := []notebook.Entry{
		fixedEntry("principal_scientist", agent.TeamPlanning, notebook.TypePlan, "Phase 1: EDA.\n\nPhase 2: baseline model.", 0),
		fixedEntry("engineer", agent.TeamImplementation, notebook.TypeOutput, "Wrote results to out/metrics.json", 1),
		fixedEntry("critic", agent.TeamImplementation, notebook.TypeCompletion, "Approved after one revision.", 2),
	}

	doc := notebook.Render(in)
	out, err := notebook.ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("ParseDocument() returned %d entries, want %d", len(out), len(in))
	}

	for i := range in {
		if out[i].Source != in[i].Source {
			t.Errorf("entry %d Source = %s, want %s", i, out[i].Source, in[i].Source)
		}
		if out[i].Team != in[i].Team {
			t.Errorf("entry %d Team = %s, want %s", i, out[i].Team, in[i].Team)
		}
		if out[i].Type != in[i].Type {
			t.Errorf("entry %d Type = %s, want %s", i, out[i].Type, in[i].Type)
		}
		if out[i].Body != in[i].Body {
			t.Errorf("entry %d Body = %q, want %q", i, out[i].Body, in[i].Body)
		}
		if !out[i].Timestamp.Equal(in[i].Timestamp) {
			t.Errorf("entry %d Timestamp = %v, want %v", i, out[i].Timestamp, in[i].Timestamp)
		}
	}
}

func TestRenderTail(t *testing.T) {
	t.Parallel()

	var entries []notebook.Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, fixedEntry("engineer", agent.TeamImplementation, notebook.TypeNote, strings.Repeat("x", 200), i))
	}

	t.Run("under limit returns full document", func(t *testing.T) {
		t.Parallel()

		full := notebook.Render(entries)
		if got := notebook.RenderTail(entries, len(full)+1); got != full {
			t.Error("RenderTail() clipped a document under the limit")
		}
	})

	t.Run("over limit keeps newest entries", func(t *testing.T) {
		t.Parallel()

		got := notebook.RenderTail(entries, 800)
		if len(got) > 800 {
			t.Errorf("RenderTail() length = %d, want <= 800", len(got))
		}
		newest := notebook.FormatEntry(entries[len(entries)-1])
		if !strings.Contains(got, strings.TrimSpace(newest)) {
			t.Error("RenderTail() dropped the newest entry")
		}
	})

	t.Run("clip is the largest whole-entry suffix", func(t *testing.T) {
		t.Parallel()

		got := notebook.RenderTail(entries, 800)
		for start := 1; start < len(entries); start++ {
			if got != notebook.Render(entries[start:]) {
				continue
			}
			if over := notebook.Render(entries[start-1:]); len(over) <= 800 {
				t.Errorf("RenderTail() dropped entry %d although keeping it fits in %d chars", start-1, 800)
			}
			return
		}
		t.Errorf("RenderTail() is not a whole-entry suffix render: %q", got)
	})

	t.Run("single oversized entry keeps its tail", func(t *testing.T) {
		t.Parallel()

		big := []notebook.Entry{fixedEntry("engineer", agent.TeamImplementation, notebook.TypeOutput, strings.Repeat("y", 5000), 0)}
		got := notebook.RenderTail(big, 1000)
		if len(got) != 1000 {
			t.Errorf("RenderTail() length = %d, want 1000", len(got))
		}
		if !strings.HasSuffix(got, "y\n") {
			t.Errorf("RenderTail() should end with the entry tail, got suffix %q", got[len(got)-10:])
		}
	})
}

func TestParseDocument_SkipsHeader(t *testing.T) {
	t.Parallel()

	doc := "# Lab Notebook\n\nsome preamble text\n\n### [2026-08-23T10:00:00Z] lead (planning) - NOTE\n\nbody here\n"
	entries, err := notebook.ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ParseDocument() returned %d entries, want 1", len(entries))
	}
	if entries[0].Body != "body here" {
		t.Errorf("Body = %q, want %q", entries[0].Body, "body here")
	}
}

func fixedEntry(source string, team agent.Team, typ notebook.EntryType, body string, offset int) notebook.Entry {
	e := notebook.NewEntry(source, team, typ, body)
	e.Timestamp = time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute)
	return e
}
