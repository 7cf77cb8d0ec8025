package chat_test

import (
	"strings"
	"testing"

	"github.com/helixforge/labrun/domain/chat"
)

func TestTranscript_Append(t *testing.T) {
	t.Parallel()

	t.Run("appends in order", func(t *testing.T) {
		t.Parallel()

		tr := chat.NewTranscript()
		tr = tr.Append(chat.NewTurn("lead", "first"))
		tr = tr.Append(chat.NewTurn("expert_a", "second"))

		turns := tr.Turns()
		if len(turns) != 2 {
			t.Fatalf("Len = %d, want 2", len(turns))
		}
		if turns[0].Author != "lead" || turns[1].Author != "expert_a" {
			t.Errorf("turns out of order: %s, %s", turns[0].Author, turns[1].Author)
		}
	})

	t.Run("prefix stability", func(t *testing.T) {
		t.Parallel()

		tr := chat.NewTranscript().Append(chat.NewTurn("lead", "first"))
		before := tr.Turns()

		_ = tr.Append(chat.NewTurn("expert_a", "second"))

		after := tr.Turns()
		if len(before) != 1 || len(after) != 1 {
			t.Errorf("appending to a copy mutated the original: before=%d after=%d", len(before), len(after))
		}
	})
}

func TestTranscript_Last(t *testing.T) {
	t.Parallel()

	tr := chat.NewTranscript()
	if _, ok := tr.Last(); ok {
		t.Error("Last() on empty transcript should report false")
	}

	tr = tr.Append(chat.NewTurn("lead", "first")).Append(chat.NewTurn("expert_a", "second"))
	last, ok := tr.Last()
	if !ok {
		t.Fatal("Last() should report true")
	}
	if last.Author != "expert_a" {
		t.Errorf("Last().Author = %s, want expert_a", last.Author)
	}
}

func TestTranscript_Tail(t *testing.T) {
	t.Parallel()

	tr := chat.NewTranscript()
	for _, author := range []string{"a", "b", "c", "d"} {
		tr = tr.Append(chat.NewTurn(author, "msg"))
	}

	tail := tr.Tail(2)
	if len(tail) != 2 {
		t.Fatalf("Tail(2) len = %d, want 2", len(tail))
	}
	if tail[0].Author != "c" || tail[1].Author != "d" {
		t.Errorf("Tail(2) = %s, %s; want c, d", tail[0].Author, tail[1].Author)
	}

	if got := tr.Tail(10); len(got) != 4 {
		t.Errorf("Tail(10) len = %d, want 4", len(got))
	}
	if got := tr.Tail(0); got != nil {
		t.Errorf("Tail(0) = %v, want nil", got)
	}
}

func TestTranscript_Render(t *testing.T) {
	t.Parallel()

	tr := chat.NewTranscript().
		Append(chat.NewTurn("engineer", "split the data")).
		Append(chat.NewTurn("critic", "verify the splits"))

	report := tr.Render("TEAM B IMPLEMENTATION REPORT")
	if !strings.HasPrefix(report, "# TEAM B IMPLEMENTATION REPORT") {
		t.Errorf("Render() missing title header:\n%s", report)
	}
	if !strings.Contains(report, "## Message 1 from engineer") {
		t.Error("Render() missing first message section")
	}
	if !strings.Contains(report, "## Message 2 from critic") {
		t.Error("Render() missing second message section")
	}
	if !strings.Contains(report, "verify the splits") {
		t.Error("Render() missing turn content")
	}
}
