package chat

import (
	"fmt"
	"strings"
)

// Transcript is an append-only ordered sequence of turns. Turns are never
// edited or removed once appended; Append returns a new value so recorded
// prefixes stay stable.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates an empty transcript.
func NewTranscript() Transcript {
	return Transcript{}
}

// Append returns a transcript extended by the given turn. The receiver is
// left unchanged.
func (tr Transcript) Append(turn Turn) Transcript {
	turns := make([]Turn, len(tr.turns), len(tr.turns)+1)
	copy(turns, tr.turns)
	return Transcript{turns: append(turns, turn)}
}

// Turns returns a copy of all turns in insertion order.
func (tr Transcript) Turns() []Turn {
	turns := make([]Turn, len(tr.turns))
	copy(turns, tr.turns)
	return turns
}

// Len returns the number of turns.
func (tr Transcript) Len() int {
	return len(tr.turns)
}

// Last returns the most recent turn and true, or a zero turn and false for
// an empty transcript.
func (tr Transcript) Last() (Turn, bool) {
	if len(tr.turns) == 0 {
		return Turn{}, false
	}
	return tr.turns[len(tr.turns)-1], true
}

// Tail returns the last n turns (all turns if n exceeds the length).
func (tr Transcript) Tail(n int) []Turn {
	if n <= 0 {
		return nil
	}
	if n > len(tr.turns) {
		n = len(tr.turns)
	}
	turns := make([]Turn, n)
	copy(turns, tr.turns[len(tr.turns)-n:])
	return turns
}

// Render formats the transcript as a markdown report with one section per
// turn, suitable for handing to another team as condensed context.
func (tr Transcript) Render(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for i, turn := range tr.turns {
		fmt.Fprintf(&b, "\n## Message %d from %s\n", i+1, turn.Author)
		b.WriteString(turn.Content)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", 80))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderTurns formats a plain slice of turns the same way Render does.
func RenderTurns(title string, turns []Turn) string {
	tr := Transcript{turns: turns}
	return tr.Render(title)
}
