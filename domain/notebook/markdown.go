package notebook

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixforge/labrun/domain/agent"
)

// Header opens every rendered notebook document.
const Header = "# Lab Notebook\n"

// DefaultReadLimit caps how many characters of notebook content are injected
// into an agent context. When the rendered notebook exceeds it, the most
// recent entries win.
const DefaultReadLimit = 100_000

var entryHeading = regexp.MustCompile(`^### \[([^\]]+)\] ([^(]+?)(?: \(([^)]+)\))? - ([A-Z]+)$`)

// FormatEntry renders one entry in the canonical markdown form:
//
//	### [2026-08-23T10:00:00Z] principal_scientist (planning) - PLAN
//
//	<body>
func FormatEntry(e Entry) string {
	var b strings.Builder
	b.WriteString("### [")
	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString("] ")
	b.WriteString(e.Source)
	if e.Team != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Team))
		b.WriteString(")")
	}
	b.WriteString(" - ")
	b.WriteString(string(e.Type))
	b.WriteString("\n\n")
	b.WriteString(e.Body)
	b.WriteString("\n")
	return b.String()
}

// Render produces the full notebook document for the given entries.
func Render(entries []Entry) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(FormatEntry(e))
	}
	return b.String()
}

// RenderTail renders the notebook clipped to at most maxChars characters,
// dropping whole entries from the front until the rest fits. maxChars <= 0
// means no limit. The newest entries are always retained, so a run resumed
// against a long notebook still sees its recent history.
func RenderTail(entries []Entry, maxChars int) string {
	if maxChars <= 0 {
		return Render(entries)
	}

	// Each rendered entry contributes its formatted text plus the blank
	// separator line. Sizing them once keeps this linear in entry count.
	total := len(Header)
	sizes := make([]int, len(entries))
	for i, e := range entries {
		sizes[i] = 1 + len(FormatEntry(e))
		total += sizes[i]
	}
	if total <= maxChars {
		return Render(entries)
	}

	start := 0
	for start < len(entries)-1 && total > maxChars {
		total -= sizes[start]
		start++
	}

	clipped := Render(entries[start:])
	if len(clipped) > maxChars {
		// A single oversized entry: keep its tail.
		clipped = clipped[len(clipped)-maxChars:]
	}
	return clipped
}

// ParseDocument reconstructs entries from a rendered notebook document. It is
// the inverse of Render up to entry IDs, which are regenerated. Content
// before the first entry heading (the document header) is skipped; malformed
// headings are treated as body text of the preceding entry.
func ParseDocument(content string) ([]Entry, error) {
	var entries []Entry
	var current *Entry
	var body strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(body.String())
		entries = append(entries, *current)
		current = nil
		body.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		m := entryHeading.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				body.WriteString(line)
				body.WriteString("\n")
			}
			continue
		}

		flush()
		ts, err := time.Parse(time.RFC3339, m[1])
		if err != nil {
			return nil, fmt.Errorf("parse entry timestamp %q: %w", m[1], err)
		}
		current = &Entry{
			ID:        uuid.New(),
			Timestamp: ts,
			Source:    strings.TrimSpace(m[2]),
			Team:      agent.Team(m[3]),
			Type:      EntryType(m[4]),
		}
	}
	flush()
	return entries, nil
}
