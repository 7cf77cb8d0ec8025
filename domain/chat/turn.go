// Package chat provides the core conversation model for the labrun engine:
// authored turns, tool invocations owned by a turn, and append-only
// transcripts.
package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// Turn is a single authored contribution to a conversation. A turn is
// immutable once recorded in a transcript; tool invocations issued while
// producing the turn are owned by it.
type Turn struct {
	Author    string           `json:"author"`
	Content   string           `json:"content"`
	ToolCalls []ToolInvocation `json:"tool_calls,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewTurn creates a turn authored by the given role.
func NewTurn(author, content string) Turn {
	return Turn{
		Author:    author,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Contains reports whether the turn content contains the given token.
// An empty token never matches.
func (t Turn) Contains(token string) bool {
	return token != "" && strings.Contains(t.Content, token)
}

// StripTokens returns the turn content with the given tokens removed and
// surrounding whitespace trimmed.
func (t Turn) StripTokens(tokens ...string) string {
	content := t.Content
	for _, token := range tokens {
		if token == "" {
			continue
		}
		content = strings.ReplaceAll(content, token, "")
	}
	return strings.TrimSpace(content)
}

// WithToolCall returns a copy of the turn with the invocation appended.
func (t Turn) WithToolCall(inv ToolInvocation) Turn {
	calls := make([]ToolInvocation, len(t.ToolCalls), len(t.ToolCalls)+1)
	copy(calls, t.ToolCalls)
	t.ToolCalls = append(calls, inv)
	return t
}

// ToolInvocation records one tool call issued during a turn: the request,
// and either its result or the error that replaced it.
type ToolInvocation struct {
	Tool     string          `json:"tool"`
	Args     json.RawMessage `json:"args,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration,omitempty"`
}

// Failed reports whether the invocation ended in an error.
func (i ToolInvocation) Failed() bool {
	return i.Error != ""
}
