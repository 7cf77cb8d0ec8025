package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/chat"
)

// ErrScriptExhausted is returned when a scripted role has no lines left.
var ErrScriptExhausted = errors.New("scripted generator exhausted")

// Scripted replays canned responses per role. Used in tests and offline
// demos where no model endpoint is available.
type Scripted struct {
	lines map[string][]string
	next  map[string]int
	mu    sync.Mutex
}

var _ agent.Generator = (*Scripted)(nil)

// NewScripted creates an empty scripted generator.
func NewScripted() *Scripted {
	return &Scripted{
		lines: make(map[string][]string),
		next:  make(map[string]int),
	}
}

// Say queues responses for the named role, in order.
func (s *Scripted) Say(role string, responses ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[role] = append(s.lines[role], responses...)
	return s
}

// Generate returns the role's next scripted line.
func (s *Scripted) Generate(_ context.Context, role agent.RoleConfig, _ string, _ chat.Transcript) (chat.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.next[role.Name]
	queued := s.lines[role.Name]
	if idx >= len(queued) {
		return chat.Turn{}, fmt.Errorf("%w: role %s", ErrScriptExhausted, role.Name)
	}
	s.next[role.Name] = idx + 1
	return chat.NewTurn(role.Name, queued[idx]), nil
}
