// Package notebook models the durable lab notebook: an append-only record of
// plans, observations, and outputs shared across both teams and across
// process restarts. Entries are never edited or deleted.
package notebook

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixforge/labrun/domain/agent"
)

// EntryType classifies what a notebook entry records.
type EntryType string

const (
	// TypePlan records an agreed plan produced by the planning team.
	TypePlan EntryType = "PLAN"

	// TypeNote records an intermediate observation or decision.
	TypeNote EntryType = "NOTE"

	// TypeOutput records concrete results, metrics or file paths.
	TypeOutput EntryType = "OUTPUT"

	// TypeCompletion records a summary written when a phase finishes.
	TypeCompletion EntryType = "COMPLETION"
)

// entryTypes is the closed set accepted by Validate, in display order.
var entryTypes = []EntryType{TypePlan, TypeNote, TypeOutput, TypeCompletion}

// Entry is a single immutable notebook record.
type Entry struct {
	ID        uuid.UUID  `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Team      agent.Team `json:"team"`
	Type      EntryType  `json:"type"`
	Body      string     `json:"body"`
}

// NewEntry creates a notebook entry stamped with a fresh ID and the current
// UTC time.
func NewEntry(source string, team agent.Team, entryType EntryType, body string) Entry {
	return Entry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		Team:      team,
		Type:      entryType,
		Body:      strings.TrimSpace(body),
	}
}

// Validate checks the entry is well formed for appending.
func (e Entry) Validate() error {
	if e.Source == "" {
		return ErrEmptySource
	}
	if e.Body == "" {
		return ErrEmptyBody
	}
	for _, t := range entryTypes {
		if e.Type == t {
			return nil
		}
	}
	return ErrInvalidType
}

// Store is the persistence port for the notebook. Implementations live in
// infrastructure/storage and must preserve append order.
type Store interface {
	// Append durably records an entry. A failed append must not leave a
	// partial entry visible to Read.
	Append(ctx context.Context, entry Entry) error

	// Read returns all entries in append order.
	Read(ctx context.Context) ([]Entry, error)

	// ReadSince returns entries appended strictly after the given time,
	// in append order.
	ReadSince(ctx context.Context, since time.Time) ([]Entry, error)

	// Close releases underlying resources.
	Close() error
}
