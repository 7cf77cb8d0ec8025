// Package run holds the aggregate describing one end-to-end orchestration:
// the task, the iteration budget, and the outcome.
package run

import (
	"time"

	"github.com/google/uuid"
)

// Status describes where a run is in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusIncomplete Status = "incomplete"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusIncomplete, StatusFailed:
		return true
	}
	return false
}

// DefaultMaxIterations bounds the outer plan/implement loop.
const DefaultMaxIterations = 25

// Run is the aggregate for one orchestration of a task.
type Run struct {
	ID            uuid.UUID `json:"id"`
	Task          string    `json:"task"`
	Status        Status    `json:"status"`
	Iteration     int       `json:"iteration"`
	MaxIterations int       `json:"max_iterations"`

	// LastPlan is the most recent plan handed from the planning team to the
	// implementation team. LastReport is the implementation team's most
	// recent condensed report back.
	LastPlan   string `json:"last_plan,omitempty"`
	LastReport string `json:"last_report,omitempty"`

	// FailureReason is set when the run ends in StatusFailed.
	FailureReason string `json:"failure_reason,omitempty"`

	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// New creates a pending run for the given task.
func New(task string, maxIterations int) (*Run, error) {
	if task == "" {
		return nil, ErrEmptyTask
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Run{
		ID:            uuid.New(),
		Task:          task,
		Status:        StatusPending,
		MaxIterations: maxIterations,
	}, nil
}

// Start moves the run to running.
func (r *Run) Start() error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = StatusRunning
	r.StartedAt = time.Now().UTC()
	return nil
}

// BeginIteration advances the iteration counter. It fails with
// ErrIterationsExhausted once the budget is spent; the caller is expected to
// finish the run as incomplete.
func (r *Run) BeginIteration() error {
	if r.Status != StatusRunning {
		return ErrInvalidTransition
	}
	if r.Iteration >= r.MaxIterations {
		return ErrIterationsExhausted
	}
	r.Iteration++
	return nil
}

// RecordPlan stores the plan carried into the implementation phase.
func (r *Run) RecordPlan(plan string) {
	r.LastPlan = plan
}

// RecordReport stores the implementation team's condensed report.
func (r *Run) RecordReport(report string) {
	r.LastReport = report
}

// Complete ends the run successfully.
func (r *Run) Complete() error {
	return r.finish(StatusCompleted, "")
}

// Exhaust ends the run after the iteration budget ran out without a
// final-completion signal.
func (r *Run) Exhaust() error {
	return r.finish(StatusIncomplete, "")
}

// Fail ends the run with an unrecoverable error.
func (r *Run) Fail(reason string) error {
	return r.finish(StatusFailed, reason)
}

func (r *Run) finish(status Status, reason string) error {
	if r.Status != StatusRunning {
		return ErrInvalidTransition
	}
	r.Status = status
	r.FailureReason = reason
	r.FinishedAt = time.Now().UTC()
	return nil
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
