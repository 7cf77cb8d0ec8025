package run

import "errors"

var (
	// ErrEmptyTask indicates a run was created without a task.
	ErrEmptyTask = errors.New("run task is empty")

	// ErrInvalidTransition indicates a lifecycle method was called in the
	// wrong status.
	ErrInvalidTransition = errors.New("invalid run status transition")

	// ErrIterationsExhausted indicates the outer loop budget is spent.
	ErrIterationsExhausted = errors.New("run iterations exhausted")

	// ErrRunNotFound indicates the requested run is not stored.
	ErrRunNotFound = errors.New("run not found")
)
