package tool

import (
	"encoding/json"
	"time"
)

// Result contains the output of a tool execution.
type Result struct {
	// Output is the primary result data.
	Output json.RawMessage `json:"output"`

	// Duration is how long the execution took.
	Duration time.Duration `json:"duration"`

	// Truncated indicates the output was cut to a size cap.
	Truncated bool `json:"truncated,omitempty"`

	// Error is a tool-level error (distinct from execution error).
	Error error `json:"-"`
}

// NewResult creates a successful result with the given output.
func NewResult(output json.RawMessage) Result {
	return Result{Output: output}
}

// TextResult creates a successful result carrying a plain string.
func TextResult(text string) Result {
	raw, _ := json.Marshal(text)
	return Result{Output: raw}
}

// NewErrorResult creates a result representing an error.
func NewErrorResult(err error) Result {
	return Result{Error: err}
}

// IsError returns true if the result represents an error.
func (r Result) IsError() bool {
	return r.Error != nil
}

// WithDuration returns a copy of the result with timing attached.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// OutputString returns the output as a string for convenience. If the output
// is a JSON string it is unquoted first.
func (r Result) OutputString() string {
	var s string
	if err := json.Unmarshal(r.Output, &s); err == nil {
		return s
	}
	return string(r.Output)
}
