package agent

import "errors"

var (
	// ErrEmptyRoleName is returned when a role config has no name.
	ErrEmptyRoleName = errors.New("role name is empty")

	// ErrUnknownRole is returned when a named role is not configured.
	ErrUnknownRole = errors.New("unknown role")

	// ErrNoGenerator is returned when a role has no generator bound.
	ErrNoGenerator = errors.New("no generator bound for role")
)
