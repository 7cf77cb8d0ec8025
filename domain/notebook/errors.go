package notebook

import "errors"

// Domain errors for the notebook.
var (
	// ErrEmptySource indicates an entry without an author.
	ErrEmptySource = errors.New("notebook entry source is empty")

	// ErrEmptyBody indicates an entry with nothing to record.
	ErrEmptyBody = errors.New("notebook entry body is empty")

	// ErrInvalidType indicates an entry type outside the known set.
	ErrInvalidType = errors.New("invalid notebook entry type")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("notebook store is closed")
)
