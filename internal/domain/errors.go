package domain

import "errors"

// Error taxonomy surfaced to callers. Repositories and services wrap
// these sentinels with context; transport layers match with errors.Is.
var (
	// ErrNotFound marks an unknown id or a row not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a second active experiment on the same control page.
	ErrConflict = errors.New("conflict")
	// ErrValidation marks a bad enum value, missing field, or invalid
	// action/winner. Detected before any mutation.
	ErrValidation = errors.New("validation")
)
