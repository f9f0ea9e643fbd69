package apperrors

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoChanges is a control signal, not a failure: an update changed
	// nothing, so no diff is built and no activity entry is persisted.
	ErrNoChanges = errors.New("no changes detected")
)
