package repositories

import "errors"

// Sentinel errors shared by every repository implementation. Callers match
// them with errors.Is; driver-level details never leave this package.
var (
	ErrNotFound = errors.New("repositories: record not found")
	ErrConflict = errors.New("repositories: unique constraint violated")
)
