package database

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist or is
	// not owned by the requesting user. The two cases are deliberately
	// conflated so callers cannot probe for other users' resources.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an operation collides with existing
	// state: stopping an already-stopped timer session or creating a
	// duplicate tag name for the same user.
	ErrConflict = errors.New("conflict")
)
