package mover

import "errors"

// Common errors returned by the mover.
var (
	// ErrFileLocked is returned when another process still holds the file.
	ErrFileLocked = errors.New("file is locked")

	// ErrFileNotFound is returned when the source no longer exists.
	ErrFileNotFound = errors.New("file not found")

	// ErrPermissionDenied is returned when the move is refused by the OS.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRetriesExhausted is returned after the last transient failure.
	ErrRetriesExhausted = errors.New("max attempts exceeded")

	// ErrNoFreeName is returned when no unused destination name was found.
	ErrNoFreeName = errors.New("no free destination name")

	// ErrNoDestination is returned when the destination root is empty.
	ErrNoDestination = errors.New("destination root is required")

	// ErrInvalidCategory is returned for an empty or path-like category.
	ErrInvalidCategory = errors.New("invalid category name")
)
