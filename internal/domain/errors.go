package domain

import "errors"

// Domain errors returned by the public API. Check them with errors.Is.
var (
	// ErrUnsupportedType is returned by the view model factory when asked for a
	// type it cannot build.
	ErrUnsupportedType = errors.New("forage: unsupported view model type")

	// ErrShutdownTimeout is returned when a scope's tasks do not finish in time.
	ErrShutdownTimeout = errors.New("forage: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("forage: invalid configuration")

	// ErrNotFound is returned by one-shot lookups for a missing record.
	ErrNotFound = errors.New("forage: record not found")
)
