package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoDestination is returned when no destination root is configured.
	ErrNoDestination = errors.New("no destination root specified")

	// ErrNoCategories is returned when the category list is empty.
	ErrNoCategories = errors.New("no categories specified")

	// ErrEmptyCategoryName is returned when a category has no name.
	ErrEmptyCategoryName = errors.New("category name cannot be empty")

	// ErrInvalidSessionLength is returned when work or break minutes are <= 0.
	ErrInvalidSessionLength = errors.New("invalid session length: work and break minutes must be > 0")

	// ErrInvalidMaxAttempts is returned when max attempts is outside [1, 10].
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be between 1 and 10")

	// ErrInvalidDelay is returned when a settle or retry delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be >= 0")

	// ErrInvalidWorkers is returned when the worker count is negative.
	ErrInvalidWorkers = errors.New("invalid worker count: must be >= 0")

	// ErrInvalidXP is returned when an experience reward is negative.
	ErrInvalidXP = errors.New("invalid experience reward: must be >= 0")

	// ErrInvalidInterval is returned when the poll or tick interval is <= 0.
	ErrInvalidInterval = errors.New("invalid agent interval: must be > 0")

	// ErrNoDBPath is returned when no database path is configured.
	ErrNoDBPath = errors.New("no database path specified")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidDocument is returned when the config file cannot be parsed.
	ErrInvalidDocument = errors.New("invalid config document")

	// ErrFallback wraps every problem that made Load fall back to defaults.
	ErrFallback = errors.New("using default configuration")
)
