// Package watcher provides file system notifications for directories.
//
// It wraps fsnotify with non-recursive subscriptions, an operation mask,
// an optional path filter and optional per-path debouncing. Invalid
// paths are skipped with a warning instead of failing the whole set.
//
// A watcher is single use: once stopped it cannot be started again.
// Create a new one to watch a new set of paths.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"~/Downloads"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("File %s: %s\n", event.Path, event.Op)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created or renamed into the directory
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed away
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event represents a file system event.
type Event struct {
	// Path is the absolute path to the file that triggered the event.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start begins watching the specified directories (non-recursively).
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - paths: Directories to watch
	//
	// Returns ErrNoValidPaths when none of the paths can be watched.
	// Event delivery runs in the background; Start does not block.
	Start(ctx context.Context, paths []string) error

	// Stop stops event delivery. The channels are closed shortly after.
	//
	// Returns ErrNotStarted if Start never succeeded.
	Stop() error

	// Events returns the channel for receiving file system events.
	//
	// The channel is closed when the watcher stops.
	Events() <-chan Event

	// Errors returns the channel for receiving watcher errors.
	//
	// Non-fatal errors are sent to this channel.
	// The channel is closed when the watcher stops.
	Errors() <-chan error

	// Paths returns the directories actually being watched.
	Paths() []string

	// Close stops the watcher, waits for the delivery goroutine and
	// releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// Ops selects the delivered operations (default: OpCreate).
	Ops Op

	// IncludeDirs delivers events for directories too (default: false).
	IncludeDirs bool

	// Filter drops events whose path it rejects (default: accept all).
	Filter func(path string) bool

	// DebounceInterval coalesces events for the same path.
	// Zero delivers every event immediately.
	DebounceInterval time.Duration

	// BufferSize is the events channel capacity (default: 100).
	BufferSize int

	// CircuitBreakerThreshold is the number of consecutive failures
	// before the circuit breaker opens.
	// Default: 5.
	CircuitBreakerThreshold int
}
