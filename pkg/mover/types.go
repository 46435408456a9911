// Package mover relocates files into per-category directories.
//
// A move never overwrites anything at the destination. The final name is
// reserved with an exclusive create right before the rename, so two
// concurrent moves of same-named files always land on distinct names.
// Transient failures (locked file, permission denied while a producer
// still holds a handle) are retried a bounded number of times.
//
// Example usage:
//
//	m, err := mover.New(mover.Config{
//	    DestinationRoot: "/home/me/Desktop",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out := m.Move(ctx, "/home/me/Downloads/a.png", "Images")
//	if out.Succeeded {
//	    fmt.Println("moved to", out.DestinationPath)
//	}
package mover

import (
	"context"
	"time"
)

// Mover moves files into <root>/<category>/.
type Mover interface {
	// Move relocates sourcePath into the category directory.
	//
	// Parameters:
	//   - ctx: Cancels waits between attempts, never an attempt in progress
	//   - sourcePath: File to move
	//   - category: Destination directory name under the root
	//
	// Returns the outcome. Failures are reported in the outcome only.
	Move(ctx context.Context, sourcePath, category string) Outcome

	// Root returns the destination root.
	Root() string
}

// Config contains mover configuration.
type Config struct {
	// Root under which category directories are created
	DestinationRoot string

	// Total attempts for transient failures (default: 5)
	MaxAttempts int

	// Fixed delay between attempts (default: 1.5s)
	RetryDelay time.Duration

	// Permission bits for created category directories (default: 0755)
	DirMode uint32

	// Hooks for tests; nil means the real implementation.
	Rename func(oldPath, newPath string) error
	Sleep  func(ctx context.Context, d time.Duration) error
}

// Outcome is the result of one move.
type Outcome struct {
	// Base name of the source file
	SourceName string `json:"source_name"`

	// Full source path
	SourcePath string `json:"source_path"`

	// Category the file was classified into
	Category string `json:"category"`

	// Final path, empty when the move failed
	DestinationPath string `json:"destination_path,omitempty"`

	// Whether the file now lives at DestinationPath
	Succeeded bool `json:"succeeded"`

	// Attempts performed (>= 1 once a move was tried)
	Attempts int `json:"attempts"`

	// Failure cause, nil on success
	Err error `json:"-"`

	// Failure text, kept for persisted history
	Error string `json:"error,omitempty"`

	// When the move finished
	FinishedAt time.Time `json:"finished_at"`
}
