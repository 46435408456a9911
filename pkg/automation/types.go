// Package automation turns file creation events into sorted files.
//
// The service subscribes to the configured watch paths, drops events for
// in-progress downloads, and hands every remaining event to its own unit
// of work: wait for the file to settle, re-check it still exists,
// classify it and move it. Successful moves are credited to the ledger,
// appended to the move history and announced on the bus.
//
// Example usage:
//
//	svc, err := automation.New(automation.Options{
//	    Ledger:  ledger,
//	    History: store,
//	    Bus:     b,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := svc.Start(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Stop()
package automation

import (
	"context"
	"time"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/config"
	"github.com/0xmhha/kaizen/pkg/mover"
	"github.com/0xmhha/kaizen/pkg/stats"
	"github.com/0xmhha/kaizen/pkg/watcher"
)

// Service watches directories and relocates new files by category.
type Service interface {
	// Start subscribes to the snapshot's watch paths and begins
	// processing events. When no watch path is usable the service runs
	// idle and Start still succeeds.
	//
	// Parameters:
	//   - ctx: Lifetime of the subscription and all units of work
	//   - cfg: Configuration snapshot
	//
	// Returns:
	//   - ErrAlreadyStarted or ErrStopped on misuse
	//   - Error if the snapshot cannot be applied
	Start(ctx context.Context, cfg *config.Config) error

	// Reload replaces rules, destination and subscriptions with those of
	// cfg. Units already dispatched finish with the snapshot they were
	// dispatched under. Before Start, Reload only swaps the snapshot.
	Reload(cfg *config.Config) error

	// HandleEvent filters and dispatches a single event.
	HandleEvent(ev watcher.Event)

	// Purge sorts every file currently in dirs (the snapshot's watch
	// paths when dirs is empty) synchronously, without a settle delay.
	//
	// Parameters:
	//   - ctx: Cancels the scan between files
	//   - cfg: Snapshot to use, nil for the current one
	//   - dirs: Directories to scan
	//
	// Returns:
	//   - One outcome per file that matched a category
	//   - Error if the scan could not run or was cancelled
	Purge(ctx context.Context, cfg *config.Config, dirs []string) ([]mover.Outcome, error)

	// Paths returns the directories currently subscribed.
	Paths() []string

	// Wait blocks until every dispatched unit has finished.
	Wait()

	// Stop stops accepting events, cancels pending waits, joins in-flight
	// units and releases the watcher. Stop is idempotent.
	Stop() error
}

// Options contains the service's collaborators.
type Options struct {
	// Ledger credited for every successful move (required)
	Ledger stats.Ledger

	// History receives every outcome (optional)
	History stats.Store

	// Bus receives "moved" messages (required)
	Bus *bus.Bus

	// NewWatcher builds the notification source for one subscription set.
	// Default: an fsnotify watcher reporting file creations.
	NewWatcher func() (watcher.Watcher, error)

	// Hooks for tests; nil means the real implementation.
	Sleep  func(ctx context.Context, d time.Duration) error
	Rename func(oldPath, newPath string) error
}
