// Package agent runs the single cooperative loop of the kaizen agent.
//
// The loop owns the session scheduler. It drains the message bus on a
// fixed poll interval, arms the scheduler tick only while a session runs,
// and reacts to commands posted by other goroutines (key presses,
// signals, the config file watcher). Everything else on the bus is handed
// to the Notifier.
//
// Example usage:
//
//	a, err := agent.New(agent.Config{
//	    ConfigPath:   path,
//	    PollInterval: 200 * time.Millisecond,
//	    TickInterval: time.Second,
//	}, agent.Deps{
//	    Snapshot:   cfg,
//	    Bus:        b,
//	    Scheduler:  sched,
//	    Automation: svc,
//	    Ledger:     ledger,
//	    Notifier:   term,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = a.Run(ctx)
package agent

import (
	"context"
	"time"

	"github.com/0xmhha/kaizen/pkg/automation"
	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/config"
	"github.com/0xmhha/kaizen/pkg/scheduler"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// Agent is the cooperative loop.
type Agent interface {
	// Run starts the automation service and processes the bus until ctx
	// is done or a quit message arrives. It stops the session and the
	// service before returning.
	//
	// Returns an error only when the automation service cannot start.
	Run(ctx context.Context) error
}

// Notifier renders what the loop does not handle itself.
type Notifier interface {
	// Notify shows a notify, moved, phase or progress message.
	Notify(msg bus.Message)

	// ShowStats renders the ledger.
	ShowStats(snap stats.Snapshot)
}

// PreferenceSetter is implemented by notifiers that honor the sound and
// overlay preferences. The agent applies them on start and reload.
type PreferenceSetter interface {
	SetPreferences(prefs config.PreferencesConfig)
}

// Config contains agent configuration.
type Config struct {
	// Config document re-read on reload; empty disables reload from disk
	ConfigPath string

	// How often the bus is drained (default: 200ms)
	PollInterval time.Duration

	// Length of one scheduler tick (default: 1s)
	TickInterval time.Duration

	// Reload when ConfigPath changes on disk
	WatchConfig bool

	// Debounce for config file changes (default: 250ms)
	ConfigDebounce time.Duration

	// Start a focus session right away
	StartSession bool
}

// Deps contains the collaborators driven by the loop.
type Deps struct {
	// Initial configuration snapshot (required)
	Snapshot *config.Config

	// Shared message bus (required)
	Bus *bus.Bus

	// Session state machine, owned by the loop (required)
	Scheduler scheduler.Scheduler

	// File automation (required)
	Automation automation.Service

	// Progression ledger rendered on "stats" (required)
	Ledger stats.Ledger

	// Rendering surface (default: discard)
	Notifier Notifier

	// Reads the config document on reload (default: config.LoadFromFile)
	Load func(path string) (*config.Config, error)

	// Picks the line shown when a session starts (default: RandomQuote)
	Quote func() string
}
