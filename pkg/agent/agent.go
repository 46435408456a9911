package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/config"
	"github.com/0xmhha/kaizen/pkg/logger"
	"github.com/0xmhha/kaizen/pkg/stats"
	"github.com/0xmhha/kaizen/pkg/watcher"
)

// Notification texts shown for loop commands.
const (
	SessionStartedMessage = "Focus session started."
	SessionPausedMessage  = "Focus session paused."
	ReloadedMessage       = "Configuration reloaded."
)

// agent implements the Agent interface.
type agent struct {
	config Config
	deps   Deps
	logger logger.Logger

	// Loop state; only touched by the Run goroutine.
	snapshot *config.Config
	tick     *time.Timer
}

// New creates a new agent loop.
//
// Parameters:
//   - cfg: Loop configuration
//   - deps: Collaborators driven by the loop
//   - log: Logger instance
//
// Returns:
//   - Configured Agent
//   - Error if a required collaborator is missing
func New(cfg Config, deps Deps, log logger.Logger) (Agent, error) {
	switch {
	case deps.Snapshot == nil:
		return nil, ErrNoSnapshot
	case deps.Bus == nil:
		return nil, ErrNoBus
	case deps.Scheduler == nil:
		return nil, ErrNoScheduler
	case deps.Automation == nil:
		return nil, ErrNoAutomation
	case deps.Ledger == nil:
		return nil, ErrNoLedger
	}

	// Set defaults.
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.ConfigDebounce <= 0 {
		cfg.ConfigDebounce = 250 * time.Millisecond
	}
	if deps.Notifier == nil {
		deps.Notifier = discard{}
	}
	if deps.Load == nil {
		deps.Load = config.LoadFromFile
	}
	if deps.Quote == nil {
		deps.Quote = RandomQuote
	}

	log.Debug("agent created",
		"poll_interval", cfg.PollInterval,
		"tick_interval", cfg.TickInterval,
		"config_path", cfg.ConfigPath)

	return &agent{
		config:   cfg,
		deps:     deps,
		logger:   log,
		snapshot: deps.Snapshot,
	}, nil
}

// Run implements Agent.Run.
func (a *agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.applyPreferences(a.snapshot)

	if err := a.deps.Automation.Start(ctx, a.snapshot); err != nil {
		return fmt.Errorf("failed to start automation: %w", err)
	}

	stopWatch := a.watchConfig(ctx)
	defer stopWatch()

	if a.config.StartSession {
		a.toggle()
	}

	poll := time.NewTicker(a.config.PollInterval)
	defer poll.Stop()

	a.logger.Info("agent running")

	for {
		select {
		case <-ctx.Done():
			a.shutdown("context cancelled")
			return nil

		case <-poll.C:
			if quit := a.drain(); quit {
				a.shutdown("quit requested")
				return nil
			}

		case <-a.tickC():
			a.tick = nil
			if quit := a.drain(); quit {
				a.shutdown("quit requested")
				return nil
			}
			// A drained toggle may have paused or re-armed the session.
			if a.tick != nil || !a.deps.Scheduler.State().Active {
				continue
			}
			if a.deps.Scheduler.Tick() {
				a.arm()
			}
		}
	}
}

// drain handles every queued message in order. It reports whether a
// quit message was seen; messages behind it stay queued.
func (a *agent) drain() bool {
	for {
		msg, ok := a.deps.Bus.TryReceive()
		if !ok {
			return false
		}
		if a.handle(msg) {
			return true
		}
	}
}

// handle dispatches one message and reports whether the loop must exit.
func (a *agent) handle(msg bus.Message) bool {
	switch msg.Tag {
	case bus.TagQuit:
		return true

	case bus.TagToggle:
		a.toggle()

	case bus.TagReload:
		a.reload()

	case bus.TagStats:
		a.deps.Notifier.ShowStats(a.deps.Ledger.Snapshot())

	case bus.TagNotify, bus.TagMoved, bus.TagPhase, bus.TagProgress:
		a.deps.Notifier.Notify(msg)

	default:
		a.logger.Debug("ignoring unknown message", "tag", msg.Tag)
	}

	return false
}

// toggle starts or pauses the session and arms the tick accordingly.
func (a *agent) toggle() {
	if a.deps.Scheduler.Toggle() {
		a.arm()
		a.deps.Notifier.Notify(bus.Notify(SessionStartedMessage))
		if quote := a.deps.Quote(); quote != "" {
			a.deps.Notifier.Notify(bus.Notify(quote))
		}
		return
	}

	a.disarm()
	a.deps.Notifier.Notify(bus.Notify(SessionPausedMessage))
}

// reload re-reads the config document and applies it. A document that
// cannot be used leaves the running snapshot in place.
func (a *agent) reload() {
	if a.config.ConfigPath == "" {
		a.deps.Notifier.Notify(bus.Notify("Nothing to reload: no config file in use."))
		return
	}

	cfg, err := a.deps.Load(a.config.ConfigPath)
	if err != nil {
		a.logger.Warn("config reload rejected",
			"path", a.config.ConfigPath,
			"error", err)
		a.deps.Notifier.Notify(bus.Notify("Config error: " + err.Error()))
		return
	}

	if err := a.deps.Automation.Reload(cfg); err != nil {
		a.logger.Warn("automation reload failed", "error", err)
		a.deps.Notifier.Notify(bus.Notify("Config error: " + err.Error()))
		return
	}

	a.deps.Scheduler.SetDurations(cfg.WorkDuration(), cfg.BreakDuration())
	a.applyPreferences(cfg)
	a.snapshot = cfg

	a.logger.Info("configuration reloaded", "path", a.config.ConfigPath)
	a.deps.Notifier.Notify(bus.Notify(ReloadedMessage))
}

// applyPreferences hands sound and overlay settings to the notifier.
func (a *agent) applyPreferences(cfg *config.Config) {
	if p, ok := a.deps.Notifier.(PreferenceSetter); ok {
		p.SetPreferences(cfg.Preferences)
	}
}

// watchConfig posts a reload whenever the config document is written or
// replaced. It returns a function releasing the watcher.
func (a *agent) watchConfig(ctx context.Context) func() {
	if !a.config.WatchConfig || a.config.ConfigPath == "" {
		return func() {}
	}

	target := filepath.Clean(a.config.ConfigPath)
	w, err := watcher.New(watcher.Config{
		Ops:              watcher.OpCreate | watcher.OpWrite,
		DebounceInterval: a.config.ConfigDebounce,
		Filter: func(path string) bool {
			return filepath.Clean(path) == target
		},
	}, a.logger.With("component", "config-watcher"))
	if err != nil {
		a.logger.Warn("config watching disabled", "error", err)
		return func() {}
	}

	if err := w.Start(ctx, []string{filepath.Dir(target)}); err != nil {
		_ = w.Close()
		a.logger.Warn("config watching disabled", "path", target, "error", err)
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		events, errs := w.Events(), w.Errors()
		for events != nil || errs != nil {
			select {
			case _, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				a.logger.Debug("config file changed", "path", target)
				a.deps.Bus.Post(bus.Command(bus.TagReload))

			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				a.logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return func() {
		_ = w.Close()
		<-done
	}
}

// shutdown stops the session and the automation service, then hands the
// remaining notifications to the notifier.
func (a *agent) shutdown(reason string) {
	a.disarm()
	a.deps.Scheduler.Stop()

	if err := a.deps.Automation.Stop(); err != nil {
		a.logger.Warn("failed to stop automation", "error", err)
	}

	for _, msg := range a.deps.Bus.Drain() {
		switch msg.Tag {
		case bus.TagNotify, bus.TagMoved, bus.TagPhase:
			a.deps.Notifier.Notify(msg)
		}
	}

	a.logger.Info("agent stopped", "reason", reason)
}

func (a *agent) arm() {
	if a.tick == nil {
		a.tick = time.NewTimer(a.config.TickInterval)
	}
}

func (a *agent) disarm() {
	if a.tick != nil {
		a.tick.Stop()
		a.tick = nil
	}
}

// tickC returns the armed timer's channel, or nil so the select skips it.
func (a *agent) tickC() <-chan time.Time {
	if a.tick == nil {
		return nil
	}
	return a.tick.C
}

// discard is the default Notifier.
type discard struct{}

func (discard) Notify(bus.Message)        {}
func (discard) ShowStats(stats.Snapshot) {}
