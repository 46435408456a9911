package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/classifier"
	"github.com/0xmhha/kaizen/pkg/config"
	"github.com/0xmhha/kaizen/pkg/discovery"
	"github.com/0xmhha/kaizen/pkg/logger"
	"github.com/0xmhha/kaizen/pkg/mover"
	"github.com/0xmhha/kaizen/pkg/stats"
	"github.com/0xmhha/kaizen/pkg/watcher"
)

// queuePerWorker sizes the pool queue relative to the worker count.
const queuePerWorker = 16

// snapshot is the part of a configuration the service acts on. It is
// never modified after construction.
type snapshot struct {
	watchPaths []string
	rules      classifier.Rules
	mover      mover.Mover
	ignore     []string
	settle     time.Duration
	xpPerFile  int
	workers    int
}

// ignored reports whether path ends in a deny-listed suffix.
func (s *snapshot) ignored(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range s.ignore {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// job is one dispatched event with the snapshot it was accepted under.
type job struct {
	ctx   context.Context
	event watcher.Event
	snap  *snapshot
}

// subscription is one watcher and the goroutine consuming it.
type subscription struct {
	watcher watcher.Watcher
	done    chan struct{}
}

// service implements the Service interface.
type service struct {
	ledger     stats.Ledger
	history    stats.Store
	bus        *bus.Bus
	newWatcher func() (watcher.Watcher, error)
	sleep      func(ctx context.Context, d time.Duration) error
	rename     func(oldPath, newPath string) error
	logger     logger.Logger

	// lifecycle serializes Start, Reload and Stop.
	lifecycle sync.Mutex

	mu      sync.RWMutex
	snap    *snapshot
	sub     *subscription
	ctx     context.Context
	cancel  context.CancelFunc
	queue   chan job
	started bool
	stopped bool

	units   sync.WaitGroup
	workers sync.WaitGroup
}

// New creates a stopped automation service.
//
// Parameters:
//   - opts: Collaborators and test hooks
//   - log: Logger instance
//
// Returns:
//   - Configured Service
//   - Error if a required collaborator is missing
func New(opts Options, log logger.Logger) (Service, error) {
	if opts.Ledger == nil {
		return nil, ErrNoLedger
	}
	if opts.Bus == nil {
		return nil, ErrNoBus
	}

	// Set defaults.
	if opts.NewWatcher == nil {
		opts.NewWatcher = func() (watcher.Watcher, error) {
			return watcher.New(watcher.Config{Ops: watcher.OpCreate}, log.With("component", "watcher"))
		}
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}

	return &service{
		ledger:     opts.Ledger,
		history:    opts.History,
		bus:        opts.Bus,
		newWatcher: opts.NewWatcher,
		sleep:      opts.Sleep,
		rename:     opts.Rename,
		logger:     log,
	}, nil
}

// Start implements Service.Start.
func (s *service) Start(ctx context.Context, cfg *config.Config) error {
	snap, err := s.buildSnapshot(cfg)
	if err != nil {
		return err
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.snap = snap
	s.started = true

	if snap.workers > 0 {
		s.queue = make(chan job, snap.workers*queuePerWorker)
		for i := 0; i < snap.workers; i++ {
			s.workers.Add(1)
			go s.work(s.queue)
		}
	}
	runCtx := s.ctx
	s.mu.Unlock()

	sub, err := s.subscribe(runCtx, snap.watchPaths)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.logger.Info("automation service started",
		"paths", s.Paths(),
		"destination", snap.mover.Root(),
		"categories", snap.rules.Len(),
		"workers", snap.workers)

	return nil
}

// Reload implements Service.Reload.
func (s *service) Reload(cfg *config.Config) error {
	snap, err := s.buildSnapshot(cfg)
	if err != nil {
		return err
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started && snap.workers != s.snap.workers {
		s.logger.Warn("worker count changes take effect on restart",
			"current", s.snap.workers,
			"requested", snap.workers)
	}
	s.snap = snap
	old := s.sub
	s.sub = nil
	started := s.started
	runCtx := s.ctx
	s.mu.Unlock()

	if old != nil {
		s.closeSubscription(old)
	}

	if !started {
		s.logger.Debug("snapshot replaced before start")
		return nil
	}

	sub, err := s.subscribe(runCtx, snap.watchPaths)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.logger.Info("automation service reloaded",
		"paths", s.Paths(),
		"destination", snap.mover.Root())

	return nil
}

// HandleEvent implements Service.HandleEvent.
func (s *service) HandleEvent(ev watcher.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped || !s.started {
		return
	}

	snap := s.snap
	if snap.ignored(ev.Path) {
		s.logger.Debug("ignoring in-progress download", "path", ev.Path)
		return
	}

	j := job{ctx: s.ctx, event: ev, snap: snap}
	s.units.Add(1)

	if s.queue != nil {
		select {
		case s.queue <- j:
		case <-s.ctx.Done():
			s.units.Done()
		}
		return
	}

	go func() {
		defer s.units.Done()
		s.process(j)
	}()
}

// Purge implements Service.Purge.
func (s *service) Purge(ctx context.Context, cfg *config.Config, dirs []string) ([]mover.Outcome, error) {
	var snap *snapshot
	if cfg != nil {
		built, err := s.buildSnapshot(cfg)
		if err != nil {
			return nil, err
		}
		snap = built
	} else {
		s.mu.RLock()
		snap = s.snap
		s.mu.RUnlock()
		if snap == nil {
			return nil, ErrNoSnapshot
		}
	}

	if len(dirs) == 0 {
		dirs = snap.watchPaths
	}

	files, err := discovery.New(dirs, s.logger).Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	outcomes := make([]mover.Outcome, 0, len(files))
	moved := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("purge cancelled: %w", err)
		}
		if snap.ignored(f.Path) {
			continue
		}

		category, ok := snap.rules.ClassifyPath(f.Path)
		if !ok {
			continue
		}

		out := snap.mover.Move(ctx, f.Path, category)
		s.record(snap, out)
		outcomes = append(outcomes, out)
		if out.Succeeded {
			moved++
		}
	}

	s.logger.Info("purge complete",
		"dirs", dirs,
		"scanned", len(files),
		"moved", moved,
		"failed", len(outcomes)-moved)

	return outcomes, nil
}

// Paths implements Service.Paths.
func (s *service) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sub == nil {
		return nil
	}
	return s.sub.watcher.Paths()
}

// Wait implements Service.Wait.
func (s *service) Wait() {
	s.units.Wait()
}

// Stop implements Service.Stop.
func (s *service) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	// Cancel first so a HandleEvent blocked on a full queue lets go.
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	sub := s.sub
	s.sub = nil
	queue := s.queue
	s.mu.Unlock()

	if queue != nil {
		close(queue)
	}
	s.workers.Wait()
	s.units.Wait()

	if sub != nil {
		s.closeSubscription(sub)
	}

	s.logger.Info("automation service stopped")
	return nil
}

// buildSnapshot validates cfg and prepares the rules and mover it needs.
func (s *service) buildSnapshot(cfg *config.Config) (*snapshot, error) {
	if cfg == nil {
		return nil, ErrNoSnapshot
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	m, err := mover.New(mover.Config{
		DestinationRoot: config.ExpandHome(cfg.DestinationRoot),
		MaxAttempts:     cfg.Automation.MaxAttempts,
		RetryDelay:      cfg.Automation.RetryDelay.Duration,
		Rename:          s.rename,
		Sleep:           s.sleep,
	}, s.logger.With("component", "mover"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	paths := make([]string, 0, len(cfg.WatchPaths))
	for _, p := range cfg.WatchPaths {
		paths = append(paths, config.ExpandHome(p))
	}

	ignore := make([]string, 0, len(cfg.Automation.IgnoreSuffixes))
	for _, suffix := range cfg.Automation.IgnoreSuffixes {
		if suffix = strings.ToLower(strings.TrimSpace(suffix)); suffix != "" {
			ignore = append(ignore, suffix)
		}
	}

	return &snapshot{
		watchPaths: paths,
		rules:      classifier.NewRules(cfg.Categories),
		mover:      m,
		ignore:     ignore,
		settle:     cfg.Automation.SettleDelay.Duration,
		xpPerFile:  cfg.Progression.XPPerFile,
		workers:    cfg.Automation.Workers,
	}, nil
}

// subscribe starts a watcher on paths. It returns a nil subscription when
// none of the paths can be watched, leaving the service idle.
func (s *service) subscribe(ctx context.Context, paths []string) (*subscription, error) {
	w, err := s.newWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.Start(ctx, paths); err != nil {
		_ = w.Close()
		if errors.Is(err, watcher.ErrNoValidPaths) {
			s.logger.Warn("no valid watch paths, running idle", "paths", paths)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	sub := &subscription{
		watcher: w,
		done:    make(chan struct{}),
	}
	go s.consume(sub)

	return sub, nil
}

// consume forwards watcher events to HandleEvent until the watcher
// closes its channels.
func (s *service) consume(sub *subscription) {
	defer close(sub.done)

	events, errs := sub.watcher.Events(), sub.watcher.Errors()
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.HandleEvent(ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// closeSubscription closes the watcher and waits for its consumer.
func (s *service) closeSubscription(sub *subscription) {
	if err := sub.watcher.Close(); err != nil {
		s.logger.Warn("failed to close watcher", "error", err)
	}
	<-sub.done
}

// work runs queued jobs until the queue is closed.
func (s *service) work(queue <-chan job) {
	defer s.workers.Done()

	for j := range queue {
		s.process(j)
		s.units.Done()
	}
}

// process is one unit of work: settle, re-check, classify, move.
func (s *service) process(j job) {
	path := j.event.Path

	if err := s.sleep(j.ctx, j.snap.settle); err != nil {
		s.logger.Debug("unit cancelled", "path", path, "error", err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		s.logger.Debug("file gone before move", "path", path)
		return
	}
	if info.IsDir() {
		return
	}

	category, ok := j.snap.rules.ClassifyPath(path)
	if !ok {
		s.logger.Debug("no category for file", "path", path)
		return
	}

	out := j.snap.mover.Move(j.ctx, path, category)
	s.record(j.snap, out)
}

// record appends out to the history and, on success, credits the ledger
// and announces the move.
func (s *service) record(snap *snapshot, out mover.Outcome) {
	if s.history != nil {
		if err := s.history.AppendMove(out); err != nil {
			s.logger.Warn("failed to record move", "path", out.SourcePath, "error", err)
		}
	}

	if !out.Succeeded {
		return
	}

	s.ledger.RecordMove(snap.xpPerFile)
	s.bus.Post(bus.Message{
		Tag:     bus.TagMoved,
		Text:    "Moved: " + out.SourceName,
		Payload: out,
	})

	s.logger.Info("file sorted",
		"path", out.SourcePath,
		"category", out.Category,
		"destination", out.DestinationPath)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
