package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/kaizen/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	started  bool
	running  bool
	closed   bool
	paths    []string
	stopChan chan struct{}
	quit     chan struct{} // closed when delivery is shutting down
	done     chan struct{} // closed after the channels are closed

	// Debouncing state.
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex
	pending        sync.WaitGroup

	// Circuit breaker state.
	failureCount int
	lastFailure  time.Time
}

// New creates a new file system watcher.
//
// Parameters:
//   - cfg: Watcher configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Watcher
//   - Error if watcher cannot be created
func New(cfg Config, log logger.Logger) (Watcher, error) {
	// Set defaults.
	if cfg.Ops == 0 {
		cfg.Ops = OpCreate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}

	// Create fsnotify watcher.
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &watcher{
		fsw:            fsw,
		logger:         log,
		config:         cfg,
		events:         make(chan Event, cfg.BufferSize),
		errors:         make(chan error, 10),
		stopChan:       make(chan struct{}),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}

	log.Debug("file watcher created",
		"debounce_interval", cfg.DebounceInterval,
		"buffer_size", cfg.BufferSize)

	return w, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.started {
		return ErrAlreadyStarted
	}

	// Expand, validate and subscribe each path on its own.
	for _, path := range paths {
		expanded := expandHome(strings.TrimSpace(path))
		if expanded == "" {
			continue
		}

		info, err := os.Stat(expanded)
		if err != nil {
			w.logger.Warn("watch path unavailable, skipping",
				"path", expanded,
				"error", err)
			continue
		}
		if !info.IsDir() {
			w.logger.Warn("watch path is not a directory, skipping",
				"path", expanded)
			continue
		}

		if err := w.fsw.Add(expanded); err != nil {
			w.logger.Warn("failed to add watch path, skipping",
				"path", expanded,
				"error", err)
			continue
		}

		w.paths = append(w.paths, expanded)
		w.logger.Debug("added watch path", "path", expanded)
	}

	if len(w.paths) == 0 {
		return ErrNoValidPaths
	}

	w.started = true
	w.running = true

	w.logger.Info("watcher started",
		"paths", w.paths,
		"path_count", len(w.paths))

	// Start event processing loop.
	go w.processEvents(ctx)

	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	// Signal stop.
	close(w.stopChan)
	w.running = false

	w.logger.Debug("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Paths implements Watcher.Paths.
func (w *watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, len(w.paths))
	copy(out, w.paths)
	return out
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	// Stop if running.
	if w.running {
		close(w.stopChan)
		w.running = false
	}
	started := w.started
	w.mu.Unlock()

	if started {
		// The delivery goroutine closes the channels on its way out.
		<-w.done
	} else {
		close(w.events)
		close(w.errors)
	}

	// Close fsnotify watcher.
	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents handles events from fsnotify. It is the only sender on
// and the only closer of the output channels.
func (w *watcher) processEvents(ctx context.Context) {
	defer func() {
		close(w.quit)
		w.stopTimers()
		w.pending.Wait()

		close(w.events)
		close(w.errors)
		close(w.done)
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			return

		case <-w.stopChan:
			w.logger.Debug("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				w.logger.Warn("fsnotify events channel closed")
				return
			}

			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.logger.Warn("fsnotify errors channel closed")
				return
			}

			w.handleError(err)
		}
	}
}

// handleEvent converts, filters and forwards a single fsnotify event.
func (w *watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Convert fsnotify op to our Op type.
	var op Op
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		op = OpCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		op = OpWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		op = OpRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		op = OpRename
	case event.Op&fsnotify.Chmod == fsnotify.Chmod:
		op = OpChmod
	default:
		w.logger.Debug("unknown fsnotify operation",
			"op", event.Op,
			"path", event.Name)
		return
	}

	if w.config.Ops&op == 0 {
		return
	}

	if w.config.Filter != nil && !w.config.Filter(event.Name) {
		return
	}

	// Directories are skipped; a path that is already gone is too.
	if !w.config.IncludeDirs && (op == OpCreate || op == OpWrite) {
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return
		}
	}

	ev := Event{
		Path:      event.Name,
		Op:        op,
		Timestamp: time.Now(),
	}

	if w.config.DebounceInterval > 0 {
		w.debounceEvent(ev)
		return
	}

	// Reset circuit breaker on successful delivery.
	w.mu.Lock()
	w.failureCount = 0
	w.mu.Unlock()

	select {
	case w.events <- ev:
	case <-w.stopChan:
	case <-ctx.Done():
	}
}

// debounceEvent implements event debouncing.
func (w *watcher) debounceEvent(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	// Cancel existing timer for this path.
	if timer, exists := w.debounceTimers[event.Path]; exists {
		if timer.Stop() {
			w.pending.Done()
		}
	}

	// Create new debounce timer.
	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.config.DebounceInterval, func() {
		defer w.pending.Done()

		// Clean up timer.
		w.debounceMu.Lock()
		if w.debounceTimers[event.Path] == timer {
			delete(w.debounceTimers, event.Path)
		}
		w.debounceMu.Unlock()

		select {
		case w.events <- event:
		case <-w.quit:
		}
	})
	w.debounceTimers[event.Path] = timer
}

// stopTimers cancels pending debounce timers.
func (w *watcher) stopTimers() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	for path, timer := range w.debounceTimers {
		if timer.Stop() {
			w.pending.Done()
		}
		delete(w.debounceTimers, path)
	}
}

// handleError processes fsnotify errors with circuit breaker pattern.
func (w *watcher) handleError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.failureCount++
	w.lastFailure = time.Now()

	w.logger.Error("fsnotify error",
		"error", err,
		"failure_count", w.failureCount)

	// Check circuit breaker.
	if w.failureCount >= w.config.CircuitBreakerThreshold {
		w.logger.Error("circuit breaker opened",
			"threshold", w.config.CircuitBreakerThreshold)

		// Send circuit breaker error.
		select {
		case w.errors <- ErrCircuitBreakerOpen:
		default:
			w.logger.Warn("error channel full, dropping error")
		}

		return
	}

	// Send error to channel.
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
