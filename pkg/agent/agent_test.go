package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/config"
	"github.com/0xmhha/kaizen/pkg/logger"
	"github.com/0xmhha/kaizen/pkg/mover"
	"github.com/0xmhha/kaizen/pkg/scheduler"
	"github.com/0xmhha/kaizen/pkg/stats"
	"github.com/0xmhha/kaizen/pkg/watcher"
)

// fakeAutomation records lifecycle calls.
type fakeAutomation struct {
	mu        sync.Mutex
	starts    int
	stops     int
	reloads   []*config.Config
	startErr  error
	reloadErr error
}

func (f *fakeAutomation) Start(ctx context.Context, cfg *config.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeAutomation) Reload(cfg *config.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reloadErr != nil {
		return f.reloadErr
	}
	f.reloads = append(f.reloads, cfg)
	return nil
}

func (f *fakeAutomation) HandleEvent(ev watcher.Event) {}

func (f *fakeAutomation) Purge(ctx context.Context, cfg *config.Config, dirs []string) ([]mover.Outcome, error) {
	return nil, nil
}

func (f *fakeAutomation) Paths() []string { return nil }

func (f *fakeAutomation) Wait() {}

func (f *fakeAutomation) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeAutomation) reloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reloads)
}

// recorder is a Notifier that keeps everything it is shown.
type recorder struct {
	mu    sync.Mutex
	msgs  []bus.Message
	stats []stats.Snapshot
	prefs []config.PreferencesConfig
}

func (r *recorder) Notify(msg bus.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) ShowStats(snap stats.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, snap)
}

func (r *recorder) SetPreferences(prefs config.PreferencesConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs = append(r.prefs, prefs)
}

func (r *recorder) texts(tag bus.Tag) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, msg := range r.msgs {
		if msg.Tag == tag {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (r *recorder) statsCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stats)
}

type fixture struct {
	agent      Agent
	bus        *bus.Bus
	ledger     stats.Ledger
	scheduler  scheduler.Scheduler
	automation *fakeAutomation
	notifier   *recorder
}

const testQuote = "Discipline is freedom."

func newFixture(t *testing.T, cfg Config, load func(string) (*config.Config, error)) *fixture {
	t.Helper()

	ledger, err := stats.New(stats.Config{}, logger.Noop())
	require.NoError(t, err)

	b := bus.New()
	sched, err := scheduler.New(scheduler.Config{
		WorkDuration:  time.Second,
		BreakDuration: time.Second,
		XPPerSession:  100,
	}, ledger, b, logger.Noop())
	require.NoError(t, err)

	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Millisecond
	}

	f := &fixture{
		bus:        b,
		ledger:     ledger,
		scheduler:  sched,
		automation: &fakeAutomation{},
		notifier:   &recorder{},
	}

	f.agent, err = New(cfg, Deps{
		Snapshot:   config.Default(),
		Bus:        b,
		Scheduler:  sched,
		Automation: f.automation,
		Ledger:     ledger,
		Notifier:   f.notifier,
		Load:       load,
		Quote:      func() string { return testQuote },
	}, logger.Noop())
	require.NoError(t, err)

	return f
}

// run starts the loop and returns a function that waits for it to exit.
func (f *fixture) run(t *testing.T) func() error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.agent.Run(ctx) }()

	var once sync.Once
	var runErr error
	wait := func() error {
		once.Do(func() {
			select {
			case runErr = <-errCh:
			case <-time.After(5 * time.Second):
				t.Fatal("agent did not stop")
			}
		})
		return runErr
	}

	t.Cleanup(func() {
		cancel()
		_ = wait()
	})
	return wait
}

func TestNewRequiresCollaborators(t *testing.T) {
	ledger, err := stats.New(stats.Config{}, logger.Noop())
	require.NoError(t, err)
	b := bus.New()
	sched, err := scheduler.New(scheduler.Config{}, ledger, b, logger.Noop())
	require.NoError(t, err)

	full := Deps{
		Snapshot:   config.Default(),
		Bus:        b,
		Scheduler:  sched,
		Automation: &fakeAutomation{},
		Ledger:     ledger,
	}

	tests := []struct {
		name    string
		mutate  func(d *Deps)
		wantErr error
	}{
		{name: "no snapshot", mutate: func(d *Deps) { d.Snapshot = nil }, wantErr: ErrNoSnapshot},
		{name: "no bus", mutate: func(d *Deps) { d.Bus = nil }, wantErr: ErrNoBus},
		{name: "no scheduler", mutate: func(d *Deps) { d.Scheduler = nil }, wantErr: ErrNoScheduler},
		{name: "no automation", mutate: func(d *Deps) { d.Automation = nil }, wantErr: ErrNoAutomation},
		{name: "no ledger", mutate: func(d *Deps) { d.Ledger = nil }, wantErr: ErrNoLedger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			_, err := New(Config{}, deps, logger.Noop())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = New(Config{}, full, logger.Noop())
	assert.NoError(t, err)
}

func TestQuitStopsLoop(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	assert.Equal(t, 1, f.automation.starts)
	assert.Equal(t, 1, f.automation.stops)
}

func TestContextCancelStopsLoop(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.agent.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
	assert.Equal(t, 1, f.automation.stops)
}

func TestAutomationStartFailure(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.automation.startErr = errors.New("boom")

	err := f.agent.Run(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestToggleRunsSession(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagToggle))

	require.Eventually(t, func() bool {
		return f.ledger.Snapshot().SessionsCompleted >= 1
	}, 5*time.Second, 5*time.Millisecond)

	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	assert.Contains(t, f.notifier.texts(bus.TagNotify), SessionStartedMessage)
	assert.Contains(t, f.notifier.texts(bus.TagPhase), scheduler.RestMessage)
	assert.False(t, f.scheduler.State().Active, "quit stops the session")
	assert.GreaterOrEqual(t, f.ledger.Snapshot().XP, 100)
	assert.Equal(t, 1, f.ledger.Snapshot().StreakDays)
}

func TestStartSessionFlag(t *testing.T) {
	f := newFixture(t, Config{StartSession: true}, nil)
	f.run(t)

	require.Eventually(t, func() bool {
		return f.ledger.Snapshot().SessionsCompleted >= 1
	}, 5*time.Second, 5*time.Millisecond)
}

func TestToggleTwicePauses(t *testing.T) {
	f := newFixture(t, Config{TickInterval: time.Hour}, nil)
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagToggle))
	f.bus.Post(bus.Command(bus.TagToggle))
	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	assert.Equal(t, []string{SessionStartedMessage, testQuote, SessionPausedMessage}, f.notifier.texts(bus.TagNotify))
	state := f.scheduler.State()
	assert.False(t, state.Active)
	assert.Equal(t, 1, state.SecondsRemaining, "no tick fired")
}

func TestPauseQueuedBeforeTickWins(t *testing.T) {
	f := newFixture(t, Config{PollInterval: time.Hour, TickInterval: 50 * time.Millisecond, StartSession: true}, nil)
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagToggle))
	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	state := f.scheduler.State()
	assert.False(t, state.Active)
	assert.Equal(t, 1, state.SecondsRemaining, "pause handled before the tick")
	assert.Equal(t, []string{SessionStartedMessage, testQuote, SessionPausedMessage}, f.notifier.texts(bus.TagNotify))
}

func TestSessionStartShowsQuote(t *testing.T) {
	f := newFixture(t, Config{TickInterval: time.Hour}, nil)
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagToggle))
	f.bus.Post(bus.Command(bus.TagToggle))
	f.bus.Post(bus.Command(bus.TagToggle))
	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	notes := f.notifier.texts(bus.TagNotify)
	assert.Equal(t, 2, countOf(notes, testQuote), "one quote per start")
	assert.Zero(t, countOf(notes[2:4], testQuote), "no quote on pause")
}

func TestQuotePicker(t *testing.T) {
	var asked []int
	pick := QuotePicker([]string{"a", "b", "c"}, func(n int) int {
		asked = append(asked, n)
		return 2
	})

	assert.Equal(t, "c", pick())
	assert.Equal(t, []int{3}, asked)
	assert.Empty(t, QuotePicker(nil, func(int) int { return 0 })())
}

func TestRandomQuoteComesFromTable(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, Quotes, RandomQuote())
	}
}

func countOf(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}

func TestReloadAppliesConfig(t *testing.T) {
	next := config.Default()
	next.Session.WorkMinutes = 10
	next.Preferences.Sound = false

	f := newFixture(t, Config{ConfigPath: "kaizen.yaml"}, func(path string) (*config.Config, error) {
		assert.Equal(t, "kaizen.yaml", path)
		return next, nil
	})
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagReload))
	require.Eventually(t, func() bool {
		return f.automation.reloadCount() == 1
	}, 5*time.Second, 5*time.Millisecond)

	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	assert.Same(t, next, f.automation.reloads[0])
	assert.Contains(t, f.notifier.texts(bus.TagNotify), ReloadedMessage)
	assert.Equal(t, 600, f.scheduler.State().TotalSeconds)

	require.Len(t, f.notifier.prefs, 2, "preferences applied on start and reload")
	assert.False(t, f.notifier.prefs[1].Sound)
}

func TestReloadErrorKeepsSnapshot(t *testing.T) {
	f := newFixture(t, Config{ConfigPath: "kaizen.yaml"}, func(string) (*config.Config, error) {
		return config.Default(), config.ErrFallback
	})
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagReload))
	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	assert.Zero(t, f.automation.reloadCount())
	notes := f.notifier.texts(bus.TagNotify)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "Config error")
	assert.Equal(t, 1, f.scheduler.State().TotalSeconds)
}

func TestReloadRejectedByAutomation(t *testing.T) {
	f := newFixture(t, Config{ConfigPath: "kaizen.yaml"}, func(string) (*config.Config, error) {
		return config.Default(), nil
	})
	f.automation.reloadErr = errors.New("watch failed")
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagReload))
	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	notes := f.notifier.texts(bus.TagNotify)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "watch failed")
}

func TestReloadWithoutConfigPath(t *testing.T) {
	called := false
	f := newFixture(t, Config{}, func(string) (*config.Config, error) {
		called = true
		return config.Default(), nil
	})
	wait := f.run(t)

	f.bus.Post(bus.Command(bus.TagReload))
	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	assert.False(t, called)
	assert.Len(t, f.notifier.texts(bus.TagNotify), 1)
}

func TestMessagesAreForwarded(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	wait := f.run(t)

	f.bus.Post(bus.Notify("hello"))
	f.bus.Post(bus.Message{Tag: bus.TagMoved, Text: "Moved: a.png"})
	f.bus.Post(bus.Message{Tag: "mystery", Text: "ignored"})
	f.bus.Post(bus.Command(bus.TagStats))
	f.bus.Post(bus.Command(bus.TagQuit))
	require.NoError(t, wait())

	assert.Equal(t, []string{"hello"}, f.notifier.texts(bus.TagNotify))
	assert.Equal(t, []string{"Moved: a.png"}, f.notifier.texts(bus.TagMoved))
	assert.Empty(t, f.notifier.texts("mystery"))
	assert.Equal(t, 1, f.notifier.statsCount())
}

func TestMessagesAfterQuitAreFlushed(t *testing.T) {
	f := newFixture(t, Config{PollInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.agent.Run(ctx) }()

	f.bus.Post(bus.Notify("late"))
	f.bus.Post(bus.Command(bus.TagToggle))
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}

	assert.Equal(t, []string{"late"}, f.notifier.texts(bus.TagNotify), "commands are not replayed on shutdown")
}

func TestConfigFileWatchPostsReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kaizen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session: {work_minutes: 25}\n"), 0600))

	f := newFixture(t, Config{
		ConfigPath:     path,
		WatchConfig:    true,
		ConfigDebounce: 20 * time.Millisecond,
	}, func(string) (*config.Config, error) {
		return config.Default(), nil
	})
	f.run(t)

	// Give the watcher a moment to subscribe.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(path, []byte("session: {work_minutes: 30}\n"), 0600))

	require.Eventually(t, func() bool {
		return f.automation.reloadCount() >= 1
	}, 5*time.Second, 10*time.Millisecond)
}
