package scheduler

import (
	"time"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/logger"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// scheduler implements the Scheduler interface.
type scheduler struct {
	state        State
	workSeconds  int
	breakSeconds int
	xpPerSession int
	now          func() time.Time

	ledger stats.Ledger
	bus    *bus.Bus
	logger logger.Logger
}

// New creates an idle scheduler in WORK mode.
//
// Parameters:
//   - cfg: Scheduler configuration
//   - ledger: Progression ledger updated by the session
//   - b: Bus receiving progress and phase messages
//   - log: Logger instance
//
// Returns:
//   - Configured Scheduler
//   - Error if a collaborator is missing
func New(cfg Config, ledger stats.Ledger, b *bus.Bus, log logger.Logger) (Scheduler, error) {
	if ledger == nil {
		return nil, ErrNoLedger
	}
	if b == nil {
		return nil, ErrNoBus
	}

	// Set defaults.
	if cfg.WorkDuration <= 0 {
		cfg.WorkDuration = 25 * time.Minute
	}
	if cfg.BreakDuration <= 0 {
		cfg.BreakDuration = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &scheduler{
		workSeconds:  seconds(cfg.WorkDuration),
		breakSeconds: seconds(cfg.BreakDuration),
		xpPerSession: cfg.XPPerSession,
		now:          cfg.Now,
		ledger:       ledger,
		bus:          b,
		logger:       log,
	}
	s.state = State{
		Mode:             ModeWork,
		SecondsRemaining: s.workSeconds,
		TotalSeconds:     s.workSeconds,
	}

	return s, nil
}

// Start implements Scheduler.Start.
func (s *scheduler) Start() bool {
	if s.state.Active {
		return false
	}

	s.state = State{
		Mode:             ModeWork,
		SecondsRemaining: s.workSeconds,
		TotalSeconds:     s.workSeconds,
		Active:           true,
	}

	if s.ledger.TouchStreak(s.now()) {
		snap := s.ledger.Snapshot()
		s.logger.Info("streak extended", "streak_days", snap.StreakDays)
	}

	s.logger.Info("session started", "work_seconds", s.workSeconds, "break_seconds", s.breakSeconds)
	s.publishProgress()
	return true
}

// Stop implements Scheduler.Stop.
func (s *scheduler) Stop() bool {
	if !s.state.Active {
		return false
	}

	s.state.Active = false
	s.logger.Info("session stopped",
		"mode", s.state.Mode,
		"seconds_remaining", s.state.SecondsRemaining)
	return true
}

// Toggle implements Scheduler.Toggle.
func (s *scheduler) Toggle() bool {
	if s.state.Active {
		s.Stop()
	} else {
		s.Start()
	}
	return s.state.Active
}

// Tick implements Scheduler.Tick.
func (s *scheduler) Tick() bool {
	if !s.state.Active {
		return false
	}

	if s.state.SecondsRemaining > 0 {
		s.state.SecondsRemaining--
	}

	if s.state.Mode == ModeWork && s.state.SecondsRemaining%60 == 0 {
		s.ledger.AddFocusMinute()
	}

	s.publishProgress()

	if s.state.SecondsRemaining == 0 {
		s.switchPhase()
	}

	return s.state.Active
}

// switchPhase flips the mode and starts the next phase at full length.
func (s *scheduler) switchPhase() {
	from := s.state.Mode
	text := WorkMessage

	if from == ModeWork {
		s.state.Mode = ModeBreak
		s.state.SecondsRemaining = s.breakSeconds
		text = RestMessage

		snap := s.ledger.CompleteSession(s.xpPerSession)
		s.logger.Info("work phase completed",
			"sessions_completed", snap.SessionsCompleted,
			"xp", snap.XP,
			"level", snap.Level)
	} else {
		s.state.Mode = ModeWork
		s.state.SecondsRemaining = s.workSeconds
		s.logger.Info("break finished")
	}
	s.state.TotalSeconds = s.state.SecondsRemaining

	s.bus.Post(bus.Message{
		Tag:     bus.TagPhase,
		Text:    text,
		Payload: Phase{From: from, To: s.state.Mode},
	})
}

// SetDurations implements Scheduler.SetDurations.
func (s *scheduler) SetDurations(work, brk time.Duration) {
	if work > 0 {
		s.workSeconds = seconds(work)
	}
	if brk > 0 {
		s.breakSeconds = seconds(brk)
	}

	// An idle scheduler shows the next session's length.
	if !s.state.Active && s.state.Mode == ModeWork {
		s.state.SecondsRemaining = s.workSeconds
		s.state.TotalSeconds = s.workSeconds
	}

	s.logger.Debug("session durations updated", "work_seconds", s.workSeconds, "break_seconds", s.breakSeconds)
}

// State implements Scheduler.State.
func (s *scheduler) State() State {
	return s.state
}

func (s *scheduler) publishProgress() {
	s.bus.Post(bus.Message{
		Tag: bus.TagProgress,
		Payload: Progress{
			Mode:             s.state.Mode,
			Fraction:         s.state.Progress(),
			SecondsRemaining: s.state.SecondsRemaining,
		},
	})
}

// seconds rounds d down to whole seconds, at least one.
func seconds(d time.Duration) int {
	n := int(d / time.Second)
	if n < 1 {
		return 1
	}
	return n
}
