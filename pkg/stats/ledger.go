package stats

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/kaizen/pkg/logger"
)

// ledger implements the Ledger interface.
type ledger struct {
	mu     sync.Mutex
	state  Snapshot
	store  Store
	logger logger.Logger
}

// New creates a ledger and loads its state from the store.
//
// Parameters:
//   - cfg: Ledger configuration
//   - log: Logger instance
//
// Returns:
//   - Ledger holding the stored state; a corrupt record starts from zero
//     and is overwritten by the next mutation
//   - Error if the store cannot be read
func New(cfg Config, log logger.Logger) (Ledger, error) {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	state, err := cfg.Store.LoadLedger()
	switch {
	case errors.Is(err, ErrCorruptLedger):
		log.Warn("stored ledger unreadable, starting from zero", "error", err)
		state = Snapshot{}
	case err != nil:
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	l := &ledger{
		store:  cfg.Store,
		logger: log,
	}
	l.state = state
	l.setXP(state.XP)

	log.Debug("ledger loaded",
		"xp", l.state.XP,
		"level", l.state.Level,
		"files_moved", l.state.FilesMoved)

	return l, nil
}

// setXP is the only writer of XP and Level.
func (l *ledger) setXP(xp int) {
	if xp < 0 {
		xp = 0
	}
	l.state.XP = xp
	l.state.Level = LevelFor(xp)
}

// addXP must be called with mu held.
func (l *ledger) addXP(n int) {
	if n <= 0 {
		return
	}
	before := l.state.Level
	l.setXP(l.state.XP + n)

	if l.state.Level > before {
		l.logger.Info("level up",
			"level", l.state.Level,
			"xp", l.state.XP,
			"rank", RankFor(l.state.XP).Name)
	}
}

// persist must be called with mu held. Failures are logged only.
func (l *ledger) persist() {
	if err := l.store.SaveLedger(l.state); err != nil {
		l.logger.Warn("failed to persist ledger", "error", err)
	}
}

// AddXP implements Ledger.AddXP.
func (l *ledger) AddXP(n int) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 {
		return l.state
	}
	l.addXP(n)
	l.persist()
	return l.state
}

// RecordMove implements Ledger.RecordMove.
func (l *ledger) RecordMove(xp int) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.FilesMoved++
	l.addXP(xp)
	l.persist()
	return l.state
}

// AddFocusMinute implements Ledger.AddFocusMinute.
func (l *ledger) AddFocusMinute() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.MinutesFocused++
	l.persist()
	return l.state
}

// CompleteSession implements Ledger.CompleteSession.
func (l *ledger) CompleteSession(xp int) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.SessionsCompleted++
	l.addXP(xp)
	l.persist()
	return l.state
}

// TouchStreak implements Ledger.TouchStreak.
func (l *ledger) TouchStreak(now time.Time) bool {
	today := now.Format(DateLayout)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.LastSessionDate == today {
		return false
	}

	l.state.StreakDays++
	l.state.LastSessionDate = today
	l.persist()

	l.logger.Debug("streak extended", "streak_days", l.state.StreakDays, "date", today)
	return true
}

// Snapshot implements Ledger.Snapshot.
func (l *ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reset implements Ledger.Reset.
func (l *ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = Snapshot{}
	l.setXP(0)

	if err := l.store.SaveLedger(l.state); err != nil {
		return fmt.Errorf("failed to persist reset ledger: %w", err)
	}
	return nil
}
