// Package stats provides the progression ledger: counters, experience,
// level, rank and daily streak, with persistent storage.
//
// Every mutation goes through the Ledger's own methods, which hold a
// single mutex and persist the new snapshot before releasing it, so
// concurrent writers (move units and the session loop) never lose an
// update.
//
// Example usage:
//
//	store, err := stats.OpenBoltStore(stats.StoreConfig{
//	    DBPath: "~/.config/kaizen/kaizen.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	ledger, err := stats.New(stats.Config{Store: store}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ledger.RecordMove(10)
//	snap := ledger.Snapshot()
//	fmt.Printf("Level %d (%s)\n", snap.Level, stats.RankFor(snap.XP).Name)
package stats

import (
	"time"

	"github.com/0xmhha/kaizen/pkg/mover"
)

// XPPerLevel is the experience needed per level.
const XPPerLevel = 1000

// DateLayout is the calendar date format of LastSessionDate.
const DateLayout = "2006-01-02"

// Snapshot is a copy of the ledger state.
type Snapshot struct {
	FilesMoved        int    `json:"files_moved"`
	MinutesFocused    int    `json:"minutes_focused"`
	SessionsCompleted int    `json:"sessions_completed"`
	XP                int    `json:"xp"`
	Level             int    `json:"level"`
	StreakDays        int    `json:"streak_days"`
	LastSessionDate   string `json:"last_session_date,omitempty"`
}

// Rank returns the rank of the snapshot's experience.
func (s Snapshot) Rank() Rank {
	return RankFor(s.XP)
}

// Ledger is the single owner of progression state.
type Ledger interface {
	// AddXP awards n experience. n <= 0 is ignored so XP never decreases.
	//
	// Returns the snapshot after the change.
	AddXP(n int) Snapshot

	// RecordMove counts a relocated file and awards xp.
	RecordMove(xp int) Snapshot

	// AddFocusMinute counts one focused minute.
	AddFocusMinute() Snapshot

	// CompleteSession counts a finished WORK phase and awards xp.
	CompleteSession(xp int) Snapshot

	// TouchStreak registers a session start on the calendar day of now.
	//
	// Returns true when the streak was incremented; at most once per day.
	TouchStreak(now time.Time) bool

	// Snapshot returns a copy of the current state.
	Snapshot() Snapshot

	// Reset zeroes every counter and persists the empty ledger.
	Reset() error
}

// Store persists the ledger and the move history.
type Store interface {
	// LoadLedger returns the stored ledger, or a zero Snapshot if none.
	LoadLedger() (Snapshot, error)

	// SaveLedger replaces the stored ledger.
	SaveLedger(s Snapshot) error

	// AppendMove records a move outcome in the history.
	AppendMove(out mover.Outcome) error

	// RecentMoves returns up to limit outcomes, newest first.
	RecentMoves(limit int) ([]mover.Outcome, error)

	// Close releases the store.
	Close() error
}

// Config contains ledger configuration.
type Config struct {
	// Persistence backend (default: in-memory store)
	Store Store
}

// StoreConfig contains bolt store configuration.
type StoreConfig struct {
	// Path to BoltDB database file
	DBPath string

	// Timeout for acquiring the database file lock (default: 1s)
	Timeout time.Duration

	// Oldest moves beyond this count are pruned (default: 1000)
	MaxHistory int
}
