package stats

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/kaizen/pkg/logger"
)

func newTestLedger(t *testing.T) (Ledger, *memoryStore) {
	t.Helper()
	store := NewMemoryStore().(*memoryStore)
	l, err := New(Config{Store: store}, logger.Noop())
	require.NoError(t, err)
	return l, store
}

func TestNewStartsAtLevelOne(t *testing.T) {
	l, _ := newTestLedger(t)

	snap := l.Snapshot()
	assert.Equal(t, 0, snap.XP)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, "Novice", snap.Rank().Name)
}

func TestNewWithoutStore(t *testing.T) {
	l, err := New(Config{}, logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, 10, l.AddXP(10).XP)
}

func TestNewRecomputesStoredLevel(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SaveLedger(Snapshot{XP: 2500, Level: 99, FilesMoved: 7}))

	l, err := New(Config{Store: store}, logger.Noop())
	require.NoError(t, err)

	snap := l.Snapshot()
	assert.Equal(t, 3, snap.Level)
	assert.Equal(t, 7, snap.FilesMoved)
}

func TestAddXPLevelBoundary(t *testing.T) {
	l, _ := newTestLedger(t)

	snap := l.AddXP(999)
	assert.Equal(t, 999, snap.XP)
	assert.Equal(t, 1, snap.Level)

	snap = l.AddXP(1)
	assert.Equal(t, 1000, snap.XP)
	assert.Equal(t, 2, snap.Level)
}

func TestAddXPIgnoresNonPositive(t *testing.T) {
	l, store := newTestLedger(t)
	l.AddXP(50)
	saves := store.saves

	assert.Equal(t, 50, l.AddXP(0).XP)
	assert.Equal(t, 50, l.AddXP(-30).XP)
	assert.Equal(t, saves, store.saves, "ignored awards must not persist")
}

func TestLevelAlwaysMatchesXP(t *testing.T) {
	l, _ := newTestLedger(t)

	prev := 0
	for _, n := range []int{1, 10, 100, 499, 390, 1000, 7, 0, -5, 3333, 12000} {
		snap := l.AddXP(n)
		assert.GreaterOrEqual(t, snap.XP, prev, "xp decreased")
		assert.Equal(t, 1+snap.XP/1000, snap.Level)
		prev = snap.XP
	}
}

func TestRecordMove(t *testing.T) {
	l, store := newTestLedger(t)

	l.RecordMove(10)
	snap := l.RecordMove(10)

	assert.Equal(t, 2, snap.FilesMoved)
	assert.Equal(t, 20, snap.XP)
	assert.Equal(t, snap, store.ledger, "every mutation is persisted")
}

func TestCompleteSession(t *testing.T) {
	l, _ := newTestLedger(t)
	l.AddXP(950)

	snap := l.CompleteSession(100)

	assert.Equal(t, 1, snap.SessionsCompleted)
	assert.Equal(t, 1050, snap.XP)
	assert.Equal(t, 2, snap.Level)
}

func TestAddFocusMinute(t *testing.T) {
	l, _ := newTestLedger(t)

	for i := 0; i < 25; i++ {
		l.AddFocusMinute()
	}

	snap := l.Snapshot()
	assert.Equal(t, 25, snap.MinutesFocused)
	assert.Equal(t, 0, snap.XP)
}

func TestTouchStreakOncePerDay(t *testing.T) {
	l, _ := newTestLedger(t)
	morning := time.Date(2024, 5, 10, 8, 0, 0, 0, time.Local)

	assert.True(t, l.TouchStreak(morning))
	assert.False(t, l.TouchStreak(morning.Add(2*time.Hour)))
	assert.False(t, l.TouchStreak(morning.Add(15*time.Hour)))

	snap := l.Snapshot()
	assert.Equal(t, 1, snap.StreakDays)
	assert.Equal(t, "2024-05-10", snap.LastSessionDate)

	assert.True(t, l.TouchStreak(morning.Add(24*time.Hour)))
	assert.Equal(t, 2, l.Snapshot().StreakDays)
}

func TestTouchStreakAfterGap(t *testing.T) {
	l, _ := newTestLedger(t)
	day := time.Date(2024, 5, 10, 8, 0, 0, 0, time.Local)

	l.TouchStreak(day)
	l.TouchStreak(day.AddDate(0, 0, 5))

	snap := l.Snapshot()
	assert.Equal(t, 2, snap.StreakDays)
	assert.Equal(t, "2024-05-15", snap.LastSessionDate)
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	l, store := newTestLedger(t)
	store.saveErr = errors.New("disk full")

	snap := l.RecordMove(10)

	assert.Equal(t, 1, snap.FilesMoved)
	assert.Equal(t, 10, snap.XP)
}

func TestReset(t *testing.T) {
	l, store := newTestLedger(t)
	l.RecordMove(1500)
	l.TouchStreak(time.Now())

	require.NoError(t, l.Reset())

	snap := l.Snapshot()
	assert.Equal(t, Snapshot{Level: 1}, snap)
	assert.Equal(t, snap, store.ledger)

	store.saveErr = errors.New("disk full")
	assert.Error(t, l.Reset())
}

func TestConcurrentWritersLoseNothing(t *testing.T) {
	const movers, perMover = 10, 100
	l, store := newTestLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < movers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perMover; j++ {
				l.RecordMove(10)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < perMover; j++ {
			l.AddFocusMinute()
		}
	}()
	wg.Wait()

	snap := l.Snapshot()
	assert.Equal(t, movers*perMover, snap.FilesMoved)
	assert.Equal(t, movers*perMover*10, snap.XP)
	assert.Equal(t, perMover, snap.MinutesFocused)
	assert.Equal(t, snap, store.ledger, "last persisted state matches memory")
}
