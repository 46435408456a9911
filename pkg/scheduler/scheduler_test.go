package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/logger"
	"github.com/0xmhha/kaizen/pkg/stats"
)

type fixture struct {
	sched  Scheduler
	ledger stats.Ledger
	bus    *bus.Bus
	now    time.Time
}

func newFixture(t *testing.T, work, brk time.Duration) *fixture {
	t.Helper()

	ledger, err := stats.New(stats.Config{}, logger.Noop())
	require.NoError(t, err)

	f := &fixture{
		ledger: ledger,
		bus:    bus.New(),
		now:    time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local),
	}

	f.sched, err = New(Config{
		WorkDuration:  work,
		BreakDuration: brk,
		XPPerSession:  100,
		Now:           func() time.Time { return f.now },
	}, ledger, f.bus, logger.Noop())
	require.NoError(t, err)

	return f
}

func (f *fixture) phaseMessages() []bus.Message {
	var out []bus.Message
	for _, msg := range f.bus.Drain() {
		if msg.Tag == bus.TagPhase {
			out = append(out, msg)
		}
	}
	return out
}

func TestNewRequiresCollaborators(t *testing.T) {
	ledger, err := stats.New(stats.Config{}, logger.Noop())
	require.NoError(t, err)

	_, err = New(Config{}, nil, bus.New(), logger.Noop())
	assert.ErrorIs(t, err, ErrNoLedger)

	_, err = New(Config{}, ledger, nil, logger.Noop())
	assert.ErrorIs(t, err, ErrNoBus)
}

func TestInitialState(t *testing.T) {
	f := newFixture(t, 25*time.Minute, 5*time.Minute)

	st := f.sched.State()
	assert.Equal(t, ModeWork, st.Mode)
	assert.Equal(t, 1500, st.SecondsRemaining)
	assert.False(t, st.Active)
	assert.False(t, f.sched.Tick(), "idle scheduler must not re-arm")
	assert.Equal(t, 1500, f.sched.State().SecondsRemaining)
}

func TestStart(t *testing.T) {
	f := newFixture(t, 25*time.Minute, 5*time.Minute)

	require.True(t, f.sched.Start())
	st := f.sched.State()
	assert.True(t, st.Active)
	assert.Equal(t, ModeWork, st.Mode)
	assert.Equal(t, 1500, st.SecondsRemaining)
	assert.Equal(t, 1500, st.TotalSeconds)
	assert.Equal(t, 1, f.ledger.Snapshot().StreakDays)

	assert.False(t, f.sched.Start(), "second start is a no-op")
}

func TestTickDecrementsByOne(t *testing.T) {
	f := newFixture(t, time.Minute, time.Minute)
	f.sched.Start()

	prev := f.sched.State().SecondsRemaining
	for i := 0; i < 59; i++ {
		require.True(t, f.sched.Tick())
		cur := f.sched.State().SecondsRemaining
		assert.Equal(t, prev-1, cur)
		assert.GreaterOrEqual(t, cur, 0)
		prev = cur
	}
}

func TestWorkPhaseCompletes(t *testing.T) {
	f := newFixture(t, 25*time.Minute, 5*time.Minute)
	f.sched.Start()
	f.bus.Drain()

	for i := 0; i < 1499; i++ {
		require.True(t, f.sched.Tick())
	}
	assert.Equal(t, 1, f.sched.State().SecondsRemaining)
	assert.Empty(t, f.phaseMessages())

	require.True(t, f.sched.Tick())

	st := f.sched.State()
	assert.Equal(t, ModeBreak, st.Mode)
	assert.Equal(t, 300, st.SecondsRemaining)
	assert.Equal(t, 300, st.TotalSeconds)
	assert.True(t, st.Active)

	snap := f.ledger.Snapshot()
	assert.Equal(t, 1, snap.SessionsCompleted)
	assert.Equal(t, 100, snap.XP)
	assert.Equal(t, 25, snap.MinutesFocused)

	phases := f.phaseMessages()
	require.Len(t, phases, 1)
	assert.Equal(t, RestMessage, phases[0].Text)
	assert.Equal(t, Phase{From: ModeWork, To: ModeBreak}, phases[0].Payload)
}

func TestBreakPhaseAwardsNothing(t *testing.T) {
	f := newFixture(t, time.Minute, 2*time.Minute)
	f.sched.Start()

	for i := 0; i < 60; i++ {
		f.sched.Tick()
	}
	require.Equal(t, ModeBreak, f.sched.State().Mode)
	before := f.ledger.Snapshot()
	f.bus.Drain()

	for i := 0; i < 120; i++ {
		require.True(t, f.sched.Tick())
	}

	st := f.sched.State()
	assert.Equal(t, ModeWork, st.Mode)
	assert.Equal(t, 60, st.SecondsRemaining)

	after := f.ledger.Snapshot()
	assert.Equal(t, before.XP, after.XP)
	assert.Equal(t, before.SessionsCompleted, after.SessionsCompleted)
	assert.Equal(t, before.MinutesFocused, after.MinutesFocused, "break minutes are not focus minutes")

	phases := f.phaseMessages()
	require.Len(t, phases, 1)
	assert.Equal(t, WorkMessage, phases[0].Text)
}

func TestSessionsFreeRun(t *testing.T) {
	f := newFixture(t, time.Minute, time.Minute)
	f.sched.Start()

	for i := 0; i < 60*6; i++ {
		require.True(t, f.sched.Tick())
	}

	snap := f.ledger.Snapshot()
	assert.Equal(t, 3, snap.SessionsCompleted)
	assert.Equal(t, 300, snap.XP)
	assert.Equal(t, 3, snap.MinutesFocused)
	assert.Equal(t, ModeWork, f.sched.State().Mode)
}

func TestStopKeepsState(t *testing.T) {
	f := newFixture(t, 2*time.Minute, time.Minute)
	f.sched.Start()
	for i := 0; i < 30; i++ {
		f.sched.Tick()
	}

	require.True(t, f.sched.Stop())
	assert.False(t, f.sched.Stop())

	st := f.sched.State()
	assert.False(t, st.Active)
	assert.Equal(t, 90, st.SecondsRemaining)

	assert.False(t, f.sched.Tick())
	assert.Equal(t, 90, f.sched.State().SecondsRemaining)

	f.sched.Start()
	assert.Equal(t, 120, f.sched.State().SecondsRemaining, "start always resets to a full WORK phase")
}

func TestToggle(t *testing.T) {
	f := newFixture(t, time.Minute, time.Minute)

	assert.True(t, f.sched.Toggle())
	assert.True(t, f.sched.State().Active)
	assert.False(t, f.sched.Toggle())
	assert.False(t, f.sched.State().Active)
}

func TestStreakOncePerDay(t *testing.T) {
	f := newFixture(t, time.Minute, time.Minute)

	for i := 0; i < 4; i++ {
		f.sched.Start()
		f.sched.Stop()
		f.now = f.now.Add(time.Hour)
	}
	assert.Equal(t, 1, f.ledger.Snapshot().StreakDays)

	f.now = f.now.AddDate(0, 0, 1)
	f.sched.Start()
	assert.Equal(t, 2, f.ledger.Snapshot().StreakDays)
}

func TestProgressMessages(t *testing.T) {
	f := newFixture(t, time.Minute, time.Minute)
	f.sched.Start()

	msgs := f.bus.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, bus.TagProgress, msgs[0].Tag)
	assert.Equal(t, 0.0, msgs[0].Payload.(Progress).Fraction)

	for i := 0; i < 30; i++ {
		f.sched.Tick()
	}
	msgs = f.bus.Drain()
	require.Len(t, msgs, 30)
	last := msgs[len(msgs)-1].Payload.(Progress)
	assert.InDelta(t, 0.5, last.Fraction, 1e-9)
	assert.Equal(t, 30, last.SecondsRemaining)
}

func TestSetDurations(t *testing.T) {
	f := newFixture(t, 2*time.Minute, time.Minute)

	f.sched.SetDurations(3*time.Minute, 0)
	assert.Equal(t, 180, f.sched.State().SecondsRemaining, "idle scheduler shows the new length")

	f.sched.Start()
	for i := 0; i < 10; i++ {
		f.sched.Tick()
	}
	f.sched.SetDurations(time.Minute, 2*time.Minute)
	assert.Equal(t, 170, f.sched.State().SecondsRemaining, "running phase keeps its length")

	for i := 0; i < 170; i++ {
		f.sched.Tick()
	}
	st := f.sched.State()
	assert.Equal(t, ModeBreak, st.Mode)
	assert.Equal(t, 120, st.SecondsRemaining)
}

func TestStateProgress(t *testing.T) {
	assert.Equal(t, 0.0, State{}.Progress())
	assert.Equal(t, 0.25, State{TotalSeconds: 100, SecondsRemaining: 75}.Progress())
}
