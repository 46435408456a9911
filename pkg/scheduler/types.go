// Package scheduler runs the WORK/BREAK focus session state machine.
//
// The scheduler is driven from outside: the owning loop calls Tick once
// per elapsed time unit and re-arms its timer only while Tick returns
// true. It never starts goroutines or timers of its own, and it is not
// safe for concurrent use; other goroutines talk to it through the bus.
//
// Example usage:
//
//	s, err := scheduler.New(scheduler.Config{
//	    WorkDuration:  25 * time.Minute,
//	    BreakDuration: 5 * time.Minute,
//	    XPPerSession:  100,
//	}, ledger, messages, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s.Start()
//	for s.Tick() {
//	    time.Sleep(time.Second)
//	}
package scheduler

import "time"

// Mode is the session phase.
type Mode string

// Session phases.
const (
	ModeWork  Mode = "WORK"
	ModeBreak Mode = "BREAK"
)

// Phase messages posted on a switch.
const (
	RestMessage = "Rest."
	WorkMessage = "Work."
)

// State is a copy of the session state.
type State struct {
	Mode             Mode `json:"mode"`
	SecondsRemaining int  `json:"seconds_remaining"`
	TotalSeconds     int  `json:"total_seconds"`
	Active           bool `json:"active"`
}

// Progress returns (Total - Remaining) / Total, or 0 when Total is 0.
func (s State) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	return float64(s.TotalSeconds-s.SecondsRemaining) / float64(s.TotalSeconds)
}

// Progress is the payload of a progress message.
type Progress struct {
	Mode             Mode    `json:"mode"`
	Fraction         float64 `json:"fraction"`
	SecondsRemaining int     `json:"seconds_remaining"`
}

// Phase is the payload of a phase message.
type Phase struct {
	From Mode `json:"from"`
	To   Mode `json:"to"`
}

// Scheduler drives focus sessions.
type Scheduler interface {
	// Start activates an idle scheduler in WORK with the full duration
	// and registers today's streak.
	//
	// Returns false when already active.
	Start() bool

	// Stop deactivates the scheduler. Mode and remaining time are kept.
	//
	// Returns false when already idle.
	Stop() bool

	// Toggle starts an idle scheduler or stops an active one.
	//
	// Returns whether the scheduler is active afterwards.
	Toggle() bool

	// Tick advances the session by one second.
	//
	// Returns whether the next tick should be armed.
	Tick() bool

	// SetDurations replaces the phase lengths. A running phase keeps its
	// length; the next phase or Start uses the new values.
	SetDurations(work, brk time.Duration)

	// State returns a copy of the session state.
	State() State
}

// Config contains scheduler configuration.
type Config struct {
	// WORK phase length (default: 25m)
	WorkDuration time.Duration

	// BREAK phase length (default: 5m)
	BreakDuration time.Duration

	// Experience awarded when a WORK phase completes
	XPPerSession int

	// Clock used for the streak date (default: time.Now)
	Now func() time.Time
}
