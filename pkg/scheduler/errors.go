package scheduler

import "errors"

// Common errors returned by the scheduler.
var (
	// ErrNoLedger is returned when no ledger is supplied.
	ErrNoLedger = errors.New("ledger is required")

	// ErrNoBus is returned when no message bus is supplied.
	ErrNoBus = errors.New("message bus is required")
)
