package agent

import "errors"

// Errors returned by New for missing collaborators.
var (
	ErrNoSnapshot   = errors.New("configuration snapshot is required")
	ErrNoBus        = errors.New("message bus is required")
	ErrNoScheduler  = errors.New("scheduler is required")
	ErrNoAutomation = errors.New("automation service is required")
	ErrNoLedger     = errors.New("ledger is required")
)
