package automation

import "errors"

// Common errors returned by the automation service.
var (
	// ErrNoLedger is returned when the service is built without a ledger.
	ErrNoLedger = errors.New("ledger is required")

	// ErrNoBus is returned when the service is built without a bus.
	ErrNoBus = errors.New("message bus is required")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("automation service already started")

	// ErrStopped is returned when the service is used after Stop.
	ErrStopped = errors.New("automation service stopped")

	// ErrNoSnapshot is returned by Purge before any snapshot was applied.
	ErrNoSnapshot = errors.New("no configuration snapshot")

	// ErrInvalidSnapshot wraps a snapshot that failed validation.
	ErrInvalidSnapshot = errors.New("invalid configuration snapshot")
)
