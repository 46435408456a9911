package stats

import "errors"

// Common errors returned by the stats package.
var (
	// ErrNoDBPath is returned when the bolt store has no database path.
	ErrNoDBPath = errors.New("database path is required")

	// ErrStoreClosed is returned when using a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrCorruptLedger is returned when the stored ledger cannot be decoded.
	ErrCorruptLedger = errors.New("stored ledger is corrupt")
)
