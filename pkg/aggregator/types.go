// Package aggregator summarizes move history.
//
// It groups move outcomes by category and time window and reports how
// many files were moved or failed and how many attempts the moves took.
//
// Example usage:
//
//	agg := aggregator.New(aggregator.Config{
//	    GroupBy: []aggregator.Dimension{aggregator.DimCategory},
//	})
//
//	for _, out := range outcomes {
//	    agg.Add(out)
//	}
//
//	total := agg.Stats()
//	fmt.Printf("Moved %d of %d files\n", total.Moved, total.Count)
//	for _, g := range agg.Groups() {
//	    fmt.Printf("%s: %d\n", g.Key, g.Moved)
//	}
package aggregator

import (
	"time"

	"github.com/0xmhha/kaizen/pkg/mover"
)

// Dimension represents an aggregation dimension.
type Dimension string

const (
	// DimCategory aggregates by category name.
	DimCategory Dimension = "category"

	// DimDate aggregates by local date (YYYY-MM-DD).
	DimDate Dimension = "date"

	// DimHour aggregates by local hour (YYYY-MM-DD HH:00).
	DimHour Dimension = "hour"

	// DimResult aggregates by outcome ("moved" or "failed").
	DimResult Dimension = "result"
)

// Aggregator computes move statistics.
type Aggregator interface {
	// Add adds a move outcome to the aggregator.
	Add(out mover.Outcome)

	// Stats returns statistics across all outcomes.
	Stats() Statistics

	// Groups returns statistics per combination of the configured
	// dimensions, most moved first, then by key.
	//
	// Returns nil when no dimension is configured.
	Groups() []Group

	// Reset clears all aggregated data.
	Reset()
}

// Statistics contains aggregated move statistics.
type Statistics struct {
	// Count is the number of outcomes.
	Count int `json:"count"`

	// Moved is the number of successful moves.
	Moved int `json:"moved"`

	// Failed is the number of moves that exhausted their attempts.
	Failed int `json:"failed"`

	// Attempts is the sum of attempts over all outcomes.
	Attempts int `json:"attempts"`

	// Retried is the number of outcomes that needed more than one attempt.
	Retried int `json:"retried"`

	// MaxAttempts is the highest attempt count of any outcome.
	MaxAttempts int `json:"max_attempts"`

	// FirstSeen is the time of the earliest outcome.
	FirstSeen time.Time `json:"first_seen"`

	// LastSeen is the time of the latest outcome.
	LastSeen time.Time `json:"last_seen"`
}

// AvgAttempts returns the mean attempts per outcome.
func (s Statistics) AvgAttempts() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Attempts) / float64(s.Count)
}

// Group is the statistics of one dimension combination.
type Group struct {
	// Key joins the dimension values with " / ", in GroupBy order.
	Key string `json:"key"`

	Statistics
}

// Config contains aggregator configuration.
type Config struct {
	// GroupBy specifies aggregation dimensions.
	//
	// Examples:
	//   - [DimCategory] - per category
	//   - [DimDate, DimCategory] - per day and category
	//
	// Default: no grouping (overall stats only).
	GroupBy []Dimension

	// Location used for date and hour keys (default: time.Local)
	Location *time.Location
}

// ParseDimensions parses a comma-separated dimension list.
//
// Returns ErrUnknownDimension for names outside the known set.
func ParseDimensions(s string) ([]Dimension, error) {
	return parseDimensions(s)
}
