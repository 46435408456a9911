// Package display renders progression stats, move outcomes and live
// notifications for the terminal.
//
// It supports multiple output formats (table, JSON, simple text) for the
// one-shot commands, and a Terminal notifier for the running agent.
package display

import (
	"io"

	"github.com/0xmhha/kaizen/pkg/aggregator"
	"github.com/0xmhha/kaizen/pkg/mover"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays data in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays data in simple text format.
	FormatSimple Format = "simple"
)

// Formatter formats ledger snapshots and move outcomes.
type Formatter interface {
	// FormatStats formats a ledger snapshot with its level and rank.
	//
	// Parameters:
	//   - w: Output writer
	//   - snap: Ledger snapshot to format
	//
	// Returns error if formatting fails.
	FormatStats(w io.Writer, snap stats.Snapshot) error

	// FormatOutcomes formats move outcomes in the given order.
	//
	// Parameters:
	//   - w: Output writer
	//   - outcomes: Outcomes to format
	//
	// Returns error if formatting fails.
	FormatOutcomes(w io.Writer, outcomes []mover.Outcome) error

	// FormatSummary formats aggregated move history.
	//
	// Parameters:
	//   - w: Output writer
	//   - total: Statistics across all outcomes
	//   - groups: Per-group statistics, already ordered
	//
	// Returns error if formatting fails.
	FormatSummary(w io.Writer, total aggregator.Statistics, groups []aggregator.Group) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Color enables lipgloss styling of titles and results.
	// Default: false.
	Color bool

	// ShowTimestamps enables timestamp display.
	// Default: false.
	ShowTimestamps bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}

// StatsView is the JSON shape of a ledger snapshot.
type StatsView struct {
	stats.Snapshot

	RankName string `json:"rank"`
	NextRank string `json:"next_rank,omitempty"`
	XPToNext int    `json:"xp_to_next,omitempty"`
}

// NewStatsView derives the rank fields of snap.
func NewStatsView(snap stats.Snapshot) StatsView {
	view := StatsView{
		Snapshot: snap,
		RankName: snap.Rank().Name,
	}
	if next, ok := stats.NextRank(snap.XP); ok {
		view.NextRank = next.Name
		view.XPToNext = next.Threshold - snap.XP
	}
	return view
}

// SummaryView is the JSON shape of aggregated move history.
type SummaryView struct {
	Total  aggregator.Statistics `json:"total"`
	Groups []aggregator.Group    `json:"groups,omitempty"`
}
