package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/kaizen/pkg/aggregator"
	"github.com/0xmhha/kaizen/pkg/mover"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatStats implements Formatter.FormatStats.
func (f *simpleFormatter) FormatStats(w io.Writer, snap stats.Snapshot) error {
	_, err := fmt.Fprintf(w, "Level %d (%s) | XP: %s | Files: %s | Focus: %s | Sessions: %d | Streak: %s\n",
		snap.Level,
		snap.Rank().Name,
		formatNumber(snap.XP),
		formatNumber(snap.FilesMoved),
		formatMinutes(snap.MinutesFocused),
		snap.SessionsCompleted,
		plural(snap.StreakDays, "day"))
	return err
}

// FormatOutcomes implements Formatter.FormatOutcomes.
func (f *simpleFormatter) FormatOutcomes(w io.Writer, outcomes []mover.Outcome) error {
	for _, out := range outcomes {
		var err error
		if out.Succeeded {
			_, err = fmt.Fprintf(w, "moved %s -> %s\n", out.SourceName, out.DestinationPath)
		} else {
			_, err = fmt.Fprintf(w, "failed %s (%s): %s\n", out.SourceName, out.Category, outcomeError(out))
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// FormatSummary implements Formatter.FormatSummary.
func (f *simpleFormatter) FormatSummary(w io.Writer, total aggregator.Statistics, groups []aggregator.Group) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "%s: %d moved, %d failed\n", g.Key, g.Moved, g.Failed); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Total: %d moved, %d failed, %.1f attempts per file\n",
		total.Moved, total.Failed, total.AvgAttempts())
	return err
}
