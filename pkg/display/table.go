package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/0xmhha/kaizen/pkg/aggregator"
	"github.com/0xmhha/kaizen/pkg/mover"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
	styles styles
}

// FormatStats implements Formatter.FormatStats.
func (f *tableFormatter) FormatStats(w io.Writer, snap stats.Snapshot) error {
	if err := writeHeader(w, "Kaizen Progress", f.config.Compact, f.styles); err != nil {
		return err
	}

	view := NewStatsView(snap)

	xp := formatNumber(snap.XP)
	if view.NextRank != "" {
		xp = fmt.Sprintf("%s (%s to %s)", xp, formatNumber(view.XPToNext), view.NextRank)
	}

	last := snap.LastSessionDate
	if last == "" {
		last = "never"
	}

	rows := [][]string{
		{"Level", formatNumber(snap.Level)},
		{"Rank", view.RankName},
		{"XP", xp},
		{"Files Moved", formatNumber(snap.FilesMoved)},
		{"Focus Time", formatMinutes(snap.MinutesFocused)},
		{"Sessions", formatNumber(snap.SessionsCompleted)},
		{"Streak", plural(snap.StreakDays, "day")},
		{"Last Session", last},
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// FormatOutcomes implements Formatter.FormatOutcomes.
func (f *tableFormatter) FormatOutcomes(w io.Writer, outcomes []mover.Outcome) error {
	if err := writeHeader(w, "File Moves", f.config.Compact, f.styles); err != nil {
		return err
	}

	header := []string{"File", "Category", "Result", "Attempts", "Detail"}
	if f.config.ShowTimestamps {
		header = append([]string{"Time"}, header...)
	}

	rows := make([][]string, 0, len(outcomes))
	for _, out := range outcomes {
		result := f.styles.render(f.styles.ok, "moved")
		detail := out.DestinationPath
		if !out.Succeeded {
			result = f.styles.render(f.styles.fail, "failed")
			detail = outcomeError(out)
		}

		row := []string{
			out.SourceName,
			out.Category,
			result,
			formatNumber(out.Attempts),
			detail,
		}
		if f.config.ShowTimestamps {
			row = append([]string{out.FinishedAt.Format("2006-01-02 15:04:05")}, row...)
		}
		rows = append(rows, row)
	}

	return f.writeTable(w, header, rows)
}

// FormatSummary implements Formatter.FormatSummary.
func (f *tableFormatter) FormatSummary(w io.Writer, total aggregator.Statistics, groups []aggregator.Group) error {
	if err := writeHeader(w, "Move Summary", f.config.Compact, f.styles); err != nil {
		return err
	}

	header := []string{"Group", "Files", "Moved", "Failed", "Retried", "Avg Attempts"}
	rows := make([][]string, 0, len(groups)+1)
	for _, g := range groups {
		rows = append(rows, summaryRow(g.Key, g.Statistics))
	}
	if total.Count > 0 {
		rows = append(rows, summaryRow(f.styles.render(f.styles.header, "Total"), total))
	}

	return f.writeTable(w, header, rows)
}

func summaryRow(key string, s aggregator.Statistics) []string {
	return []string{
		key,
		formatNumber(s.Count),
		formatNumber(s.Moved),
		formatNumber(s.Failed),
		formatNumber(s.Retried),
		fmt.Sprintf("%.1f", s.AvgAttempts()),
	}
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Calculate column widths; styled cells are measured without escapes.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	// Write header.
	styled := make([]string, len(header))
	for i, h := range header {
		styled[i] = f.styles.render(f.styles.header, h)
	}
	if err := f.writeRow(w, styled, widths); err != nil {
		return err
	}

	// Write separator.
	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	// Write rows.
	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	// Add spacing.
	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		b.WriteString(cell)

		// The last column is not padded.
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
		}
	}

	_, err := fmt.Fprintln(w, b.String())
	return err
}

// outcomeError returns the failure text of out.
func outcomeError(out mover.Outcome) string {
	if out.Error != "" {
		return out.Error
	}
	if out.Err != nil {
		return out.Err.Error()
	}
	return "unknown error"
}
