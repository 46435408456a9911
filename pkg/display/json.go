package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/kaizen/pkg/aggregator"
	"github.com/0xmhha/kaizen/pkg/mover"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// FormatStats implements Formatter.FormatStats.
func (f *jsonFormatter) FormatStats(w io.Writer, snap stats.Snapshot) error {
	return f.encode(w, NewStatsView(snap))
}

// FormatOutcomes implements Formatter.FormatOutcomes.
func (f *jsonFormatter) FormatOutcomes(w io.Writer, outcomes []mover.Outcome) error {
	// Err is not serialized; carry its text.
	out := make([]mover.Outcome, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil && o.Error == "" {
			o.Error = o.Err.Error()
		}
		out[i] = o
	}

	return f.encode(w, out)
}

// FormatSummary implements Formatter.FormatSummary.
func (f *jsonFormatter) FormatSummary(w io.Writer, total aggregator.Statistics, groups []aggregator.Group) error {
	return f.encode(w, SummaryView{Total: total, Groups: groups})
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}

	return encoder.Encode(v)
}
