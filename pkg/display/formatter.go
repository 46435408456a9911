package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// New creates a new formatter based on configuration.
//
// Parameters:
//   - cfg: Formatter configuration
//
// Returns a configured Formatter.
func New(cfg Config) Formatter {
	// Set defaults.
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg, styles: newStyles(cfg.Color)}
	}
}

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatSimple:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or simple)", s)
	}
}

// styles holds the lipgloss styles of one renderer. A disabled set
// renders text unchanged.
type styles struct {
	enabled bool
	title   lipgloss.Style
	header  lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
	phase   lipgloss.Style
}

func newStyles(enabled bool) styles {
	return styles{
		enabled: enabled,
		title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#74c7ec")).Bold(true),
		header:  lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
		phase:   lipgloss.NewStyle().Foreground(lipgloss.Color("#b4befe")).Bold(true),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Convert to string and add commas.
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// formatMinutes formats a minute count as "1h 05m".
func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// formatClock formats seconds as mm:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// progressBar draws fraction (0..1) as a bar of width cells.
func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// plural returns "1 day" / "3 days".
func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool, st styles) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", st.render(st.title, title))
		return err
	}

	separator := strings.Repeat("=", lipgloss.Width(title))
	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", st.render(st.title, title), separator)
	return err
}
