package display

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/config"
	"github.com/0xmhha/kaizen/pkg/scheduler"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// progressWidth is the bar width of progress lines.
const progressWidth = 20

// TerminalConfig contains terminal notifier configuration.
type TerminalConfig struct {
	// Color enables lipgloss styling
	Color bool

	// Raw writes "\r\n" line endings for a terminal in raw mode
	Raw bool

	// Initial sound and overlay preferences
	Preferences config.PreferencesConfig

	// Clock for line timestamps (default: time.Now)
	Now func() time.Time
}

// Terminal renders bus messages of the running agent as lines.
//
// Notify and moved lines are always written. Phase banners and progress
// lines belong to the session overlay and follow Preferences.Overlay; the
// bell on a phase change follows Preferences.Sound.
//
// Thread-safety: All methods are safe for concurrent use.
type Terminal struct {
	mu        sync.Mutex
	w         io.Writer
	formatter Formatter
	styles    styles
	prefs     config.PreferencesConfig
	now       func() time.Time
}

// NewTerminal creates a terminal notifier writing to w.
func NewTerminal(w io.Writer, cfg TerminalConfig) *Terminal {
	if cfg.Raw {
		w = RawWriter(w)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Terminal{
		w:         w,
		formatter: New(Config{Format: FormatTable, Color: cfg.Color, Compact: true}),
		styles:    newStyles(cfg.Color),
		prefs:     cfg.Preferences,
		now:       cfg.Now,
	}
}

// SetPreferences replaces the sound and overlay preferences.
func (t *Terminal) SetPreferences(prefs config.PreferencesConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefs = prefs
}

// Notify renders one bus message. Unknown tags are ignored.
func (t *Terminal) Notify(msg bus.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.Tag {
	case bus.TagNotify:
		t.line(msg, t.styles.render(t.styles.muted, msg.Text))

	case bus.TagMoved:
		t.line(msg, t.styles.render(t.styles.ok, msg.Text))

	case bus.TagPhase:
		if t.prefs.Sound {
			_, _ = io.WriteString(t.w, "\a")
		}
		if t.prefs.Overlay {
			t.line(msg, t.styles.render(t.styles.phase, "── "+msg.Text+" ──"))
		}

	case bus.TagProgress:
		p, ok := msg.Payload.(scheduler.Progress)
		// One line per whole minute keeps the log readable.
		if !ok || !t.prefs.Overlay || p.SecondsRemaining%60 != 0 {
			return
		}
		t.line(msg, fmt.Sprintf("%-5s %s %3.0f%% %s left",
			p.Mode,
			progressBar(p.Fraction, progressWidth),
			p.Fraction*100,
			formatClock(p.SecondsRemaining)))
	}
}

// ShowStats renders the ledger as a compact table.
func (t *Terminal) ShowStats(snap stats.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.formatter.FormatStats(t.w, snap)
}

// line writes "[15:04:05] text".
func (t *Terminal) line(msg bus.Message, text string) {
	at := msg.At
	if at.IsZero() {
		at = t.now()
	}
	stamp := t.styles.render(t.styles.muted, "["+at.Format("15:04:05")+"]")
	_, _ = fmt.Fprintf(t.w, "%s %s\n", stamp, text)
}

// RawWriter returns a writer that turns "\n" into "\r\n" for a terminal
// in raw mode.
func RawWriter(w io.Writer) io.Writer {
	if _, ok := w.(*crlfWriter); ok {
		return w
	}
	return &crlfWriter{w: w}
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	converted := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	if _, err := c.w.Write(converted); err != nil {
		return 0, err
	}
	return len(p), nil
}
