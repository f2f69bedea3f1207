package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DebugPanel shows recent session transitions and command results
type DebugPanel struct {
	enabled bool
	lines   []string
	buffer  int // max lines kept
}

// NewDebugPanel creates a new debug panel
func NewDebugPanel(enabled bool) DebugPanel {
	return DebugPanel{
		enabled: enabled,
		buffer:  100,
	}
}

// IsEnabled returns whether debug mode is enabled
func (d *DebugPanel) IsEnabled() bool {
	return d.enabled
}

// AddEvent records an event line, e.g. "[state] v12 busy=true"
func (d *DebugPanel) AddEvent(eventType string, format string, args ...any) {
	if !d.enabled {
		return
	}
	line := time.Now().Format("15:04:05.000") + " [" + eventType + "]"
	if format != "" {
		line += " " + fmt.Sprintf(format, args...)
	}
	d.lines = append(d.lines, line)
	if len(d.lines) > d.buffer {
		d.lines = d.lines[len(d.lines)-d.buffer:]
	}
}

// Lines returns the current debug lines
func (d *DebugPanel) Lines() []string {
	return d.lines
}

// Render renders the last lines that fit into height rows
func (d *DebugPanel) Render(width, height int) string {
	if !d.enabled {
		return ""
	}

	rows := height - 3
	if rows < 1 {
		rows = 1
	}
	start := 0
	if len(d.lines) > rows {
		start = len(d.lines) - rows
	}

	maxLen := width - 4
	if maxLen < 10 {
		maxLen = 10
	}
	shown := make([]string, 0, rows)
	for _, line := range d.lines[start:] {
		shown = append(shown, truncate(line, maxLen))
	}

	title := lipgloss.NewStyle().Foreground(ColorYellow).Bold(true).Render("DEBUG")
	return lipgloss.NewStyle().
		Width(width - 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(0, 1).
		Render(title + "\n" + strings.Join(shown, "\n"))
}
