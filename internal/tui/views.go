package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/view"
)

const (
	historyWidth = 34
	debugHeight  = 8
)

// View renders the current screen
func (m Model) View() string {
	if m.viewMode == ViewModeLogin {
		return m.loginView()
	}
	if !m.ready {
		return "Loading..."
	}
	if m.viewMode == ViewModeHelp {
		return m.helpView()
	}
	return m.dashboardView()
}

// loginView renders the credentials form
func (m Model) loginView() string {
	title := HeaderStyle.Render("Chemical Equipment Visualizer")
	subtitle := DimStyle.Render("Sign in to analyze equipment data")

	userBox, passBox := InputStyle, InputStyle
	if m.loginField == fieldUsername {
		userBox = InputFocusStyle
	} else {
		passBox = InputFocusStyle
	}

	var status string
	switch {
	case m.loggingIn:
		status = StatusRunningStyle.Render(m.spinner() + " Signing in...")
	case m.loginErr != "":
		status = ErrorStyle.Render(m.loginErr)
	default:
		status = DimStyle.Render("tab switch field · enter submit · ctrl+c quit")
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		userBox.Render(m.username.View()),
		passBox.Render(m.password.View()),
		"",
		status,
	)
	box := PanelStyle.Padding(1, 3).Render(form)

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// dashboardView renders history, chart and status
func (m Model) dashboardView() string {
	header := m.renderHeader()

	_, bodyHeight := m.analysisSize()
	sidebar := m.renderHistory(historyWidth, bodyHeight)

	main := PanelStyle.
		Width(m.width - historyWidth - 4).
		Height(bodyHeight).
		Render(m.viewport.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	parts := []string{header, body}
	if m.promptingPath {
		parts = append(parts, InputFocusStyle.Width(m.width-4).Render(m.pathInput.View()))
	}
	parts = append(parts, m.renderStatusBar())
	if m.debug.IsEnabled() {
		parts = append(parts, m.debug.Render(m.width, debugHeight))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader renders the header bar
func (m Model) renderHeader() string {
	title := HeaderStyle.Render("CHEMVIZ")
	subtitle := lipgloss.NewStyle().
		Foreground(ColorFgMuted).
		Render("Chemical Equipment Visualizer")

	var source string
	if m.displayed != nil {
		source = lipgloss.NewStyle().
			Foreground(ColorFgSecondary).
			Render(" · " + view.CleanFilename(m.displayed.Filename))
	}
	return lipgloss.NewStyle().Width(m.width).Render(title+"  "+subtitle+source) + "\n"
}

// renderHistory renders the upload history list
func (m Model) renderHistory(width, height int) string {
	title := PanelTitleStyle.Render("Recent Uploads")

	var rows []string
	if len(m.snap.History) == 0 {
		msg := "No uploads yet"
		if m.refreshing {
			msg = m.spinner() + " Loading..."
		}
		rows = append(rows, DimStyle.Render(msg))
	}

	// keep the cursor visible
	visible := max(1, (height-2)/2)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.snap.History) && i < start+visible; i++ {
		rec := m.snap.History[i]
		name := truncate(view.CleanFilename(rec.Filename), width-6)
		date := HistoryDateStyle.Render("  " + view.FormatDate(rec.UploadedAt))
		if i == m.cursor {
			rows = append(rows, HistorySelectedStyle.Render("▸ "+name), date)
			continue
		}
		rows = append(rows, HistoryItemStyle.Render("  "+name), date)
	}

	return PanelStyle.
		Width(width).
		Height(height).
		Render(title + "\n" + strings.Join(rows, "\n"))
}

// renderAnalysis renders stats and the bar chart of the displayed result
func (m Model) renderAnalysis(width int) string {
	if m.displayed == nil {
		return DimStyle.Render("No data. Press u to upload a CSV or select a past upload.")
	}

	series := view.Project(m.displayed)
	stats := view.Summarize(m.displayed)

	var b strings.Builder
	b.WriteString(PanelTitleStyle.Render(series.Title))
	b.WriteString("\n")
	if stats.Approximate {
		b.WriteString(ApproxStyle.Render("Approximate values derived from the history entry"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderStats(stats))
	b.WriteString("\n\n")
	b.WriteString(renderBars(series, width))
	return b.String()
}

func renderStats(s view.Stats) string {
	card := func(label, value string) string {
		return StatLabelStyle.Render(label+" ") + StatValueStyle.Render(value)
	}
	return strings.Join([]string{
		card("Total Equipment", s.TotalCount),
		card("Avg Pressure", s.AvgPressure),
		card("Avg Temp", s.AvgTemperature),
	}, DimStyle.Render("  │  "))
}

// renderBars draws a horizontal bar per label. Bars above their limit are
// red and the limit position is marked with ┃.
func renderBars(s model.ChartSeries, width int) string {
	if s.Empty() {
		return DimStyle.Render("No distribution data")
	}

	labelWidth := 0
	for _, l := range s.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	labelWidth = min(labelWidth, 24)

	peak := 0.0
	for i, v := range s.Values {
		peak = math.Max(peak, v)
		if i < len(s.Limits) {
			peak = math.Max(peak, s.Limits[i])
		}
	}

	barMax := max(width-labelWidth-14, 10)
	scale := func(v float64) int {
		if peak <= 0 || v <= 0 {
			return 0
		}
		return int(math.Round(v / peak * float64(barMax)))
	}

	lines := make([]string, 0, len(s.Labels)+1)
	for i, label := range s.Labels {
		v := s.Values[i]
		n := scale(v)

		style := BarStyle
		limitAt := -1
		if i < len(s.Limits) {
			limitAt = min(scale(s.Limits[i]), barMax-1)
			if v > s.Limits[i] {
				style = BarOverLimit
			}
		}

		cells := []rune(strings.Repeat("█", n) + strings.Repeat(" ", max(0, barMax-n)))
		bar := style.Render(string(cells))
		if limitAt >= 0 && limitAt < len(cells) {
			bar = style.Render(string(cells[:limitAt])) +
				LimitMarkerStyle.Render("┃") +
				style.Render(string(cells[limitAt+1:]))
		}

		name := BarLabelStyle.Render(fmt.Sprintf("%-*s", labelWidth, truncate(label, labelWidth)))
		lines = append(lines, fmt.Sprintf("%s %s %s", name, bar, formatValue(v)))
	}
	if len(s.Limits) > 0 {
		lines = append(lines, "", LimitMarkerStyle.Render("┃")+DimStyle.Render(" max safety limit"))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// renderStatusBar renders the status line
func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.snap.Busy:
		status = StatusRunningStyle.Render(m.spinner() + " Uploading")
	case m.refreshing:
		status = StatusRunningStyle.Render(m.spinner() + " Refreshing")
	case m.reporting:
		status = StatusRunningStyle.Render(m.spinner() + " Downloading")
	default:
		status = StatusIdleStyle.Render("○ Ready")
	}

	count := lipgloss.NewStyle().
		Foreground(ColorFgMuted).
		Render(fmt.Sprintf(" │ Uploads: %d", len(m.snap.History)))

	var notice string
	if m.notice != "" {
		style := DimStyle
		switch m.noticeKind {
		case noticeSuccess:
			style = SuccessStyle
		case noticeWarning:
			style = WarningStyle
		case noticeError:
			style = ErrorStyle
		}
		notice = DimStyle.Render(" │ ") + style.Render(m.notice)
	}

	line := StatusBarStyle.Render(status + count + notice)
	return line + "\n" + StatusBarStyle.Render(m.help.View(m.keys))
}

// helpView renders the help overlay
func (m Model) helpView() string {
	title := HelpTitleStyle.Render("Keyboard Shortcuts")

	h := m.help
	h.ShowAll = true
	content := title + "\n\n" + h.View(m.keys) + "\n\n" + DimStyle.Render("Press ? or Esc to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		HelpStyle.Render(content),
	)
}

// analysisSize returns the inner size of the chart panel
func (m Model) analysisSize() (int, int) {
	// header 2, status 2, borders 2
	height := m.height - 6
	if m.debug.IsEnabled() {
		height -= debugHeight
	}
	if m.promptingPath {
		height -= 3
	}
	width := m.width - historyWidth - 8
	return max(width, 20), max(height, 3)
}

func (m Model) spinner() string {
	return spinnerFrames[m.spinnerIndex%len(spinnerFrames)]
}

// truncate shortens s to max runes
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
