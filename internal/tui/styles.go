package tui

import "github.com/charmbracelet/lipgloss"

// One Dark Pro color palette
var (
	// Background colors
	ColorBgPrimary   = lipgloss.Color("#282C34")
	ColorBgHighlight = lipgloss.Color("#2C313C")

	// Foreground colors
	ColorFgPrimary   = lipgloss.Color("#ABB2BF")
	ColorFgSecondary = lipgloss.Color("#828997")
	ColorFgMuted     = lipgloss.Color("#636B78")
	ColorFgComment   = lipgloss.Color("#5C6370")

	// Syntax colors
	ColorRed     = lipgloss.Color("#E06C75")
	ColorGreen   = lipgloss.Color("#98C379")
	ColorYellow  = lipgloss.Color("#E5C07B")
	ColorBlue    = lipgloss.Color("#61AFEF")
	ColorMagenta = lipgloss.Color("#C678DD")
	ColorCyan    = lipgloss.Color("#56B6C2")
	ColorOrange  = lipgloss.Color("#D19A66")

	// UI colors
	ColorBorder = lipgloss.Color("#3F4451")
)

// Component styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true).PaddingLeft(1)

	// Panels
	PanelStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(0, 1)
	PanelTitleStyle = lipgloss.NewStyle().Foreground(ColorMagenta).Bold(true)

	// History list
	HistoryItemStyle     = lipgloss.NewStyle().Foreground(ColorFgPrimary)
	HistorySelectedStyle = lipgloss.NewStyle().Foreground(ColorBlue).Background(ColorBgHighlight).Bold(true)
	HistoryDateStyle     = lipgloss.NewStyle().Foreground(ColorFgComment)

	// Chart
	BarStyle         = lipgloss.NewStyle().Foreground(ColorCyan)
	BarOverLimit     = lipgloss.NewStyle().Foreground(ColorRed)
	BarLabelStyle    = lipgloss.NewStyle().Foreground(ColorFgSecondary)
	LimitMarkerStyle = lipgloss.NewStyle().Foreground(ColorOrange)
	ApproxStyle      = lipgloss.NewStyle().Foreground(ColorYellow).Italic(true)

	// Stat cards
	StatLabelStyle = lipgloss.NewStyle().Foreground(ColorFgMuted)
	StatValueStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)

	// Status bar
	StatusBarStyle     = lipgloss.NewStyle().Foreground(ColorFgMuted).PaddingLeft(1).PaddingRight(1)
	StatusRunningStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	StatusIdleStyle    = lipgloss.NewStyle().Foreground(ColorFgMuted)

	// Input
	InputStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(0, 1)
	InputFocusStyle  = InputStyle.BorderForeground(ColorBlue)
	InputPromptStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	// Help overlay
	HelpStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(1, 2)
	HelpTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)

	// Notices
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	DimStyle     = lipgloss.NewStyle().Foreground(ColorFgComment)
)
