package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7C3AED")
	BuyColor     = lipgloss.Color("#10B981")
	SellColor    = lipgloss.Color("#EF4444")
	AccentColor  = lipgloss.Color("#F59E0B")
	BorderColor  = lipgloss.Color("#374151")
	TextColor    = lipgloss.Color("#F9FAFB")
	MutedColor   = lipgloss.Color("#6B7280")
)

var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(22)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	CursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	RunningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(BuyColor)

	StoppedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	BusyStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(BuyColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(SellColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// levelStyle colours a journal or notification level.
func levelStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return ErrorStyle
	case "success":
		return SuccessStyle
	default:
		return ValueStyle
	}
}
