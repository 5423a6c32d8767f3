package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#00A8E8") // Blue
	OnColor      = lipgloss.Color("#43BF6D") // Green
	OffColor     = lipgloss.Color("#626262") // Gray
	ErrorColor   = lipgloss.Color("#FF5F5F") // Red
	WarningColor = lipgloss.Color("#FFA500") // Orange

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	// Outlet row (unselected)
	RowStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(TextColor)

	// Outlet row (cursor)
	SelectedRowStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(PrimaryColor).
				Bold(true)

	OnStateStyle  = lipgloss.NewStyle().Foreground(OnColor).Bold(true)
	OffStateStyle = lipgloss.NewStyle().Foreground(OffColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	StaleStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(1, 0)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	PowerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 2).
			MarginTop(1)
)
