package tui

import "github.com/charmbracelet/lipgloss"

// One Dark palette
var (
	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")
	ColorRed       = lipgloss.Color("#E06C75")
	ColorGreen     = lipgloss.Color("#98C379")
	ColorYellow    = lipgloss.Color("#E5C07B")
	ColorBlue      = lipgloss.Color("#61AFEF")
	ColorMagenta   = lipgloss.Color("#C678DD")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	// Letter cells: normal, under the cursor, picked up, solved
	LetterStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary).
			Bold(true)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true).
			Underline(true)

	PickedStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	SolvedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	GapStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	MessageStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)
)
