// Package render formats diagnostics and contract reports for terminals.
package render

import "github.com/charmbracelet/lipgloss"

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var (
	errorLabel = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	warningLabel = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Bold(true)

	arrowStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	noteLabel = lipgloss.NewStyle().
			Foreground(colorCyan)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	passedStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)
)
