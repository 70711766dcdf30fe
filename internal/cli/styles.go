package cli

import "github.com/charmbracelet/lipgloss"

var (
	// Header styling for pipeline steps
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	// Paths and other secondary details
	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)
