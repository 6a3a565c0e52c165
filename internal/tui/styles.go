package tui

import "github.com/charmbracelet/lipgloss"

const cursorMark = "▸ "

// Header and prompts.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	taglineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Progress and outcomes.
var (
	busyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	foundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
)

// Result list.
var (
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	rowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	// tagStyle marks logs from a debug-build archive.
	tagStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("232")).
			Background(lipgloss.Color("208")).
			Padding(0, 1)
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
)
