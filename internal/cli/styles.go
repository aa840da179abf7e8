package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	userColor    = color.New(color.Bold)
	aiColor      = color.New(color.FgCyan)
	hintColor    = color.New(color.FgHiYellow)
	noticeColor  = color.New(color.FgHiBlack)
	errorColor   = color.New(color.FgRed)
	promptColor  = color.New(color.FgHiBlue)
	commandColor = color.New(color.FgGreen)
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	accentColor  = lipgloss.Color("#F59E0B")
	mutedColor   = lipgloss.Color("#6B7280")
	successColor = lipgloss.Color("#10B981")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(primaryColor).
			Padding(0, 1)

	metaStyle = lipgloss.NewStyle().Foreground(mutedColor)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	activeStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

const (
	titleLimit     = 30
	truncateSuffix = "..."
)

// truncateTitle shortens a conversation title for list display.
func truncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= titleLimit {
		return title
	}
	return string(r[:titleLimit]) + truncateSuffix
}
