package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/trickle"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	User   lipgloss.Style
	Error  lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Header lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t trickle.Theme) Styles {
	user := lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(ansiColor(t.UserMsg)).
		PaddingLeft(1)
	return Styles{
		User:   user,
		Error:  lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Muted:  lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent: lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Header: lipgloss.NewStyle().Foreground(ansiColor(t.Muted)),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
