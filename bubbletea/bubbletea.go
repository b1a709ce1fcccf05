// Package bubbletea provides a Bubble Tea TUI for chatting with a provider.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/trickle"
)

// SendFunc runs one conversation turn. onUpdate receives the full reply text
// after every delta. The function blocks until the reply completes, fails, or
// the context is cancelled.
type SendFunc func(ctx context.Context, session *trickle.Session, onUpdate func(text string)) error

// Info describes what the header shows.
type Info struct {
	Provider string
	Model    string
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// UpdateMsg carries the reply text so far to the model.
type UpdateMsg struct {
	Text string
}

// DoneMsg signals that the turn has finished.
type DoneMsg struct {
	Err error
}
