package bubbletea_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/trickle"
	bt "github.com/fwojciec/trickle/bubbletea"
	"github.com/stretchr/testify/require"
)

var testInfo = bt.Info{Provider: "ollama", Model: "gemma3:1b"}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, send bt.SendFunc) bt.Model {
	t.Helper()
	return initModelWithSize(t, send, &trickle.Session{}, 80, 24)
}

func initModelWithSize(t *testing.T, send bt.SendFunc, session *trickle.Session, width, height int) bt.Model {
	t.Helper()
	m := bt.New(send, session, testInfo, trickle.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func nopSend(context.Context, *trickle.Session, func(string)) error {
	return nil
}
