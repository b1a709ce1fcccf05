package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/trickle"
	bt "github.com/fwojciec/trickle/bubbletea"
	"github.com/fwojciec/trickle/chat"
	trhttp "github.com/fwojciec/trickle/http"
	"github.com/fwojciec/trickle/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(nopSend, &trickle.Session{}, testInfo, trickle.DefaultTheme())

	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)

		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 19, m.Viewport.Height) // 24 - header - status - input - 2
	})

	t.Run("resize updates viewport and re-renders content", func(t *testing.T) {
		t.Parallel()

		m := initModelWithSize(t, nopSend, &trickle.Session{}, 30, 20)
		m = updateModel(t, m, bt.UpdateMsg{Text: "word1 word2 word3 word4 word5 word6 word7 word8"})
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

		assert.Equal(t, 120, m.Viewport.Width)
		assert.Equal(t, 35, m.Viewport.Height)

		found := false
		for _, line := range strings.Split(m.Viewport.View(), "\n") {
			if strings.Contains(line, "word1") && strings.Contains(line, "word8") {
				found = true
			}
		}
		assert.True(t, found, "expected one line after widening:\n%s", m.Viewport.View())
	})

	t.Run("header shows provider, model and session", func(t *testing.T) {
		t.Parallel()

		session := &trickle.Session{ID: "0123456789abcdef"}
		m := initModelWithSize(t, nopSend, session, 80, 24)
		header := strings.Split(m.View(), "\n")[0]

		assert.Contains(t, header, "ollama · gemma3:1b")
		assert.Contains(t, header, "01234567")
		assert.NotContains(t, header, "89abcdef")
	})

	t.Run("ctrl+c when idle quits", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("ctrl+c when running cancels", func(t *testing.T) {
		t.Parallel()

		var cancelled bool
		m := bt.SetRunning(initModel(t, nopSend), func() { cancelled = true })
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		assert.True(t, cancelled)
		assert.Nil(t, cmd)
		assert.True(t, updated.(bt.Model).Running())
	})

	t.Run("enter with empty input does nothing", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		m.Input.SetValue("   ")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.False(t, updated.(bt.Model).Running())
		assert.Nil(t, cmd)
	})

	t.Run("enter while running is ignored", func(t *testing.T) {
		t.Parallel()

		session := &trickle.Session{}
		m := bt.SetRunning(initModelWithSize(t, nopSend, session, 80, 24), func() {})
		m.Input.SetValue("again")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		assert.Empty(t, session.Messages)
	})

	t.Run("update shows reply text", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		m = updateModel(t, m, bt.UpdateMsg{Text: "hel"})
		m = updateModel(t, m, bt.UpdateMsg{Text: "hello"})

		assert.Contains(t, m.View(), "hello")
		assert.Equal(t, 1, bt.BlockCount(m))
	})

	t.Run("done re-enables input", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend), func() {})
		m = updateModel(t, m, bt.DoneMsg{})

		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
		assert.Contains(t, m.View(), "Enter to send")
	})

	t.Run("done with error shows error block after partial text", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		m = bt.SetRunning(m, func() {})
		m = updateModel(t, m, bt.UpdateMsg{Text: "partial"})
		err := &trickle.StreamError{Kind: trickle.ErrTransport, Err: errors.New("connection reset")}
		m = updateModel(t, m, bt.DoneMsg{Err: err})

		assert.False(t, m.Running())
		assert.ErrorIs(t, m.Err(), trickle.ErrTransport)
		content := bt.RenderContent(m)
		assert.Less(t, strings.Index(content, "partial"), strings.Index(content, "Error: transport failure"))
	})

	t.Run("cancellation is not shown as an error", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend), func() {})
		m = updateModel(t, m, bt.UpdateMsg{Text: "partial"})
		m = updateModel(t, m, bt.DoneMsg{Err: &trickle.StreamError{Kind: trickle.ErrCancelled}})

		assert.NoError(t, m.Err())
		assert.NotContains(t, bt.RenderContent(m), "Error")
		assert.Contains(t, bt.RenderContent(m), "partial")
	})

	t.Run("stalled stream is shown", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend), func() {})
		err := &trickle.StreamError{Kind: trickle.ErrCancelled, Err: trhttp.ErrStalled}
		m = updateModel(t, m, bt.DoneMsg{Err: err})

		assert.ErrorIs(t, m.Err(), trhttp.ErrStalled)
		assert.Contains(t, bt.RenderContent(m), "stalled")
	})

	t.Run("ctrl+l clears transcript and session", func(t *testing.T) {
		t.Parallel()

		session := &trickle.Session{
			SystemPrompt: "be brief",
			Messages:     []trickle.Message{trickle.UserMessage("hi"), trickle.AssistantMessage("hello")},
		}
		m := initModelWithSize(t, nopSend, session, 80, 24)
		require.Equal(t, 2, bt.BlockCount(m))

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

		assert.Equal(t, 0, bt.BlockCount(m))
		assert.Empty(t, session.Messages)
		assert.Equal(t, "be brief", session.SystemPrompt)
	})

	t.Run("ctrl+l while running is ignored", func(t *testing.T) {
		t.Parallel()

		session := &trickle.Session{Messages: []trickle.Message{trickle.UserMessage("hi")}}
		m := bt.SetRunning(initModelWithSize(t, nopSend, session, 80, 24), func() {})
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

		assert.Len(t, session.Messages, 1)
	})

	t.Run("submit appends user message and starts turn", func(t *testing.T) {
		t.Parallel()

		session := &trickle.Session{}
		m := initModelWithSize(t, nopSend, session, 80, 24)
		m.Input.SetValue(" hi ")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)

		assert.True(t, m.Running())
		require.NotNil(t, cmd)
		require.Len(t, session.Messages, 1)
		assert.Equal(t, trickle.RoleUser, session.Messages[0].Role)
		assert.Equal(t, "hi", session.Messages[0].Text)
		assert.Empty(t, m.Input.Value())
		assert.Contains(t, m.View(), "typing")
	})

	t.Run("viewport scrolls long output when idle", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		m.Viewport = viewport.New(80, 5)
		var lines []string
		for i := range 30 {
			lines = append(lines, fmt.Sprintf("line-%d", i))
		}
		m = updateModel(t, m, bt.UpdateMsg{Text: strings.Join(lines, "\n\n")})
		require.Contains(t, m.Viewport.View(), "line-29")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyPgUp})

		assert.NotContains(t, m.Viewport.View(), "line-29")
	})

	t.Run("existing session renders on init", func(t *testing.T) {
		t.Parallel()

		session := &trickle.Session{Messages: []trickle.Message{
			trickle.UserMessage("hello there"),
			trickle.AssistantMessage(""),
			trickle.AssistantMessage("Hi! How can I help?"),
		}}
		m := initModelWithSize(t, nopSend, session, 80, 24)

		assert.Equal(t, 2, bt.BlockCount(m))
		assert.Contains(t, m.View(), "hello there")
		assert.Contains(t, m.View(), "Hi! How can I help?")
	})
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("full turn through chat and a mock provider", func(t *testing.T) {
		t.Parallel()

		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ trickle.Request) (trickle.Stream, error) {
				return mock.Deltas(nil, "Hel", "lo!"), nil
			},
		}
		c := chat.New(provider)
		send := func(ctx context.Context, s *trickle.Session, onUpdate func(string)) error {
			return c.Send(ctx, s, chat.WithUpdateHandler(onUpdate))
		}

		session := &trickle.Session{}
		tm := teatest.NewTestModel(t, bt.New(send, session, testInfo, trickle.DefaultTheme()),
			teatest.WithInitialTermSize(80, 24),
		)

		tm.Type("hi")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Hello!")) &&
				bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Running())
		assert.NoError(t, final.Err())
		require.Len(t, session.Messages, 2)
		assert.Equal(t, "Hello!", session.Messages[1].Text)
	})

	t.Run("ctrl+c stops a running turn and keeps partial text", func(t *testing.T) {
		t.Parallel()

		send := func(ctx context.Context, s *trickle.Session, onUpdate func(string)) error {
			onUpdate("partial")
			<-ctx.Done()
			s.Messages = append(s.Messages, trickle.AssistantMessage("partial"))
			return &trickle.StreamError{Kind: trickle.ErrCancelled, Partial: "partial"}
		}

		session := &trickle.Session{}
		tm := teatest.NewTestModel(t, bt.New(send, session, testInfo, trickle.DefaultTheme()),
			teatest.WithInitialTermSize(80, 24),
		)

		tm.Type("go")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("partial"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final := fm.(bt.Model)
		assert.NoError(t, final.Err())
		assert.Len(t, session.Messages, 2)
	})

	t.Run("conversation continues after an error", func(t *testing.T) {
		t.Parallel()

		var calls, retryLen atomic.Int32
		send := func(_ context.Context, s *trickle.Session, onUpdate func(string)) error {
			if calls.Add(1) == 1 {
				return &trickle.RequestRejectedError{StatusCode: 500, Message: "simulated API error"}
			}
			retryLen.Store(int32(len(s.Messages)))
			onUpdate("recovered")
			s.Messages = append(s.Messages, trickle.AssistantMessage("recovered"))
			return nil
		}

		session := &trickle.Session{}
		tm := teatest.NewTestModel(t, bt.New(send, session, testInfo, trickle.DefaultTheme()),
			teatest.WithInitialTermSize(80, 24),
		)

		tm.Type("hello")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("simulated API error"))
		}, teatest.WithDuration(5*time.Second))

		tm.Type("retry")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("recovered")) &&
				bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final := fm.(bt.Model)
		assert.NoError(t, final.Err())
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, int32(1), retryLen.Load(), "rejected prompt is not resent")
		require.Len(t, session.Messages, 2)
		assert.Equal(t, "retry", session.Messages[0].Text)
	})
}
