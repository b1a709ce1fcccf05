package bubbletea

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/trickle"
	"github.com/fwojciec/trickle/chat"
	"github.com/fwojciec/trickle/goldmark"
	trhttp "github.com/fwojciec/trickle/http"
	"github.com/rivo/uniseg"
)

const (
	headerHeight = 1
	statusHeight = 1
	inputHeight  = 1
	// Newlines between the four sections.
	borderHeight = 2
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model

	spinner  spinner.Model
	send     SendFunc
	session  *trickle.Session
	info     Info
	styles   Styles
	renderer *goldmark.Renderer

	blocks []MessageBlock
	// reply is the block receiving the current turn's text.
	reply *AssistantTextBlock

	running  bool
	cancel   context.CancelFunc
	updateCh chan string
	doneCh   chan error
	err      error
	width    int
	ready    bool
}

// New creates a TUI Model that sends turns with send and records them in
// session.
func New(send SendFunc, session *trickle.Session, info Info, theme trickle.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0

	styles := NewStyles(theme)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent))

	return Model{
		Input:    ti,
		spinner:  sp,
		send:     send,
		session:  session,
		info:     info,
		styles:   styles,
		renderer: goldmark.New(theme),
	}
}

// Running returns whether a turn is in progress.
func (m Model) Running() bool { return m.running }

// Err returns the last visible error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case UpdateMsg:
		m = m.applyUpdate(msg.Text)
		if m.updateCh != nil {
			return m, listenForUpdate(m.updateCh, m.doneCh)
		}
		return m, nil

	case DoneMsg:
		return m.finishTurn(msg.Err)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	vpHeight := max(msg.Height-headerHeight-statusHeight-inputHeight-borderHeight, 1)
	m.width = msg.Width

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderSession()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = max(msg.Width-len(m.Input.Prompt)-1, 1)
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyCtrlL:
		if m.running {
			return m, nil
		}
		return m.clear(), nil

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	if m.running {
		return m, nil
	}

	// Character keys go to the input only; 'j'/'k' would otherwise scroll.
	var cmd tea.Cmd
	var cmds []tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.Input.Blur()
	m.err = nil

	m.session.Messages = append(m.session.Messages, trickle.UserMessage(text))
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m.reply = nil
	m.refresh()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.updateCh = make(chan string, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	return m, tea.Batch(
		startTurn(ctx, m.send, m.session, m.updateCh, m.doneCh),
		listenForUpdate(m.updateCh, m.doneCh),
		m.spinner.Tick,
	)
}

func (m Model) applyUpdate(text string) Model {
	if m.reply == nil {
		m.reply = NewAssistantTextBlock(m.renderer)
		m.blocks = append(m.blocks, m.reply)
	}
	m.reply.SetText(text)
	m.refresh()
	return m
}

func (m Model) finishTurn(err error) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil
	m.updateCh = nil
	m.doneCh = nil
	m.reply = nil

	// The send has returned, so the session is ours again.
	if err != nil {
		m.session.DropUnanswered()
	}
	if visible(err) {
		m.err = err
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
		m.refresh()
	}
	return m, m.Input.Focus()
}

// visible reports whether a turn error is shown. A user cancellation is a
// clean stop, but a stalled stream is reported.
func visible(err error) bool {
	return chat.Visible(err) || errors.Is(err, trhttp.ErrStalled)
}

// clear empties the transcript and the session's messages.
func (m Model) clear() Model {
	m.session.Reset()
	m.blocks = nil
	m.reply = nil
	m.err = nil
	m.refresh()
	return m
}

// refresh re-renders the transcript and scrolls to the end.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
}

// renderSession creates blocks from existing session messages.
func (m Model) renderSession() Model {
	for _, msg := range m.session.Messages {
		switch msg.Role {
		case trickle.RoleUser:
			m.blocks = append(m.blocks, NewUserMessageBlock(msg.Text, m.styles))
		case trickle.RoleAssistant:
			if msg.Text == "" {
				continue
			}
			b := NewAssistantTextBlock(m.renderer)
			b.SetText(msg.Text)
			m.blocks = append(m.blocks, b)
		}
	}
	return m
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString(blockSeparator(m.blocks[i-1], block))
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// header shows the provider and model on the left and the session ID on the
// right. Session messages are not read here since a running turn appends to
// them from another goroutine.
func (m Model) header() string {
	left := m.info.Provider
	if m.info.Model != "" {
		left += " · " + m.info.Model
	}
	right := shortID(m.session.ID)
	gap := m.width - uniseg.StringWidth(left) - uniseg.StringWidth(right)
	if gap < 1 {
		return m.styles.Header.Render(left)
	}
	return m.styles.Accent.Render(left) + strings.Repeat(" ", gap) + m.styles.Header.Render(right)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m Model) statusLine() string {
	switch {
	case m.running:
		return m.spinner.View() + m.styles.Muted.Render(" typing…  Ctrl+C to stop")
	case m.err != nil:
		return m.styles.Error.Render("Error: " + m.err.Error())
	default:
		return m.styles.Muted.Render("Enter to send, Ctrl+L to clear, Ctrl+C to quit")
	}
}

// startTurn runs send in a goroutine and reports its result on doneCh.
func startTurn(ctx context.Context, send SendFunc, session *trickle.Session, updateCh chan<- string, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := send(ctx, session, func(text string) {
			select {
			case updateCh <- text:
			case <-ctx.Done():
			}
		})
		close(updateCh)
		doneCh <- err
		return nil
	}
}

// listenForUpdate waits for the next update. When the channel closes it
// reads the turn's error from doneCh and returns DoneMsg.
func listenForUpdate(ch <-chan string, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return DoneMsg{Err: <-doneCh}
		}
		return UpdateMsg{Text: text}
	}
}
