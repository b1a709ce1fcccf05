package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/fwojciec/trickle"
	bt "github.com/fwojciec/trickle/bubbletea"
	"github.com/fwojciec/trickle/chat"
	trhttp "github.com/fwojciec/trickle/http"
	trjson "github.com/fwojciec/trickle/json"
	"github.com/fwojciec/trickle/prometheus"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"
)

type mode int

const (
	modeTUI mode = iota
	modeREPL
	modeOneShot
)

// environment is the process's standard streams and whether they are
// terminals.
type environment struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	stdinTTY  bool
	stdoutTTY bool
}

func selectMode(cli *CLI, env environment) mode {
	switch {
	case len(cli.Prompt) > 0 || !env.stdinTTY:
		return modeOneShot
	case cli.Plain || !env.stdoutTTY:
		return modeREPL
	default:
		return modeTUI
	}
}

func run(ctx context.Context, cli *CLI, env environment) error {
	fc, err := LoadConfigFile(cli.Config)
	if err != nil {
		return err
	}
	if err := cli.Merge(fc); err != nil {
		return err
	}
	m := selectMode(cli, env)

	logger, closeLog, err := openLogger(cli, m, env.stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	pcfg, err := resolveConfig(cli.Provider, cli.APIKey, cli.Keys)
	if err != nil {
		return err
	}
	pcfg.model = cli.Model
	pcfg.baseURL = cli.BaseURL
	pcfg.stall = cli.StallTimeout
	pcfg.logger = logger

	if cli.MetricsAddr != "" {
		metrics := prometheus.New()
		pcfg.observer = metrics.Observer(pcfg.name)
		go func() {
			if err := metrics.Serve(ctx, cli.MetricsAddr); err != nil {
				logger.Error().Err(err).Str("addr", cli.MetricsAddr).Msg("metrics server stopped")
			}
		}()
	}

	provider, model, err := newProvider(pcfg)
	if err != nil {
		return err
	}
	logger.Debug().Str("provider", pcfg.name).Str("model", model).Msg("provider ready")

	session, err := openSession(cli)
	if err != nil {
		return err
	}

	c := chat.New(provider)
	opts := sendOptions(cli)

	switch m {
	case modeOneShot:
		prompt, err := oneShotPrompt(cli, env.stdin)
		if err != nil {
			return err
		}
		err = turn(ctx, c, session, prompt, env.stdout, opts)
		if saveErr := saveSession(cli, session); saveErr != nil {
			return saveErr
		}
		return err

	case modeREPL:
		line := liner.NewLiner()
		line.SetCtrlCAborts(true)
		err := repl(ctx, c, session, line, env.stdout, opts)
		line.Close()
		if err != nil {
			return err
		}

	case modeTUI:
		send := func(ctx context.Context, s *trickle.Session, onUpdate func(string)) error {
			return c.Send(ctx, s, withHandler(opts, onUpdate)...)
		}
		info := bt.Info{Provider: pcfg.name, Model: model}
		if err := bt.Run(ctx, bt.New(send, session, info, trickle.DefaultTheme())); err != nil {
			return fmt.Errorf("TUI: %w", err)
		}
	}
	return saveSession(cli, session)
}

// openLogger writes to --log-file when set. The full-screen UI owns the
// terminal, so without a file it logs nothing.
func openLogger(cli *CLI, m mode, stderr io.Writer) (zerolog.Logger, func(), error) {
	nop := func() {}
	var w io.Writer = stderr
	switch {
	case cli.LogFile != "":
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), nop, fmt.Errorf("open log file: %w", err)
		}
		l, err := cli.Logger(f)
		if err != nil {
			f.Close()
			return zerolog.Nop(), nop, err
		}
		return l, func() { f.Close() }, nil
	case m == modeTUI:
		w = io.Discard
	}
	l, err := cli.Logger(w)
	return l, nop, err
}

func openSession(cli *CLI) (*trickle.Session, error) {
	if cli.Session == "" {
		return trickle.NewSession(cli.System), nil
	}
	s, err := trjson.LoadOrNew(cli.Session, cli.System)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func saveSession(cli *CLI, s *trickle.Session) error {
	if cli.Session == "" || len(s.Messages) == 0 {
		return nil
	}
	if err := trjson.Save(cli.Session, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func sendOptions(cli *CLI) []chat.SendOption {
	var opts []chat.SendOption
	if cli.Model != "" {
		opts = append(opts, chat.WithModel(cli.Model))
	}
	if cli.MaxTokens > 0 {
		opts = append(opts, chat.WithMaxTokens(cli.MaxTokens))
	}
	if cli.Temperature != nil {
		opts = append(opts, chat.WithTemperature(*cli.Temperature))
	}
	return opts
}

func withHandler(opts []chat.SendOption, h func(string)) []chat.SendOption {
	return append(slices.Clone(opts), chat.WithUpdateHandler(h))
}

// oneShotPrompt joins the positional arguments, or reads stdin when there
// are none.
func oneShotPrompt(cli *CLI, stdin io.Reader) (string, error) {
	if len(cli.Prompt) > 0 {
		return strings.Join(cli.Prompt, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("empty prompt on stdin")
	}
	return prompt, nil
}

// turn sends prompt and prints the reply to out as it streams. An interrupt
// stops the reply; the partial text stays in the session. A prompt that got
// no reply at all is removed again.
func turn(ctx context.Context, c *chat.Chat, session *trickle.Session, prompt string, out io.Writer, opts []chat.SendOption) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	session.Messages = append(session.Messages, trickle.UserMessage(prompt))
	p := &printer{w: out}
	err := c.Send(ctx, session, withHandler(opts, p.update)...)
	if err != nil {
		session.DropUnanswered()
	}
	if p.n > 0 {
		fmt.Fprintln(out)
	}
	if chat.Visible(err) || errors.Is(err, trhttp.ErrStalled) {
		return err
	}
	return nil
}

// printer writes the part of each sanitized update not yet printed.
type printer struct {
	w io.Writer
	n int
}

func (p *printer) update(text string) {
	text = sanitize(text)
	if len(text) <= p.n {
		return
	}
	fmt.Fprint(p.w, text[p.n:])
	p.n = len(text)
}

// lineReader is the part of *liner.State used by repl.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// repl reads prompts until EOF, an aborted prompt or /exit. /clear starts
// the conversation over.
func repl(ctx context.Context, c *chat.Chat, session *trickle.Session, lr lineReader, out io.Writer, opts []chat.SendOption) error {
	for ctx.Err() == nil {
		input, err := lr.Prompt("> ")
		if err != nil {
			fmt.Fprintln(out)
			return nil
		}
		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			session.Reset()
			fmt.Fprintln(out, "(conversation cleared)")
			continue
		}
		lr.AppendHistory(input)

		if err := turn(ctx, c, session, input, out, opts); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return nil
}
