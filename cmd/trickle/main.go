// Command trickle chats with a language model and streams the reply as it
// arrives.
//
// Usage:
//
//	trickle [flags] [prompt ...]
//
// With a prompt, or with input piped on stdin, trickle prints the reply and
// exits. Otherwise it opens a full-screen chat, or a line prompt with --plain
// or when stdout is not a terminal.
//
// Settings come from flags, then TRICKLE_* environment variables, then the
// YAML file named by --config. A .env file in the working directory is
// loaded first.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("trickle"),
		kong.Description("Chat with a language model, streaming the reply as it arrives."),
		kong.UsageOnError(),
	)
	cli.Keys = ProviderKeys{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		Gemini:    os.Getenv("GEMINI_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
	}

	// Interrupts cancel the current reply; see turn.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	env := environment{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		stdinTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		stdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
	}
	kctx.FatalIfErrorf(run(ctx, &cli, env))
}
