package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/trickle"
	"github.com/fwojciec/trickle/anthropic"
	"github.com/fwojciec/trickle/gemini"
	"github.com/fwojciec/trickle/ollama"
	"github.com/fwojciec/trickle/openai"
	"github.com/rs/zerolog"
)

// providerConfig is everything needed to construct a provider. Env vars are
// read in main and passed in as values.
type providerConfig struct {
	name     string
	key      string
	model    string
	baseURL  string
	stall    time.Duration
	logger   zerolog.Logger
	observer trickle.Observer
}

// resolveConfig picks the provider and its API key. With no explicit
// provider, a single Anthropic or Gemini key selects that provider and no
// key selects a local Ollama server.
func resolveConfig(providerFlag, apiKeyFlag string, keys ProviderKeys) (providerConfig, error) {
	name := providerFlag
	if name == "" {
		switch {
		case keys.Anthropic != "" && keys.Gemini != "":
			return providerConfig{}, errors.New("multiple API keys found (ANTHROPIC_API_KEY, GEMINI_API_KEY): use --provider to select")
		case keys.Anthropic != "":
			name = "anthropic"
		case keys.Gemini != "":
			name = "gemini"
		default:
			name = "ollama"
		}
	}

	key := apiKeyFlag
	switch name {
	case "anthropic":
		if key == "" {
			key = keys.Anthropic
		}
		if key == "" {
			return providerConfig{}, errors.New("ANTHROPIC_API_KEY not set (use --api-key or the environment variable)")
		}
	case "gemini":
		if key == "" {
			key = keys.Gemini
		}
		if key == "" {
			return providerConfig{}, errors.New("GEMINI_API_KEY not set (use --api-key or the environment variable)")
		}
	case "openai":
		if key == "" {
			key = keys.OpenAI
		}
	case "ollama":
	default:
		return providerConfig{}, fmt.Errorf("unknown provider %q: must be one of ollama, openai, gemini, anthropic", name)
	}
	return providerConfig{name: name, key: key}, nil
}

// newProvider constructs the configured provider and reports the model it
// will use by default.
func newProvider(cfg providerConfig) (trickle.Provider, string, error) {
	stall := cfg.stall
	switch cfg.name {
	case "ollama":
		opts := []ollama.Option{
			ollama.WithStallTimeout(stall),
			ollama.WithLogger(cfg.logger),
			ollama.WithObserver(cfg.observer),
		}
		if cfg.baseURL != "" {
			opts = append(opts, ollama.WithBaseURL(cfg.baseURL))
		}
		return ollama.New(opts...), orDefault(cfg.model, ollama.DefaultModel), nil
	case "openai":
		opts := []openai.Option{
			openai.WithAPIKey(cfg.key),
			openai.WithStallTimeout(stall),
			openai.WithLogger(cfg.logger),
			openai.WithObserver(cfg.observer),
		}
		if cfg.baseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.baseURL))
		}
		return openai.New(opts...), orDefault(cfg.model, openai.DefaultModel), nil
	case "gemini":
		opts := []gemini.Option{
			gemini.WithStallTimeout(stall),
			gemini.WithLogger(cfg.logger),
			gemini.WithObserver(cfg.observer),
		}
		if cfg.baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.baseURL))
		}
		return gemini.New(cfg.key, opts...), orDefault(cfg.model, gemini.DefaultModel), nil
	case "anthropic":
		opts := []anthropic.Option{
			anthropic.WithStallTimeout(stall),
			anthropic.WithLogger(cfg.logger),
			anthropic.WithObserver(cfg.observer),
		}
		if cfg.baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.baseURL))
		}
		return anthropic.New(cfg.key, opts...), orDefault(cfg.model, anthropic.DefaultModel), nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q", cfg.name)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
