package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ConfigVersion is the current config file version.
const ConfigVersion = "v1"

const defaultLogLevel = "warn"

// CLI is the root command. Flags and env vars are parsed by kong; values
// left unset are then filled from the YAML config file.
type CLI struct {
	Config string `short:"c" help:"Path to YAML config file." type:"path" env:"TRICKLE_CONFIG"`

	Provider     string        `short:"p" help:"Provider: ollama, openai, gemini, anthropic. Detected from API key variables when omitted." env:"TRICKLE_PROVIDER"`
	Model        string        `short:"m" help:"Model ID (provider default when omitted)." env:"TRICKLE_MODEL"`
	BaseURL      string        `help:"Provider base URL." env:"TRICKLE_BASE_URL"`
	APIKey       string        `help:"API key (overrides the provider's key variable)." env:"TRICKLE_API_KEY"`
	System       string        `short:"s" help:"System prompt." env:"TRICKLE_SYSTEM"`
	Temperature  *float64      `help:"Sampling temperature in [0, 2]." env:"TRICKLE_TEMPERATURE"`
	MaxTokens    int           `help:"Maximum reply length in tokens." env:"TRICKLE_MAX_TOKENS"`
	StallTimeout time.Duration `help:"Cancel a reply that receives no bytes for this long (0 disables)." env:"TRICKLE_STALL_TIMEOUT"`
	Session      string        `help:"Session file to resume and save." type:"path" env:"TRICKLE_SESSION"`
	LogLevel     string        `help:"Log level (debug, info, warn, error)." env:"TRICKLE_LOG_LEVEL"`
	LogFile      string        `help:"Write logs to this file instead of stderr." type:"path" env:"TRICKLE_LOG_FILE"`
	MetricsAddr  string        `help:"Serve Prometheus metrics on this address." env:"TRICKLE_METRICS_ADDR"`
	Plain        bool          `help:"Use the line-based prompt instead of the full-screen UI." env:"TRICKLE_PLAIN"`
	Prompt       []string      `arg:"" optional:"" help:"Send one prompt, print the reply and exit."`
	Keys         ProviderKeys  `kong:"-"`
}

// ProviderKeys holds the API keys read from each provider's own variable.
type ProviderKeys struct {
	Anthropic string
	Gemini    string
	OpenAI    string
}

// FileConfig is the YAML config file layout.
type FileConfig struct {
	Version      string   `yaml:"version"`
	Provider     string   `yaml:"provider"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"baseURL"`
	APIKey       string   `yaml:"apiKey"`
	System       string   `yaml:"system"`
	Temperature  *float64 `yaml:"temperature"`
	MaxTokens    int      `yaml:"maxTokens"`
	StallTimeout string   `yaml:"stallTimeout"`
	Session      string   `yaml:"session"`
	LogLevel     string   `yaml:"logLevel"`
	LogFile      string   `yaml:"logFile"`
	MetricsAddr  string   `yaml:"metricsAddr"`
}

// LoadConfigFile reads the YAML file at path. An empty path yields an empty
// config.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file: %w", err)
	}
	if err := ValidateConfigVersion(fc.Version); err != nil {
		return fc, err
	}
	return fc, nil
}

// ValidateConfigVersion checks that the config file version is supported.
func ValidateConfigVersion(version string) error {
	switch version {
	case "":
		return fmt.Errorf("config file missing 'version' field (expected: %s)", ConfigVersion)
	case ConfigVersion:
		return nil
	default:
		return fmt.Errorf("unsupported config version %q (supported: %s)", version, ConfigVersion)
	}
}

// Merge fills every unset field from fc and applies defaults.
func (cli *CLI) Merge(fc FileConfig) error {
	fill(&cli.Provider, fc.Provider)
	fill(&cli.Model, fc.Model)
	fill(&cli.BaseURL, fc.BaseURL)
	fill(&cli.APIKey, fc.APIKey)
	fill(&cli.System, fc.System)
	fill(&cli.Session, fc.Session)
	fill(&cli.LogLevel, fc.LogLevel)
	fill(&cli.LogFile, fc.LogFile)
	fill(&cli.MetricsAddr, fc.MetricsAddr)
	fill(&cli.LogLevel, defaultLogLevel)
	if cli.Temperature == nil {
		cli.Temperature = fc.Temperature
	}
	if cli.MaxTokens == 0 {
		cli.MaxTokens = fc.MaxTokens
	}
	if cli.StallTimeout == 0 && fc.StallTimeout != "" {
		d, err := time.ParseDuration(fc.StallTimeout)
		if err != nil {
			return fmt.Errorf("config stallTimeout: %w", err)
		}
		cli.StallTimeout = d
	}
	if strings.HasPrefix(cli.Session, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("expand session path: %w", err)
		}
		cli.Session = filepath.Join(home, cli.Session[2:])
	}
	return nil
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// Logger builds a console logger at the configured level writing to w.
func (cli *CLI) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cli.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: w != os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
