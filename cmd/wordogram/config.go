package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/wordogram/pkg/markov"
	"github.com/natefinch/atomic"
	"golang.org/x/text/encoding/htmlindex"
)

// TokenizerConfig holds the settings of the word parser and the file loader.
type TokenizerConfig struct {
	Language         string `json:"language"`
	NormalizeUnicode bool   `json:"normalize_unicode"`
	Debug            bool   `json:"debug"`
	CommaStyle       string `json:"comma_style"`
	InputEncoding    string `json:"input_encoding"`
}

// GeneratorConfig holds the settings of text generation.
type GeneratorConfig struct {
	Selection       string `json:"selection"`
	Seed            uint64 `json:"seed"` // 0 means a random seed per run
	DefaultMaxChars int    `json:"default_max_chars"`
}

// GraphConfig selects where transitions are kept.
type GraphConfig struct {
	Backend string `json:"backend"` // memory or sqlite
	DSN     string `json:"dsn"`
}

// ServerConfig holds the configuration for the HTTP API.
type ServerConfig struct {
	Addr         string `json:"addr"`
	MaxBodyBytes int64  `json:"max_body_bytes"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel  string           `json:"log_level"`
	Tokenizer *TokenizerConfig `json:"tokenizer_config"`
	Generator *GeneratorConfig `json:"generator_config"`
	Graph     *GraphConfig     `json:"graph_config"`
	Server    *ServerConfig    `json:"server_config"`
}

// DefaultTokenizerConfig creates a tokenizer configuration with default values.
func DefaultTokenizerConfig() *TokenizerConfig {
	return &TokenizerConfig{
		Language:         "universal",
		NormalizeUnicode: true,
		Debug:            false,
		CommaStyle:       "after",
		InputEncoding:    "utf-8",
	}
}

// DefaultGeneratorConfig creates a generator configuration with default values.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Selection:       "weighted",
		Seed:            0,
		DefaultMaxChars: 300,
	}
}

// DefaultGraphConfig creates a graph configuration with default values.
func DefaultGraphConfig() *GraphConfig {
	return &GraphConfig{
		Backend: "memory",
		DSN:     "file:wordogram?mode=memory&cache=shared",
	}
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:         ":7280",
		MaxBodyBytes: 32 << 20,
	}
}

// DefaultConfig returns a configuration with every section at its defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		Tokenizer: DefaultTokenizerConfig(),
		Generator: DefaultGeneratorConfig(),
		Graph:     DefaultGraphConfig(),
		Server:    DefaultServerConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The defaults are still usable without the file.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A section set to null in the file falls back to its defaults.
	if config.Tokenizer == nil {
		config.Tokenizer = DefaultTokenizerConfig()
	}
	if config.Generator == nil {
		config.Generator = DefaultGeneratorConfig()
	}
	if config.Graph == nil {
		config.Graph = DefaultGraphConfig()
	}
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}

	return config, nil
}

// Level maps the configured log level name onto a slog level.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options translates the tokenizer section into parser options.
func (c *TokenizerConfig) Options(logger *slog.Logger) ([]markov.Option, error) {
	lang, ok := markov.LanguageByName(c.Language)
	if !ok {
		return nil, fmt.Errorf("unknown language %q", c.Language)
	}

	var style markov.CommaStyle
	switch strings.ToLower(c.CommaStyle) {
	case "", "after":
		style = markov.CommaAfterConjunction
	case "before":
		style = markov.CommaBeforeConjunction
	default:
		return nil, fmt.Errorf("unknown comma style %q", c.CommaStyle)
	}

	if _, err := htmlindex.Get(c.encodingName()); err != nil {
		return nil, fmt.Errorf("unknown input encoding %q: %w", c.InputEncoding, err)
	}

	return []markov.Option{
		markov.WithLanguage(lang),
		markov.WithCommaStyle(style),
		markov.WithNormalization(c.NormalizeUnicode),
		markov.WithDebug(c.Debug),
		markov.WithLogger(logger),
	}, nil
}

func (c *TokenizerConfig) encodingName() string {
	if c.InputEncoding == "" {
		return "utf-8"
	}
	return c.InputEncoding
}

// Options translates the generator section into generate options.
func (c *GeneratorConfig) Options() ([]markov.GenerateOption, error) {
	selection, ok := markov.SelectionByName(strings.ToLower(c.Selection))
	if !ok {
		return nil, fmt.Errorf("unknown selection %q", c.Selection)
	}
	opts := []markov.GenerateOption{markov.WithSelection(selection)}
	if c.Seed != 0 {
		opts = append(opts, markov.WithSeed(c.Seed))
	}
	return opts, nil
}
