// Package config loads chatshelf settings from the environment.
package config

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// DefaultDataDir is where the pebble database lives unless configured
// otherwise.
//
// On Unix-like systems, it is set to ~/.chatshelf-pebble-storage, and on
// Windows, it is set to %USERPROFILE%/.chatshelf-pebble-storage.
var DefaultDataDir = filepath.Join(cmp.Or(os.Getenv("HOME"), os.Getenv("USERPROFILE")), ".chatshelf-pebble-storage")

// Config holds process configuration. Command-line flags override it.
type Config struct {
	HTTPAddr      string `env:"CHATSHELF_HTTP_ADDR"   envDefault:":5000"`
	DataDir       string `env:"CHATSHELF_DATA_DIR"`
	Temporary     bool   `env:"CHATSHELF_TEMPORARY"`
	PublicURL     string `env:"CHATSHELF_PUBLIC_URL"`
	SessionSecret string `env:"SESSION_SECRET"        envDefault:"fallback_secret_key_for_dev"`
	LogLevel      string `env:"CHATSHELF_LOG_LEVEL"   envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Logger returns a text logger writing to w at the configured level,
// or at info when the level does not parse.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
