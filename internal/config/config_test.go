package config

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/shoenig/test/must"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"CHATSHELF_HTTP_ADDR",
		"CHATSHELF_DATA_DIR",
		"CHATSHELF_TEMPORARY",
		"SESSION_SECRET",
		"CHATSHELF_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	must.NoError(t, err)
	must.Eq(t, ":5000", cfg.HTTPAddr)
	must.Eq(t, DefaultDataDir, cfg.DataDir)
	must.Eq(t, "fallback_secret_key_for_dev", cfg.SessionSecret)
	must.Eq(t, "info", cfg.LogLevel)
	must.False(t, cfg.Temporary)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHATSHELF_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("CHATSHELF_DATA_DIR", "/tmp/chats")
	t.Setenv("CHATSHELF_TEMPORARY", "true")
	t.Setenv("CHATSHELF_PUBLIC_URL", "https://chats.example.com")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CHATSHELF_LOG_LEVEL", "debug")

	cfg, err := Load()
	must.NoError(t, err)
	must.Eq(t, "127.0.0.1:9000", cfg.HTTPAddr)
	must.Eq(t, "/tmp/chats", cfg.DataDir)
	must.True(t, cfg.Temporary)
	must.Eq(t, "https://chats.example.com", cfg.PublicURL)
	must.Eq(t, "s3cret", cfg.SessionSecret)
	level, err := cfg.Level()
	must.NoError(t, err)
	must.Eq(t, slog.LevelDebug, level)
}

func TestLoadInvalidLevel(t *testing.T) {
	t.Setenv("CHATSHELF_LOG_LEVEL", "loud")

	_, err := Load()
	must.Error(t, err)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Config{LogLevel: "warn"}.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "chat_id", "a1")

	must.StrNotContains(t, buf.String(), "hidden")
	must.StrContains(t, buf.String(), "chat_id=a1")
}
