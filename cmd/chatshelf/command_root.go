package main

import (
	"fmt"
	"log/slog"

	"github.com/picatz/chatshelf/internal/chat"
	"github.com/picatz/chatshelf/internal/chat/storage"
	pebbleStorage "github.com/picatz/chatshelf/internal/chat/storage/pebble"
	"github.com/picatz/chatshelf/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatshelf",
	Short: "Save, browse and share chat transcripts",
	Long: `chatshelf keeps chat transcripts in a local pebble database.

Run "chatshelf serve" for the web interface, or use the other commands to
work with the same database from the terminal. Pebble allows one process
per data directory, so stop the server before using the other commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("data-dir") {
			loaded.DataDir, _ = flags.GetString("data-dir")
		}
		if flags.Changed("temporary") {
			loaded.Temporary, _ = flags.GetBool("temporary")
		}
		if flags.Changed("log-level") {
			loaded.LogLevel, _ = flags.GetString("log-level")
			if _, err := loaded.Level(); err != nil {
				return err
			}
		}

		cfg = loaded
		logger = cfg.Logger(cmd.ErrOrStderr())
		slog.SetDefault(logger)
		return nil
	},
}

// openStore opens the configured pebble database and returns a chat store
// over it. The returned function closes the database.
func openStore(cmd *cobra.Command) (*chat.Store, func(), error) {
	backend, err := pebbleStorage.Open(cfg.DataDir, cfg.Temporary, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open chat storage at %q: %w", cfg.DataDir, err)
	}

	closeFn := func() {
		closeBackend(cmd, backend)
	}

	return chat.NewStore(backend, chat.WithLogger(logger)), closeFn, nil
}

func closeBackend(cmd *cobra.Command, backend storage.Backend[string, string]) {
	if err := backend.Flush(cmd.Context()); err != nil {
		logger.Error("failed to flush chat storage", "error", err)
	}
	if err := backend.Close(cmd.Context()); err != nil {
		logger.Error("failed to close chat storage", "error", err)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", config.DefaultDataDir, "directory of the pebble database (env CHATSHELF_DATA_DIR)")
	rootCmd.PersistentFlags().BoolP("temporary", "t", false, "use a temporary in-memory database (env CHATSHELF_TEMPORARY)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error (env CHATSHELF_LOG_LEVEL)")
}
