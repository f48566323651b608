package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/picatz/chatshelf/internal/web"
	"github.com/spf13/cobra"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chatshelf web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.HTTPAddr
		if cmd.Flags().Changed("http-addr") {
			addr, _ = cmd.Flags().GetString("http-addr")
		}
		publicURL := cfg.PublicURL
		if cmd.Flags().Changed("public-url") {
			publicURL, _ = cmd.Flags().GetString("public-url")
		}

		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		handler := web.NewServer(store, cfg.SessionSecret,
			web.WithLogger(logger),
			web.WithPublicURL(publicURL),
		).Handler()

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("chatshelf listening", "addr", addr, "data_dir", cfg.DataDir, "temporary", cfg.Temporary)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("failed to serve: %w", err)
		case <-cmd.Context().Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	},
}

func init() {
	serveCommand.Flags().String("http-addr", ":5000", "HTTP listen address (env CHATSHELF_HTTP_ADDR)")
	serveCommand.Flags().String("public-url", "", "base URL used in share links (env CHATSHELF_PUBLIC_URL)")

	rootCmd.AddCommand(
		serveCommand,
	)
}
