package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/picatz/chatshelf/internal/chat"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var saveCommand = &cobra.Command{
	Use:   "save [file]",
	Short: "Save a chat transcript read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read chat content: %w", err)
		}

		content := strings.TrimSpace(string(data))
		if content == "" {
			return errors.New("chat content cannot be empty")
		}

		title, _ := cmd.Flags().GetString("title")
		title = strings.TrimSpace(title)
		if title == "" {
			title = chat.DefaultTitle(time.Now())
		}

		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		record, err := store.Save(cmd.Context(), ksuid.New().String(), title, content)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", styleSuccess.Render("saved"), styleBold.Render(record.Title), styleFaint.Render(record.ID))
		return nil
	},
}

var listCommand = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved chats, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, styleFaint.Render("No saved chats yet."))
			return nil
		}

		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s  %s\n", styleFaint.Render(e.ID), e.CreatedAt, styleBold.Render(e.Title))
		}
		return nil
	},
}

var showCommand = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		record, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		raw, _ := cmd.Flags().GetBool("raw")
		width, isTerm := terminalWidth(out)

		if raw || !isTerm {
			fmt.Fprintln(out, record.Content)
			return nil
		}

		rendered, err := renderMarkdown(record.Content, width)
		if err != nil {
			logger.Warn("showing chat as plain text", "error", err)
			rendered = record.Content + "\n"
		}

		fmt.Fprintf(out, "%s\n%s\n", styleBold.Render(record.Title), styleFaint.Render(record.CreatedAt))
		fmt.Fprint(out, rendered)
		return nil
	},
}

var deleteCommand = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved chat",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		// Prompt the user for confirmation before deleting, but only when
		// someone is there to answer.
		if f, ok := cmd.InOrStdin().(*os.File); ok && !yes && term.IsTerminal(int(f.Fd())) {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete chat %s? (y/n): ", args[0])

			answer, err := bufio.NewReader(f).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			if strings.ToLower(strings.TrimSpace(answer)) != "y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Chat not deleted.")
				return nil
			}
		}

		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, chat.ErrNotFound) {
				fmt.Fprintln(cmd.ErrOrStderr(), styleWarning.Render("no chat with id "+args[0]))
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styleSuccess.Render("deleted"), args[0])
		return nil
	},
}

var shareCommand = &cobra.Command{
	Use:   "share <id>",
	Short: "Print the share link of a saved chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("public-url")
		if base == "" {
			base = cfg.PublicURL
		}
		if base == "" {
			base = localURL(cfg.HTTPAddr)
		}

		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		if _, err := store.Get(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), shareLink(base, args[0]))
		return nil
	},
}

var reindexCommand = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the chat index from the saved chats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		n, err := store.Reindex(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %d chats\n", styleSuccess.Render("indexed"), n)
		return nil
	},
}

func init() {
	saveCommand.Flags().String("title", "", "chat title (defaults to the current date and time)")
	showCommand.Flags().Bool("raw", false, "print the transcript without markdown rendering")
	deleteCommand.Flags().BoolP("yes", "y", false, "delete without asking for confirmation")
	shareCommand.Flags().String("public-url", "", "base URL of the web interface (env CHATSHELF_PUBLIC_URL)")

	rootCmd.AddCommand(
		saveCommand,
		listCommand,
		showCommand,
		deleteCommand,
		shareCommand,
		reindexCommand,
	)
}
