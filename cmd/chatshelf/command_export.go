package main

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/picatz/chatshelf/internal/chat/archive"
	"github.com/spf13/cobra"
)

var exportCommand = &cobra.Command{
	Use:   "export <dir>",
	Short: "Commit every saved chat into a git repository",
	Long: `Writes each saved chat to <dir>/<id>.txt and commits the snapshot.
The repository is created when <dir> is not one yet. Files of deleted
chats are removed in the same commit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("author-name")
		email, _ := cmd.Flags().GetString("author-email")

		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		exp := &archive.Exporter{
			Dir:    args[0],
			Author: object.Signature{Name: name, Email: email},
			Logger: logger,
		}

		res, err := exp.Export(cmd.Context(), store)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !res.Committed {
			fmt.Fprintln(out, styleFaint.Render("archive already up to date"))
			return nil
		}

		fmt.Fprintf(out, "%s %d chats (%d skipped) %s\n",
			styleSuccess.Render("exported"), res.Written, res.Skipped, styleFaint.Render(res.Commit.String()))
		return nil
	},
}

func init() {
	exportCommand.Flags().String("author-name", "", "commit author name (default chatshelf)")
	exportCommand.Flags().String("author-email", "", "commit author email (default chatshelf@localhost)")

	rootCmd.AddCommand(
		exportCommand,
	)
}
