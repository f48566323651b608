// Package archive exports saved chats into a git repository, one text
// file per chat, so that snapshots of the store can be versioned and
// pushed elsewhere with ordinary git tooling.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/picatz/chatshelf/internal/chat"
)

// Source is the part of the chat store an export reads from.
type Source interface {
	List(ctx context.Context) ([]chat.IndexEntry, error)
	Get(ctx context.Context, id string) (chat.Record, error)
}

// Exporter writes chats into the git repository at Dir.
type Exporter struct {
	Dir    string
	Author object.Signature
	Logger *slog.Logger
	Now    func() time.Time
}

// Result describes one export.
type Result struct {
	Written   int
	Skipped   int
	Committed bool
	Commit    plumbing.Hash
}

// Export writes every listed chat to <id>.txt, removes files of chats that
// no longer exist, and commits the snapshot. Nothing is committed when the
// tree is unchanged.
func (e *Exporter) Export(ctx context.Context, src Source) (Result, error) {
	var res Result

	repo, err := openOrInit(e.Dir)
	if err != nil {
		return res, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return res, fmt.Errorf("failed to open worktree: %w", err)
	}

	entries, err := src.List(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list chats: %w", err)
	}

	keep := map[string]bool{}
	for _, entry := range entries {
		name, ok := fileName(entry.ID)
		if !ok {
			e.logger().WarnContext(ctx, "skipping chat with unsafe id", "chat_id", entry.ID)
			res.Skipped++
			continue
		}

		record, err := src.Get(ctx, entry.ID)
		if errors.Is(err, chat.ErrNotFound) {
			e.logger().WarnContext(ctx, "skipping indexed chat without a record", "chat_id", entry.ID)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to read chat %q: %w", entry.ID, err)
		}

		if err := os.WriteFile(filepath.Join(e.Dir, name), []byte(Render(record)), 0o644); err != nil {
			return res, fmt.Errorf("failed to write chat %q: %w", entry.ID, err)
		}
		keep[name] = true
		res.Written++
	}

	if err := removeStale(e.Dir, keep); err != nil {
		return res, err
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return res, fmt.Errorf("failed to stage chats: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return res, fmt.Errorf("failed to read worktree status: %w", err)
	}
	for path, st := range status {
		if st.Worktree != git.Deleted {
			continue
		}
		if _, err := wt.Remove(path); err != nil {
			return res, fmt.Errorf("failed to stage removal of %q: %w", path, err)
		}
	}
	if status.IsClean() {
		return res, nil
	}

	author := e.Author
	if author.Name == "" {
		author.Name = "chatshelf"
	}
	if author.Email == "" {
		author.Email = "chatshelf@localhost"
	}
	author.When = e.now()

	hash, err := wt.Commit(fmt.Sprintf("Export %d chats", res.Written), &git.CommitOptions{
		Author: &author,
	})
	if err != nil {
		return res, fmt.Errorf("failed to commit export: %w", err)
	}

	res.Committed = true
	res.Commit = hash

	e.logger().InfoContext(ctx, "chats exported", "dir", e.Dir, "written", res.Written, "commit", hash.String())
	return res, nil
}

// Render formats a chat as the text file stored in the archive.
func Render(r chat.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "id: %s\n", r.ID)
	fmt.Fprintf(&b, "created_at: %s\n\n", r.CreatedAt)
	b.WriteString(r.Content)
	if !strings.HasSuffix(r.Content, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func openOrInit(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open archive repository %q: %w", dir, err)
	}
	return repo, nil
}

func fileName(id string) (string, bool) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return id + ".txt", true
}

func removeStale(dir string, keep map[string]bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read archive directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".txt" || keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to remove stale chat file %q: %w", name, err)
		}
	}
	return nil
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
