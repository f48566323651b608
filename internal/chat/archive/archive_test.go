package archive_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/picatz/chatshelf/internal/chat"
	"github.com/picatz/chatshelf/internal/chat/archive"
	"github.com/picatz/chatshelf/internal/chat/storage/memory"
	"github.com/shoenig/test/must"
)

func newExporter(dir string) *archive.Exporter {
	return &archive.Exporter{
		Dir:    dir,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now: func() time.Time {
			return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestExport(t *testing.T) {
	backend := memory.NewBackend[string, string]()
	store := chat.NewStore(backend, chat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := store.Save(t.Context(), "a1", "Notes", "hello")
	must.NoError(t, err)
	_, err = store.Save(t.Context(), "b2", "Plans", "line one\nline two\n")
	must.NoError(t, err)

	// An index entry whose record is gone is skipped.
	must.NoError(t, backend.Delete(t.Context(), chat.RecordKey("b2")))

	dir := filepath.Join(t.TempDir(), "archive")
	exp := newExporter(dir)

	res, err := exp.Export(t.Context(), store)
	must.NoError(t, err)
	must.Eq(t, 1, res.Written)
	must.Eq(t, 1, res.Skipped)
	must.True(t, res.Committed)

	data, err := os.ReadFile(filepath.Join(dir, "a1.txt"))
	must.NoError(t, err)
	must.StrContains(t, string(data), "# Notes")
	must.StrContains(t, string(data), "hello\n")

	repo, err := git.PlainOpen(dir)
	must.NoError(t, err)

	head, err := repo.Head()
	must.NoError(t, err)
	must.Eq(t, res.Commit, head.Hash())

	commit, err := repo.CommitObject(head.Hash())
	must.NoError(t, err)
	must.Eq(t, "chatshelf", commit.Author.Name)
	must.Eq(t, "Export 1 chats", commit.Message)

	// Exporting the same chats again changes nothing.
	res, err = exp.Export(t.Context(), store)
	must.NoError(t, err)
	must.False(t, res.Committed)

	// Deleted chats disappear from the next snapshot.
	must.NoError(t, store.Delete(t.Context(), "a1"))

	res, err = exp.Export(t.Context(), store)
	must.NoError(t, err)
	must.True(t, res.Committed)

	_, err = os.Stat(filepath.Join(dir, "a1.txt"))
	must.True(t, os.IsNotExist(err))
}

func TestRender(t *testing.T) {
	out := archive.Render(chat.Record{
		ID:        "a1",
		Title:     "Notes",
		Content:   "hello",
		CreatedAt: "2024-05-01T12:00:00.000000Z",
	})
	must.Eq(t, "# Notes\n\nid: a1\ncreated_at: 2024-05-01T12:00:00.000000Z\n\nhello\n", out)
}
