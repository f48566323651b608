package pebble

import (
	"log/slog"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/picatz/chatshelf/internal/chat/storage"
)

// Open opens a string-keyed pebble backend whose values are stored as raw
// bytes. When temporary is set the database lives in memory and dirname is
// ignored.
func Open(dirname string, temporary bool, logger *slog.Logger) (*Backend[string, string], error) {
	opts := &pebble.Options{
		LoggerAndTracer: &SlogLogger{Logger: logger},
	}

	if temporary {
		opts.FS = vfs.NewMem()
		dirname = ""
	}

	return NewBackend[string, string](dirname, opts, storage.StringCodec{})
}
