// Package chat stores saved chat transcripts in a key-value backend.
//
// Each chat is a JSON document under "chat_<id>". A single "chat_index"
// document lists a summary of every chat so they can be enumerated
// without reading each record.
package chat

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/picatz/chatshelf/internal/chat/storage"
)

const (
	// IndexKey is the backend key of the single index record.
	IndexKey = "chat_index"

	// RecordKeyPrefix prefixes the id of every chat record key.
	RecordKeyPrefix = "chat_"

	// FileFormat is carried on every record. Only plain text exists today.
	FileFormat = "txt"

	// TimestampLayout is a fixed-width ISO-8601 layout, so comparing two
	// timestamps as strings orders them chronologically.
	TimestampLayout = "2006-01-02T15:04:05.000000Z"
)

var (
	// ErrNotFound is returned when no chat record exists for an id.
	ErrNotFound = errors.New("chat not found")

	// ErrCorrupt is returned when a stored record or index is not valid JSON.
	ErrCorrupt = errors.New("chat data is corrupt")

	// ErrInvalidID is returned when saving under an empty id, or an id whose
	// record key would collide with the index key.
	ErrInvalidID = errors.New("invalid chat id")

	// ErrIndexOutOfSync is returned when a record was written or deleted
	// but the index could not be updated to match. Reindex repairs it.
	ErrIndexOutOfSync = errors.New("chat index out of sync")
)

// Record is one saved conversation.
type Record struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
	FileFormat string `json:"file_format"`
}

// IndexEntry is the summary of a record kept in the index.
type IndexEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// Entry returns the index entry describing r.
func (r Record) Entry() IndexEntry {
	return IndexEntry{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt}
}

// RecordKey returns the backend key holding the record for id.
func RecordKey(id string) string {
	return RecordKeyPrefix + id
}

func validID(id string) bool {
	return id != "" && RecordKey(id) != IndexKey
}

// DefaultTitle is the title given to a chat saved without one.
func DefaultTitle(now time.Time) string {
	return "Chat " + now.Format("2006-01-02 15:04")
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock sets the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store keeps chat records and the index that enumerates them.
//
// A record and its index entry are written as two separate backend
// operations, so a failure between them leaves the index stale. Saves,
// deletes and reindexing are serialized within a Store, but two processes
// sharing one backend can still overwrite each other's index changes.
type Store struct {
	backend storage.Backend[string, string]
	logger  *slog.Logger
	now     func() time.Time

	// mu is held across a record write or delete and the index update
	// that follows it.
	mu sync.Mutex
}

// NewStore returns a Store over backend.
func NewStore(backend storage.Backend[string, string], opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes a chat under id, replacing any chat previously saved with
// the same id, and records it in the index.
func (s *Store) Save(ctx context.Context, id, title, content string) (Record, error) {
	if !validID(id) {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	record := Record{
		ID:         id,
		Title:      title,
		Content:    content,
		CreatedAt:  s.now().UTC().Format(TimestampLayout),
		FileFormat: FileFormat,
	}

	data, err := json.Marshal(record)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode chat", "chat_id", id, "error", err)
		return Record{}, fmt.Errorf("failed to encode chat %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(ctx, RecordKey(id), string(data)); err != nil {
		s.logger.ErrorContext(ctx, "failed to save chat", "chat_id", id, "error", err)
		return Record{}, fmt.Errorf("failed to save chat %q: %w", id, err)
	}

	err = s.updateIndex(ctx, func(index []IndexEntry) []IndexEntry {
		index = removeEntry(index, id)
		return append(index, record.Entry())
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update chat index", "chat_id", id, "error", err)
		return record, fmt.Errorf("%w: chat %q saved: %w", ErrIndexOutOfSync, id, err)
	}

	s.logger.InfoContext(ctx, "chat saved", "chat_id", id)
	return record, nil
}

// Get returns the chat saved under id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if !validID(id) {
		return Record{}, ErrNotFound
	}

	value, found, err := s.backend.Get(ctx, RecordKey(id))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get chat", "chat_id", id, "error", err)
		return Record{}, fmt.Errorf("failed to get chat %q: %w", id, err)
	}
	if !found {
		return Record{}, ErrNotFound
	}

	var record Record
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		s.logger.ErrorContext(ctx, "failed to decode chat", "chat_id", id, "error", err)
		return Record{}, fmt.Errorf("%w: chat %q: %w", ErrCorrupt, id, err)
	}

	return record, nil
}

// List returns every index entry, newest first. It reads only the index,
// so it does not check that the records behind the entries still exist.
func (s *Store) List(ctx context.Context) ([]IndexEntry, error) {
	index, err := s.readIndex(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list chats", "error", err)
		return []IndexEntry{}, err
	}

	sortNewestFirst(index)
	return index, nil
}

// Delete removes the chat saved under id and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	key := RecordKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to look up chat", "chat_id", id, "error", err)
		return fmt.Errorf("failed to look up chat %q: %w", id, err)
	}
	if !found {
		return ErrNotFound
	}

	if err := s.backend.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete chat", "chat_id", id, "error", err)
		return fmt.Errorf("failed to delete chat %q: %w", id, err)
	}

	err = s.updateIndex(ctx, func(index []IndexEntry) []IndexEntry {
		return removeEntry(index, id)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to remove chat from index", "chat_id", id, "error", err)
		return fmt.Errorf("%w: chat %q deleted: %w", ErrIndexOutOfSync, id, err)
	}

	s.logger.InfoContext(ctx, "chat deleted", "chat_id", id)
	return nil
}

// reindexPageSize is how many backend entries Reindex reads per page.
const reindexPageSize = 100

// Reindex rebuilds the index from the chat records present in the
// backend and returns the number of entries written. Records that cannot
// be decoded are skipped and logged.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := storage.All(ctx, s.backend, reindexPageSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to scan chats", "error", err)
		return 0, fmt.Errorf("failed to scan chats: %w", err)
	}

	index := []IndexEntry{}
	for _, entry := range entries {
		if entry.Key == IndexKey || !strings.HasPrefix(entry.Key, RecordKeyPrefix) {
			continue
		}

		var record Record
		if err := json.Unmarshal([]byte(entry.Value), &record); err != nil {
			s.logger.WarnContext(ctx, "skipping corrupt chat", "key", entry.Key, "error", err)
			continue
		}
		index = append(index, record.Entry())
	}

	if err := s.writeIndex(ctx, index); err != nil {
		s.logger.ErrorContext(ctx, "failed to write rebuilt index", "error", err)
		return 0, err
	}

	s.logger.InfoContext(ctx, "chat index rebuilt", "entries", len(index))
	return len(index), nil
}

// updateIndex applies mutate to the stored index. The caller holds mu.
func (s *Store) updateIndex(ctx context.Context, mutate func([]IndexEntry) []IndexEntry) error {
	index, err := s.readIndex(ctx)
	if err != nil {
		return err
	}
	return s.writeIndex(ctx, mutate(index))
}

func (s *Store) readIndex(ctx context.Context) ([]IndexEntry, error) {
	value, found, err := s.backend.Get(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat index: %w", err)
	}
	if !found {
		return []IndexEntry{}, nil
	}

	index := []IndexEntry{}
	if err := json.Unmarshal([]byte(value), &index); err != nil {
		return nil, fmt.Errorf("%w: chat index: %w", ErrCorrupt, err)
	}
	return index, nil
}

func (s *Store) writeIndex(ctx context.Context, index []IndexEntry) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to encode chat index: %w", err)
	}

	if err := s.backend.Set(ctx, IndexKey, string(data)); err != nil {
		return fmt.Errorf("failed to write chat index: %w", err)
	}
	return nil
}

func removeEntry(index []IndexEntry, id string) []IndexEntry {
	return slices.DeleteFunc(index, func(e IndexEntry) bool {
		return e.ID == id
	})
}

func sortNewestFirst(index []IndexEntry) {
	slices.SortStableFunc(index, func(a, b IndexEntry) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
}
