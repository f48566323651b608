package memory

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/picatz/chatshelf/internal/chat/storage"
)

var _ storage.Backend[string, string] = (*Backend[string, string])(nil)

// Backend keeps entries in a slice, newest key first. It is safe for
// concurrent use, but nothing survives the process.
type Backend[K comparable, V any] struct {
	mu    sync.RWMutex
	store []storage.Entry[K, V]
}

// NewBackend creates a new in-memory storage backend.
func NewBackend[K comparable, V any]() *Backend[K, V] {
	return &Backend[K, V]{}
}

func (b *Backend[K, V]) index(key K) int {
	return slices.IndexFunc(b.store, func(e storage.Entry[K, V]) bool {
		return e.Key == key
	})
}

// Get retrieves a value from the in-memory store by its key.
func (b *Backend[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i := b.index(key); i >= 0 {
		return b.store[i].Value, true, nil
	}
	var zero V
	return zero, false, nil
}

// Set stores a key-value pair, replacing the value of an existing key
// in place.
func (b *Backend[K, V]) Set(ctx context.Context, key K, value V) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.index(key); i >= 0 {
		b.store[i].Value = value
		return nil
	}

	b.store = append([]storage.Entry[K, V]{{Key: key, Value: value}}, b.store...)
	return nil
}

// Delete removes a key-value pair. Deleting a missing key is a no-op.
func (b *Backend[K, V]) Delete(ctx context.Context, key K) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.index(key); i >= 0 {
		b.store = slices.Delete(b.store, i, i+1)
	}
	return nil
}

// List returns a snapshot page of entries. The page token is the last key
// of the previous page. A nil or non-positive page size returns every
// remaining entry.
func (b *Backend[K, V]) List(ctx context.Context, pageSize *int, pageToken *K) (iter.Seq2[K, V], *K, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := b.store
	if pageToken != nil {
		entries = nil
		if i := b.index(*pageToken); i >= 0 {
			entries = b.store[i+1:]
		}
	}

	var nextPageToken *K
	if pageSize != nil && *pageSize > 0 && len(entries) > *pageSize {
		entries = entries[:*pageSize]
		nextPageToken = storage.PageToken(entries[*pageSize-1].Key)
	}

	snapshot := slices.Clone(entries)

	return func(yield func(K, V) bool) {
		for _, entry := range snapshot {
			if !yield(entry.Key, entry.Value) {
				return
			}
		}
	}, nextPageToken, nil
}

// Flush is a no-op for the in-memory backend.
func (b *Backend[K, V]) Flush(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (b *Backend[K, V]) Close(context.Context) error {
	return nil
}
