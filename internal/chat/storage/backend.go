package storage

import (
	"context"
	"iter"
)

type Entry[K, V any] struct {
	Key   K
	Value V
}

// Backend is a string-keyed (or otherwise keyed) persistent mapping.
//
// Get reports containment through found: a missing key is not an error.
//
// List returns one page of entries and the token for the next page, or a
// nil token on the last page. Page tokens are opaque: each backend picks
// its own meaning, so callers only pass back a token the same backend
// returned. A nil or non-positive page size leaves the page size to the
// backend.
type Backend[K, V any] interface {
	Get(ctx context.Context, key K) (value V, found bool, err error)
	Set(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
	List(ctx context.Context, pageSize *int, pageToken *K) (entries iter.Seq2[K, V], nextPageToken *K, err error)
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// All pages through every entry of the backend, pageSize entries at a time.
func All[K, V any](ctx context.Context, b Backend[K, V], pageSize int) ([]Entry[K, V], error) {
	var (
		all   []Entry[K, V]
		token *K
	)

	for {
		entries, next, err := b.List(ctx, PageSize(pageSize), token)
		if err != nil {
			return nil, err
		}

		for k, v := range entries {
			all = append(all, Entry[K, V]{Key: k, Value: v})
		}

		if next == nil {
			return all, nil
		}
		token = next
	}
}

func ptr[T any](v T) *T {
	return &v
}

func PageSize(pageSize int) *int {
	return ptr(pageSize)
}

func PageToken[T any](pageToken T) *T {
	return ptr(pageToken)
}
