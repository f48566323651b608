package tests

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/picatz/chatshelf/internal/chat/storage"
	"github.com/shoenig/test/must"
)

// BackendSuite tests a backend implementation of the storage package, using
// the provided backend instance to perform the tests.
//
// Backends order keys differently (pebble sorts them, memory keeps the
// newest first), so listings are compared as sets.
func BackendSuite(t *testing.T, backend storage.Backend[string, string]) {
	t.Helper()

	_, ok, err := backend.Get(t.Context(), "missing")
	must.NoError(t, err)
	must.False(t, ok)

	err = backend.Set(t.Context(), "hello", "world")
	must.NoError(t, err)

	value, ok, err := backend.Get(t.Context(), "hello")
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, "world", value)

	err = backend.Set(t.Context(), "hello again", "world2")
	must.NoError(t, err)

	value, ok, err = backend.Get(t.Context(), "hello again")
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, "world2", value)

	// Overwrite replaces the full value.
	err = backend.Set(t.Context(), "hello", "world3")
	must.NoError(t, err)

	value, ok, err = backend.Get(t.Context(), "hello")
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, "world3", value)

	entries, next, err := backend.List(t.Context(), storage.PageSize(1), nil)
	must.NoError(t, err)
	must.NotNil(t, next)

	var seen []string
	for key := range entries {
		seen = append(seen, key)
	}
	must.Len(t, 1, seen)

	entries, next, err = backend.List(t.Context(), nil, next)
	must.NoError(t, err)
	must.Nil(t, next)

	for key := range entries {
		seen = append(seen, key)
	}
	slices.Sort(seen)
	must.Eq(t, []string{"hello", "hello again"}, seen)

	err = backend.Delete(t.Context(), "hello")
	must.NoError(t, err)

	_, ok, err = backend.Get(t.Context(), "hello")
	must.NoError(t, err)
	must.False(t, ok)

	// Deleting a missing key is not an error.
	must.NoError(t, backend.Delete(t.Context(), "hello"))

	all, err := storage.All(t.Context(), backend, 10)
	must.NoError(t, err)
	must.Len(t, 1, all)
	must.Eq(t, "hello again", all[0].Key)
}

// BackendSuite_json_documents stores serialized chat-like documents and
// checks that the stored bytes come back unchanged.
func BackendSuite_json_documents(t *testing.T, b storage.Backend[string, string]) {
	t.Helper()

	doc, err := json.Marshal(map[string]string{
		"id":      "2XbqR8",
		"title":   "Notes",
		"content": "line one\nline \"two\"\n\ttabbed",
	})
	must.NoError(t, err)

	err = b.Set(t.Context(), "chat_2XbqR8", string(doc))
	must.NoError(t, err)

	value, ok, err := b.Get(t.Context(), "chat_2XbqR8")
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, string(doc), value)

	var decoded map[string]string
	must.NoError(t, json.Unmarshal([]byte(value), &decoded))
	must.Eq(t, "Notes", decoded["title"])
}
