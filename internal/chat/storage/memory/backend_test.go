package memory_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/picatz/chatshelf/internal/chat/storage"
	"github.com/picatz/chatshelf/internal/chat/storage/memory"
	"github.com/picatz/chatshelf/internal/chat/storage/tests"
	"github.com/shoenig/test"
	"github.com/shoenig/test/must"
)

func TestBackend(t *testing.T) {
	tests.BackendSuite(t, memory.NewBackend[string, string]())
	tests.BackendSuite_json_documents(t, memory.NewBackend[string, string]())
}

func TestBackend_concurrent_sets(t *testing.T) {
	b := memory.NewBackend[string, string]()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			test.NoError(t, b.Set(t.Context(), fmt.Sprintf("chat_%d", i), "{}"))
		}()
	}
	wg.Wait()

	all, err := storage.All(t.Context(), storage.Backend[string, string](b), 7)
	must.NoError(t, err)
	must.Len(t, 50, all)
}

func TestBackend_list_non_positive_page_size(t *testing.T) {
	b := memory.NewBackend[string, string]()
	for _, k := range []string{"a", "b", "c"} {
		must.NoError(t, b.Set(t.Context(), k, "v"))
	}

	for _, size := range []int{0, -1} {
		entries, next, err := b.List(t.Context(), storage.PageSize(size), nil)
		must.NoError(t, err)
		must.Nil(t, next)

		var keys []string
		for k := range entries {
			keys = append(keys, k)
		}
		must.Len(t, 3, keys)
	}
}
