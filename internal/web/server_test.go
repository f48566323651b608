package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/picatz/chatshelf/internal/chat"
	"github.com/picatz/chatshelf/internal/chat/storage/memory"
	"github.com/picatz/chatshelf/internal/web"
	"github.com/shoenig/test/must"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type harness struct {
	store  *chat.Store
	server *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T, chats web.Chats, opts ...web.Option) *harness {
	t.Helper()

	store := chat.NewStore(memory.NewBackend[string, string](), chat.WithLogger(quiet))
	if chats == nil {
		chats = store
	}

	ids := 0
	opts = append([]web.Option{
		web.WithLogger(quiet),
		web.WithIDGenerator(func() string {
			ids++
			return "chat" + string(rune('0'+ids))
		}),
		web.WithClock(func() time.Time {
			return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
		}),
	}, opts...)

	srv := httptest.NewServer(web.NewServer(chats, "test-secret", opts...).Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	must.NoError(t, err)

	return &harness{
		store:  store,
		server: srv,
		client: &http.Client{Jar: jar},
	}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.server.URL + path)
	must.NoError(t, err)
	return resp, readBody(t, resp)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.PostForm(h.server.URL+path, form)
	must.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	must.NoError(t, err)
	return string(b)
}

func TestServer_save_list_view_delete(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.post(t, "/save_chat", url.Values{
		"chat_title":   {"  Notes  "},
		"chat_content": {"hello **world**"},
	})
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.StrContains(t, body, "Chat &#34;Notes&#34; saved successfully!")
	must.StrContains(t, body, `href="/view/chat1"`)

	// The flash is shown once.
	_, body = h.get(t, "/")
	must.StrNotContains(t, body, "saved successfully")
	must.StrContains(t, body, ">Notes</a>")

	record, err := h.store.Get(t.Context(), "chat1")
	must.NoError(t, err)
	must.Eq(t, "hello **world**", record.Content)

	resp, body = h.get(t, "/view/chat1")
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.StrContains(t, body, "<strong>world</strong>")
	must.StrContains(t, body, "hello **world**")

	resp, body = h.post(t, "/delete/chat1", nil)
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.StrContains(t, body, "Chat deleted successfully")
	must.StrContains(t, body, "No saved chats yet.")

	_, err = h.store.Get(t.Context(), "chat1")
	must.ErrorIs(t, err, chat.ErrNotFound)
}

func TestServer_save_defaults_title(t *testing.T) {
	h := newHarness(t, nil)

	_, body := h.post(t, "/save_chat", url.Values{"chat_content": {"hi"}})
	must.StrContains(t, body, "Chat 2024-05-01 09:30")

	list, err := h.store.List(t.Context())
	must.NoError(t, err)
	must.Len(t, 1, list)
	must.Eq(t, "Chat 2024-05-01 09:30", list[0].Title)
}

func TestServer_save_rejects_empty_content(t *testing.T) {
	h := newHarness(t, nil)

	_, body := h.post(t, "/save_chat", url.Values{
		"chat_title":   {"Empty"},
		"chat_content": {"   \n\t"},
	})
	must.StrContains(t, body, "Chat content cannot be empty")

	list, err := h.store.List(t.Context())
	must.NoError(t, err)
	must.SliceEmpty(t, list)
}

func TestServer_view_missing(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.get(t, "/view/nope")
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.Eq(t, "/", resp.Request.URL.Path)
	must.StrContains(t, body, "Chat not found")
}

func TestServer_view_sanitizes_content(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.store.Save(t.Context(), "x1", "<b>Title</b>", "<script>alert(1)</script>\n\n- item")
	must.NoError(t, err)

	_, body := h.get(t, "/view/x1")
	must.StrNotContains(t, body, "<script>alert(1)</script>")
	must.StrContains(t, body, "&lt;b&gt;Title&lt;/b&gt;")
	must.StrContains(t, body, "<li>item</li>")
}

func TestServer_delete_missing(t *testing.T) {
	h := newHarness(t, nil)

	_, body := h.post(t, "/delete/nope", nil)
	must.StrContains(t, body, "Error deleting chat")
}

func TestServer_share_link(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.store.Save(t.Context(), "a1", "Notes", "hello")
	must.NoError(t, err)

	resp, body := h.get(t, "/get_share_link/a1")
	must.Eq(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	must.NoError(t, json.Unmarshal([]byte(body), &got))
	must.Eq(t, h.server.URL+"/view/a1", got["share_url"])

	resp, body = h.get(t, "/get_share_link/missing")
	must.Eq(t, http.StatusNotFound, resp.StatusCode)
	must.NoError(t, json.Unmarshal([]byte(body), &got))
	must.Eq(t, "Chat not found", got["error"])
}

func TestServer_share_link_public_url(t *testing.T) {
	h := newHarness(t, nil, web.WithPublicURL("https://chats.example.com/"))

	_, err := h.store.Save(t.Context(), "a1", "Notes", "hello")
	must.NoError(t, err)

	_, body := h.get(t, "/get_share_link/a1")
	must.StrContains(t, body, `"share_url":"https://chats.example.com/view/a1"`)
}

// brokenChats fails every operation as if the backend were down.
type brokenChats struct{}

var errDown = errors.New("backend unavailable")

func (brokenChats) Save(context.Context, string, string, string) (chat.Record, error) {
	return chat.Record{}, errDown
}
func (brokenChats) Get(context.Context, string) (chat.Record, error) { return chat.Record{}, errDown }
func (brokenChats) List(context.Context) ([]chat.IndexEntry, error) { return nil, errDown }
func (brokenChats) Delete(context.Context, string) error { return errDown }

func TestServer_backend_down(t *testing.T) {
	h := newHarness(t, brokenChats{})

	resp, body := h.get(t, "/")
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.StrContains(t, body, "Error loading saved chats")

	_, body = h.post(t, "/save_chat", url.Values{"chat_content": {"hi"}})
	must.StrContains(t, body, "Error saving chat")

	_, body = h.get(t, "/view/a1")
	must.StrContains(t, body, "Error loading chat")

	resp, body = h.get(t, "/get_share_link/a1")
	must.Eq(t, http.StatusInternalServerError, resp.StatusCode)
	must.StrContains(t, body, "Error generating share link")
}

func TestServer_tampered_flash_is_ignored(t *testing.T) {
	h := newHarness(t, nil)

	u, err := url.Parse(h.server.URL)
	must.NoError(t, err)
	h.client.Jar.SetCookies(u, []*http.Cookie{{
		Name:  "chatshelf_flash",
		Value: "W3siY2F0ZWdvcnkiOiJlcnJvciIsIm1lc3NhZ2UiOiJmb3JnZWQifV0.bad",
	}})

	_, body := h.get(t, "/")
	must.StrNotContains(t, body, "forged")
}

func TestServer_static_and_health(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.get(t, "/static/app.js")
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.StrContains(t, body, "function copyShareLink")

	resp, body = h.get(t, "/healthz")
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.Eq(t, `{"ok":true}`, strings.TrimSpace(body))

	resp, _ = h.get(t, "/nowhere")
	must.Eq(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_corrupt_record_is_an_error(t *testing.T) {
	backend := memory.NewBackend[string, string]()
	must.NoError(t, backend.Set(t.Context(), chat.RecordKey("bad"), "{not json"))
	h := newHarness(t, chat.NewStore(backend, chat.WithLogger(quiet)))

	resp, body := h.get(t, "/view/bad")
	must.Eq(t, "/", resp.Request.URL.Path)
	must.StrContains(t, body, "Error loading chat")
	must.StrNotContains(t, body, "Chat not found")

	resp, body = h.get(t, "/get_share_link/bad")
	must.Eq(t, http.StatusInternalServerError, resp.StatusCode)
	must.StrContains(t, body, "Error generating share link")
}
