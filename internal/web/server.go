// Package web serves the chatshelf pages and the share-link endpoint on
// top of a chat store.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/picatz/chatshelf/internal/chat"
	"github.com/segmentio/ksuid"
)

//go:embed static
var staticFiles embed.FS

// Chats is the chat store the routes read and write.
type Chats interface {
	Save(ctx context.Context, id, title, content string) (chat.Record, error)
	Get(ctx context.Context, id string) (chat.Record, error)
	List(ctx context.Context) ([]chat.IndexEntry, error)
	Delete(ctx context.Context, id string) error
}

// Server holds the route handlers.
type Server struct {
	chats     Chats
	flashes   flashes
	logger    *slog.Logger
	publicURL string
	newID     func() string
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithPublicURL sets the base URL share links are built from. Without it
// links use the scheme and host of the request.
func WithPublicURL(u string) Option {
	return func(s *Server) { s.publicURL = strings.TrimRight(u, "/") }
}

// WithIDGenerator replaces the ksuid generator used for new chats.
func WithIDGenerator(newID func() string) Option {
	return func(s *Server) { s.newID = newID }
}

// WithClock sets the clock used for default chat titles.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer returns a Server over chats. secret signs flash cookies.
func NewServer(chats Chats, secret string, opts ...Option) *Server {
	s := &Server{
		chats:   chats,
		flashes: flashes{secret: []byte(secret)},
		logger:  slog.Default(),
		newID:   func() string { return ksuid.New().String() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /save_chat", s.handleSave)
	mux.HandleFunc("GET /view/{id}", s.handleView)
	mux.HandleFunc("POST /delete/{id}", s.handleDelete)
	mux.HandleFunc("GET /get_share_link/{id}", s.handleShareLink)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	return s.logRequests(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	msgs := s.flashes.pop(w, r)

	entries, err := s.chats.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "error loading dashboard", "error", err)
		msgs = append(msgs, Flash{Category: "error", Message: "Error loading saved chats"})
		entries = nil
	}

	s.render(w, r, http.StatusOK, indexPage(entries, msgs))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	defer http.Redirect(w, r, "/", http.StatusSeeOther)

	if err := r.ParseForm(); err != nil {
		s.logger.WarnContext(r.Context(), "invalid save form", "error", err)
		s.flashes.add(w, r, "error", "Error saving chat")
		return
	}

	content := strings.TrimSpace(r.PostFormValue("chat_content"))
	title := strings.TrimSpace(r.PostFormValue("chat_title"))

	if content == "" {
		s.flashes.add(w, r, "error", "Chat content cannot be empty")
		return
	}

	if title == "" {
		title = chat.DefaultTitle(s.now())
	}

	if _, err := s.chats.Save(r.Context(), s.newID(), title, content); err != nil {
		s.logger.ErrorContext(r.Context(), "error saving chat", "error", err)
		s.flashes.add(w, r, "error", "Error saving chat")
		return
	}

	s.flashes.add(w, r, "success", `Chat "`+title+`" saved successfully!`)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := s.chats.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			s.flashes.add(w, r, "error", "Chat not found")
		} else {
			s.logger.ErrorContext(r.Context(), "error viewing chat", "chat_id", id, "error", err)
			s.flashes.add(w, r, "error", "Error loading chat")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	rendered, err := renderMarkdown(record.Content)
	if err != nil {
		s.logger.WarnContext(r.Context(), "rendering chat as plain text", "chat_id", id, "error", err)
		rendered = "<pre>" + templ.EscapeString(record.Content) + "</pre>"
	}

	s.render(w, r, http.StatusOK, viewPage(record, rendered, s.flashes.pop(w, r)))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.chats.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, chat.ErrNotFound) {
			s.logger.ErrorContext(r.Context(), "error deleting chat", "chat_id", id, "error", err)
		}
		s.flashes.add(w, r, "error", "Error deleting chat")
	} else {
		s.flashes.add(w, r, "success", "Chat deleted successfully")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleShareLink(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.chats.Get(r.Context(), id); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Chat not found"})
			return
		}
		s.logger.ErrorContext(r.Context(), "error generating share link", "chat_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error generating share link"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"share_url": s.ShareURL(r, id)})
}

// ShareURL returns the absolute URL of the read-only page for id.
func (s *Server) ShareURL(r *http.Request, id string) string {
	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + viewPath(id)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	b, err := json.Marshal(v)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"failed to marshal json"}`))
		return
	}
	_, _ = w.Write(append(b, '\n'))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
