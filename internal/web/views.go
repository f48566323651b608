package web

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/picatz/chatshelf/internal/chat"
)

// htmlWriter writes markup, remembering the first error so components can
// emit a run of fragments and check once.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) component(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func viewPath(id string) string {
	return "/view/" + url.PathEscape(id)
}

func deletePath(id string) string {
	return "/delete/" + url.PathEscape(id)
}

// displayTime renders a stored timestamp for people, falling back to the
// raw value when it does not parse.
func displayTime(createdAt string) string {
	t, err := time.Parse(chat.TimestampLayout, createdAt)
	if err != nil {
		return createdAt
	}
	return t.Format("2006-01-02 15:04")
}

func alertClass(category string) string {
	switch category {
	case "error":
		return "danger"
	case "success":
		return "success"
	default:
		return "info"
	}
}

func layout(title string, msgs []Flash, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!doctype html>
<html lang="en" data-bs-theme="dark">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`)
		h.text(title)
		h.raw(`</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css">
</head>
<body>
<nav class="navbar bg-body-tertiary mb-4"><div class="container"><a class="navbar-brand" href="/"><i class="bi bi-chat-square-text"></i> chatshelf</a></div></nav>
<main class="container">
`)
		for _, f := range msgs {
			h.raw(`<div class="alert alert-`, alertClass(f.Category), ` alert-dismissible fade show" role="alert">`)
			h.text(f.Message)
			h.raw(`<button type="button" class="btn-close" data-bs-dismiss="alert" aria-label="Close"></button></div>
`)
		}
		h.component(ctx, body)
		h.raw(`</main>
<script src="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"></script>
<script src="/static/app.js"></script>
</body>
</html>
`)
		return h.err
	})
}

func shareButton(h *htmlWriter, id string) {
	h.raw(`<button type="button" class="btn btn-sm btn-outline-secondary" data-chat-id="`)
	h.text(id)
	h.raw(`" onclick="copyShareLink(this)"><i class="bi bi-share"></i> Share</button>`)
}

const shareModal = `<div class="modal fade" id="shareLinkModal" tabindex="-1" aria-hidden="true">
<div class="modal-dialog"><div class="modal-content">
<div class="modal-header"><h5 class="modal-title">Share chat</h5><button type="button" class="btn-close" data-bs-dismiss="modal" aria-label="Close"></button></div>
<div class="modal-body"><div class="input-group">
<input type="text" class="form-control" id="shareUrl" readonly>
<button class="btn btn-outline-secondary" type="button" onclick="copyToClipboard(this)"><i class="bi bi-clipboard"></i></button>
</div></div>
</div></div>
</div>
`

func indexPage(entries []chat.IndexEntry, msgs []Flash) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="row g-4">
<section class="col-lg-5">
<h2 class="h4">Save a chat</h2>
<form method="post" action="/save_chat">
<div class="mb-3"><label for="chat_title" class="form-label">Title</label>
<input type="text" class="form-control" id="chat_title" name="chat_title" placeholder="Defaults to the current date and time"></div>
<div class="mb-3"><label for="chat_content" class="form-label">Transcript</label>
<textarea class="form-control font-monospace" id="chat_content" name="chat_content" rows="12" required></textarea></div>
<button type="submit" class="btn btn-primary"><i class="bi bi-save"></i> Save chat</button>
</form>
</section>
<section class="col-lg-7">
<h2 class="h4">Saved chats</h2>
`)
		if len(entries) == 0 {
			h.raw(`<p class="text-body-secondary">No saved chats yet.</p>
`)
		} else {
			h.raw(`<ul class="list-group">
`)
			for _, e := range entries {
				h.raw(`<li class="list-group-item d-flex justify-content-between align-items-center">
<div><a href="`)
				h.text(viewPath(e.ID))
				h.raw(`">`)
				h.text(e.Title)
				h.raw(`</a><div class="small text-body-secondary">`)
				h.text(displayTime(e.CreatedAt))
				h.raw(`</div></div>
<div class="d-flex gap-2">`)
				shareButton(h, e.ID)
				h.raw(`<form method="post" action="`)
				h.text(deletePath(e.ID))
				h.raw(`" data-chat-title="`)
				h.text(e.Title)
				h.raw(`" onsubmit="return confirmDelete(this)"><button type="submit" class="btn btn-sm btn-outline-danger"><i class="bi bi-trash"></i> Delete</button></form>
</div>
</li>
`)
			}
			h.raw(`</ul>
`)
		}
		h.raw(`</section>
</div>
`, shareModal)
		return h.err
	})

	return layout("Saved chats", msgs, body)
}

func viewPage(record chat.Record, rendered string, msgs []Flash) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="d-flex justify-content-between align-items-start mb-3">
<div><h1 class="h3">`)
		h.text(record.Title)
		h.raw(`</h1><div class="small text-body-secondary">Saved `)
		h.text(displayTime(record.CreatedAt))
		h.raw(`</div></div>
<div class="d-flex gap-2"><a class="btn btn-sm btn-outline-secondary" href="/"><i class="bi bi-arrow-left"></i> Back</a>`)
		shareButton(h, record.ID)
		h.raw(`</div>
</div>
<article class="card card-body mb-3">`)
		h.component(ctx, templ.Raw(rendered))
		h.raw(`</article>
<details><summary>Plain text</summary><pre class="mt-2 p-3 bg-body-tertiary rounded"><code>`)
		h.text(record.Content)
		h.raw(`</code></pre></details>
`, shareModal)
		return h.err
	})

	return layout(record.Title, msgs, body)
}
