// Package web serves the chat frontend: a session-backed transcript with a
// POST-redirect-GET flow so a browser refresh never replays a message.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Responder answers a single chat message.
type Responder interface {
	HandleMessage(ctx context.Context, text string) (string, error)
}

// Handler wires the assistant and session store into HTTP handlers.
type Handler struct {
	assistant Responder
	sessions  *Manager
	tmpl      *template.Template
	logger    *zap.Logger

	clock func() time.Time
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(assistant Responder, sessions *Manager, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		assistant: assistant,
		sessions:  sessions,
		tmpl:      tmpl,
		logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

type homeData struct {
	Messages []Message
}

// handleHome renders the chat page. After a POST redirect (?once=1) the
// pending transcript is shown exactly once and then cleared; a plain visit
// or refresh always starts clean.
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.Begin(w, r)
	w.Header().Set("Cache-Control", "no-store")

	var messages []Message
	if r.URL.Query().Get("once") == "1" {
		messages = h.sessions.Messages(id)
	}
	h.sessions.Clear(id)

	h.render(w, homeData{Messages: messages})
}

// handleChat appends the user's message and the assistant's reply to the
// session, then redirects so the transcript is shown on the next GET.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.Begin(w, r)

	text := strings.TrimSpace(r.PostFormValue("message"))
	messages := h.sessions.Messages(id)

	if text != "" {
		messages = append(messages, Message{Role: "user", Text: text})

		reply, err := h.assistant.HandleMessage(r.Context(), text)
		if err != nil {
			h.logger.Warn("assistant failed", zap.Error(err))
			reply = fmt.Sprintf("Error: %v", err)
		}
		messages = append(messages, Message{Role: "assistant", Text: reply})
	}

	h.sessions.SetMessages(id, messages)
	http.Redirect(w, r, "/?once=1", http.StatusSeeOther)
}

// handleReset clears the transcript on request.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.Begin(w, r)
	h.sessions.Clear(id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": h.clock(),
	})
}

func (h *Handler) render(w http.ResponseWriter, data homeData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "home.html", data); err != nil {
		h.logger.Error("template render failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, status, map[string]string{
		"error":  title,
		"detail": detail,
	})
}
