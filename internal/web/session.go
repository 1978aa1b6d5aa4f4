package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "dbpilot_session"

// Message is one line of a chat transcript.
type Message struct {
	Role string
	Text string
}

// Manager keeps chat transcripts server side. The cookie only carries the
// session ID signed with HMAC-SHA256 under the configured secret key, so a
// client cannot forge or swap sessions.
type Manager struct {
	secret []byte
	ttl    time.Duration

	mu       sync.Mutex
	sessions map[string]*session

	now func() time.Time
}

type session struct {
	messages  []Message
	expiresAt time.Time
}

// NewManager creates a session manager signing with secret.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Begin resolves the request's session, creating one (and setting the
// cookie) when the request carries none or the signature does not verify.
func (m *Manager) Begin(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if id, ok := m.verify(cookie.Value); ok {
			m.touch(id)
			return id
		}
	}

	id := uuid.NewString()
	m.touch(id)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    m.cookieValue(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl / time.Second),
	})
	return id
}

// Messages returns a copy of the session's transcript.
func (m *Manager) Messages(id string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[id]
	if s == nil {
		return nil
	}
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetMessages replaces the session's transcript.
func (m *Manager) SetMessages(id string, messages []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[id] = &session{
		messages:  messages,
		expiresAt: m.now().Add(m.ttl),
	}
}

// Clear empties the session's transcript.
func (m *Manager) Clear(id string) {
	m.SetMessages(id, nil)
}

func (m *Manager) touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	if s := m.sessions[id]; s != nil {
		s.expiresAt = m.now().Add(m.ttl)
		return
	}
	m.sessions[id] = &session{expiresAt: m.now().Add(m.ttl)}
}

// sweepLocked drops expired sessions. Callers hold mu.
func (m *Manager) sweepLocked() {
	now := m.now()
	for id, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

func (m *Manager) cookieValue(id string) string {
	return id + "." + m.sign(id)
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	return id, true
}
