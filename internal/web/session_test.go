package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_BeginSetsSignedCookie(t *testing.T) {
	m := NewManager("s3cret", time.Hour)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id := m.Begin(rec, req)
	require.NotEmpty(t, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, sessionCookie, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	gotID, ok := m.verify(cookie.Value)
	require.True(t, ok)
	assert.Equal(t, id, gotID)
}

func TestManager_BeginReusesValidCookie(t *testing.T) {
	m := NewManager("s3cret", time.Hour)

	rec := httptest.NewRecorder()
	id := m.Begin(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	rec2 := httptest.NewRecorder()
	assert.Equal(t, id, m.Begin(rec2, req))
	assert.Empty(t, rec2.Result().Cookies(), "no new cookie for a valid session")
}

func TestManager_RejectsTamperedCookie(t *testing.T) {
	m := NewManager("s3cret", time.Hour)

	rec := httptest.NewRecorder()
	id := m.Begin(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := rec.Result().Cookies()[0]

	t.Run("tampered id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "other." + m.sign(id)})

		rec2 := httptest.NewRecorder()
		newID := m.Begin(rec2, req)
		assert.NotEqual(t, id, newID)
		assert.NotEqual(t, "other", newID)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewManager("different", time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)

		rec2 := httptest.NewRecorder()
		assert.NotEqual(t, id, other.Begin(rec2, req))
	})

	t.Run("garbage value", func(t *testing.T) {
		_, ok := m.verify("no-dot-here")
		assert.False(t, ok)
		_, ok = m.verify(".sigonly")
		assert.False(t, ok)
	})
}

func TestManager_Transcript(t *testing.T) {
	m := NewManager("s3cret", time.Hour)

	m.SetMessages("sid", []Message{{Role: "user", Text: "hi"}})
	got := m.Messages("sid")
	require.Len(t, got, 1)

	// returned slice is a copy
	got[0].Text = "mutated"
	assert.Equal(t, "hi", m.Messages("sid")[0].Text)

	m.Clear("sid")
	assert.Empty(t, m.Messages("sid"))
	assert.Empty(t, m.Messages("unknown"))
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager("s3cret", time.Minute)

	current := time.Unix(1000000, 0)
	m.now = func() time.Time { return current }

	m.SetMessages("sid", []Message{{Role: "user", Text: "hi"}})

	current = current.Add(2 * time.Minute)
	m.touch("other") // any access sweeps expired sessions

	m.mu.Lock()
	_, exists := m.sessions["sid"]
	m.mu.Unlock()
	assert.False(t, exists)
}
