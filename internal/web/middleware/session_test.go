package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateAndGetSession(t *testing.T) {
	sm := NewSessionManager("test-secret")

	session := sm.CreateSession("admin")
	if session.ID == "" || session.Username != "admin" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("session must expire in the future")
	}

	if got := sm.GetSession(session.ID); got == nil || got.ID != session.ID {
		t.Error("stored session not retrievable")
	}
	if sm.GetSession("unknown") != nil {
		t.Error("unknown session id must return nil")
	}
}

func TestExpiredSessionIsDeleted(t *testing.T) {
	sm := NewSessionManager("test-secret")
	session := sm.CreateSession("admin")
	session.ExpiresAt = time.Now().Add(-time.Minute)

	if sm.GetSession(session.ID) != nil {
		t.Error("expired session must not be returned")
	}
	// Expiry removes it from the store
	sm.mu.RLock()
	_, ok := sm.sessions[session.ID]
	sm.mu.RUnlock()
	if ok {
		t.Error("expired session must be deleted")
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	sm := NewSessionManager("test-secret")
	session := sm.CreateSession("admin")

	rec := httptest.NewRecorder()
	sm.SetSessionCookie(rec, session)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly {
		t.Fatalf("expected one http-only cookie, got %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	if got := sm.GetSessionFromRequest(req); got == nil || got.ID != session.ID {
		t.Error("signed cookie must resolve to the session")
	}
}

func TestSessionCookie_TamperedSignature(t *testing.T) {
	sm := NewSessionManager("test-secret")
	session := sm.CreateSession("admin")

	rec := httptest.NewRecorder()
	sm.SetSessionCookie(rec, session)
	cookie := rec.Result().Cookies()[0]
	id, _, _ := strings.Cut(cookie.Value, ".")
	cookie.Value = id + "." + "forged-signature"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if sm.GetSessionFromRequest(req) != nil {
		t.Error("tampered cookie must be rejected")
	}
}

func TestBearerTokenFallback(t *testing.T) {
	sm := NewSessionManager("test-secret")
	session := sm.CreateSession("admin")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	if got := sm.GetSessionFromRequest(req); got == nil || got.Username != "admin" {
		t.Error("bearer token must resolve to the session")
	}
}

func TestRequireAuth(t *testing.T) {
	sm := NewSessionManager("test-secret")
	session := sm.CreateSession("admin")

	var seen *Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(sm)(next)

	// No credentials
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %d", rec.Code)
	}

	// Bearer token
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a session, got %d", rec.Code)
	}
	if seen == nil || seen.Username != "admin" {
		t.Error("session must be placed in the request context")
	}
}
