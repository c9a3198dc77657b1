package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetSessionIDFromContext(r.Context())
		if !ok {
			t.Fatalf("session id not in context")
		}
		gotID = id
	})

	w := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/delivery/session", nil))

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	if !strings.HasPrefix(cookies[0].Value, gotID+".") {
		t.Fatalf("cookie %q does not carry session id %q", cookies[0].Value, gotID)
	}
}

func TestSessionMiddleware_KeepsValidCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	w := httptest.NewRecorder()
	m.SetSessionCookie(w, "6f1c1d1a-7e0b-4b8e-9c53-4d3c1b2a9f10")
	cookie := w.Result().Cookies()[0]

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetSessionIDFromContext(r.Context())
		if id != "6f1c1d1a-7e0b-4b8e-9c53-4d3c1b2a9f10" {
			t.Fatalf("session id = %q", id)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, r)

	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("valid cookie must not be reissued")
	}
}

func TestSessionMiddleware_RejectsForgedCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")
	other := NewSessionMiddleware("other-secret")

	w := httptest.NewRecorder()
	other.SetSessionCookie(w, "6f1c1d1a-7e0b-4b8e-9c53-4d3c1b2a9f10")
	forged := w.Result().Cookies()[0]

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetSessionIDFromContext(r.Context())
		if id == "6f1c1d1a-7e0b-4b8e-9c53-4d3c1b2a9f10" {
			t.Fatalf("forged session accepted")
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(forged)
	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, r)

	if len(rec.Result().Cookies()) != 1 {
		t.Fatalf("expected a new cookie for forged session")
	}
}
