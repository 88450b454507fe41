package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore("test-secret", time.Hour, nil)
	t.Cleanup(s.Stop)
	return s
}

// setAndCookie stores a session through the public API and returns the
// cookie the browser would carry on subsequent requests.
func setAndCookie(t *testing.T, s *Store, sess *Session) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	s.Set(w, r, sess)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestSetThenGet(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{
		User:   &User{ID: "u1", Name: "Alice", Email: "alice@example.com"},
		Tokens: &Tokens{AccessToken: "at", RefreshToken: "rt"},
	}
	cookie := setAndCookie(t, s, sess)

	r := httptest.NewRequest("GET", "/me", nil)
	r.AddCookie(cookie)

	got, ok := s.Get(r)
	if !ok {
		t.Fatal("expected session to be found")
	}
	if got.User.Email != "alice@example.com" {
		t.Errorf("User.Email = %q, want alice@example.com", got.User.Email)
	}
	if got.Tokens.AccessToken != "at" {
		t.Errorf("Tokens.AccessToken = %q, want at", got.Tokens.AccessToken)
	}
}

func TestGetWithoutCookie(t *testing.T) {
	s := newTestStore(t)

	r := httptest.NewRequest("GET", "/me", nil)
	if _, ok := s.Get(r); ok {
		t.Error("expected no session without a cookie")
	}
}

func TestGetWithTamperedCookie(t *testing.T) {
	s := newTestStore(t)

	cookie := setAndCookie(t, s, &Session{User: &User{ID: "u1"}})

	// Swap the ID but keep the original signature
	_, tag, _ := strings.Cut(cookie.Value, ".")
	r := httptest.NewRequest("GET", "/me", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "forged-id." + tag})

	if _, ok := s.Get(r); ok {
		t.Error("expected tampered cookie to be rejected")
	}
}

func TestGetWithWrongSecret(t *testing.T) {
	s := newTestStore(t)
	other := NewStore("other-secret", time.Hour, nil)
	defer other.Stop()

	cookie := setAndCookie(t, other, &Session{User: &User{ID: "u1"}})

	r := httptest.NewRequest("GET", "/me", nil)
	r.AddCookie(cookie)

	if _, ok := s.Get(r); ok {
		t.Error("expected cookie signed with a different secret to be rejected")
	}
}

func TestDestroy(t *testing.T) {
	s := newTestStore(t)

	cookie := setAndCookie(t, s, &Session{User: &User{ID: "u1"}})

	r := httptest.NewRequest("GET", "/auth/logout", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()

	if err := s.Destroy(w, r); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	// Session is gone
	r2 := httptest.NewRequest("GET", "/me", nil)
	r2.AddCookie(cookie)
	if _, ok := s.Get(r2); ok {
		t.Error("expected session to be destroyed")
	}

	// Cookie is expired
	cleared := w.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Error("expected an expiring Set-Cookie header")
	}
}

func TestDestroyWithoutSession(t *testing.T) {
	s := newTestStore(t)

	r := httptest.NewRequest("GET", "/auth/logout", nil)
	w := httptest.NewRecorder()

	if err := s.Destroy(w, r); err != nil {
		t.Errorf("Destroy() on absent session error = %v, want nil", err)
	}
}

func TestSetReusesExistingID(t *testing.T) {
	s := newTestStore(t)

	cookie := setAndCookie(t, s, &Session{User: &User{ID: "u1"}})

	// A second Set on the same browser session must not grow the store
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	s.Set(w, r, &Session{User: &User{ID: "u1"}, Tokens: &Tokens{AccessToken: "at"}})

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after re-Set on same cookie", s.Len())
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s := newTestStore(t)

	signed := s.sign("some-id")
	id, ok := s.verify(signed)
	if !ok || id != "some-id" {
		t.Errorf("verify(sign(id)) = (%q, %v), want (some-id, true)", id, ok)
	}

	if _, ok := s.verify("garbage"); ok {
		t.Error("expected unsigned value to be rejected")
	}
	if _, ok := s.verify(""); ok {
		t.Error("expected empty value to be rejected")
	}
}
