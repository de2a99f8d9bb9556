package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testSessions() *Sessions {
	return NewSessions([]byte("test-session-key"), &Resolver{AdminID: "admin-123"})
}

// carryCookies copies the Set-Cookie output of one request onto the next,
// playing the role of the browser.
func carryCookies(t *testing.T, from *httptest.ResponseRecorder, to *http.Request) {
	t.Helper()
	for _, c := range from.Result().Cookies() {
		to.AddCookie(c)
	}
}

func TestSessions_EstablishAndIdentity(t *testing.T) {
	s := testSessions()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
	err := s.Establish(rr, req, Claims{Email: "c@example.com", Username: "carol", UserID: "admin-123"})
	if err != nil {
		t.Fatalf("unexpected error establishing session: %v", err)
	}

	next := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	carryCookies(t, rr, next)

	ident, ok := s.Identity(next)
	if !ok {
		t.Fatal("want identity, got none")
	}
	if ident.Username != "carol" {
		t.Errorf("want username %q, got %q", "carol", ident.Username)
	}
	if ident.Role != RoleAdmin {
		t.Errorf("want role %v, got %v", RoleAdmin, ident.Role)
	}
}

func TestSessions_IdentityWithoutSession(t *testing.T) {
	s := testSessions()

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if _, ok := s.Identity(req); ok {
		t.Error("want no identity for a request without a session cookie")
	}
}

func TestSessions_Clear(t *testing.T) {
	s := testSessions()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
	if err := s.Establish(rr, req, Claims{UserID: "u1"}); err != nil {
		t.Fatalf("unexpected error establishing session: %v", err)
	}

	logoutReq := httptest.NewRequest(http.MethodGet, "/api/logout", nil)
	carryCookies(t, rr, logoutReq)
	logoutRR := httptest.NewRecorder()
	if err := s.Clear(logoutRR, logoutReq); err != nil {
		t.Fatalf("unexpected error clearing session: %v", err)
	}

	next := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	carryCookies(t, logoutRR, next)
	if _, ok := s.Identity(next); ok {
		t.Error("want no identity after logout")
	}
}

func TestSessions_PendingLogin(t *testing.T) {
	s := testSessions()

	t.Run("no pending login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
		_, _, err := s.PendingLogin(req)
		if !errors.Is(err, ErrNoLoginPending) {
			t.Errorf("want ErrNoLoginPending, got %v", err)
		}
	})

	t.Run("roundtrip", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/login", nil)
		if err := s.BeginLogin(rr, req, "state-1", "nonce-1"); err != nil {
			t.Fatalf("unexpected error beginning login: %v", err)
		}

		cb := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
		carryCookies(t, rr, cb)

		state, nonce, err := s.PendingLogin(cb)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state != "state-1" || nonce != "nonce-1" {
			t.Errorf("want state-1/nonce-1, got %s/%s", state, nonce)
		}
	})

	t.Run("establish drops pending login", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/login", nil)
		if err := s.BeginLogin(rr, req, "state-2", "nonce-2"); err != nil {
			t.Fatalf("unexpected error beginning login: %v", err)
		}

		cb := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
		carryCookies(t, rr, cb)
		cbRR := httptest.NewRecorder()
		if err := s.Establish(cbRR, cb, Claims{UserID: "u1"}); err != nil {
			t.Fatalf("unexpected error establishing session: %v", err)
		}

		next := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
		carryCookies(t, cbRR, next)
		if _, _, err := s.PendingLogin(next); !errors.Is(err, ErrNoLoginPending) {
			t.Errorf("want ErrNoLoginPending after session established, got %v", err)
		}
	})
}
