package auth

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "newsdesk-session"

var ErrNoLoginPending = fmt.Errorf("no login attempt pending in session")

// Sessions keeps identity claims in a signed cookie between requests.
// Role is derived at lookup time, so promoting or demoting an identity
// takes effect on the caller's next request.
type Sessions struct {
	store    *sessions.CookieStore
	resolver *Resolver
}

func NewSessions(key []byte, resolver *Resolver) *Sessions {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Sessions{store: store, resolver: resolver}
}

// Identity implements CurrentIdentity.
func (s *Sessions) Identity(r *http.Request) (*Identity, bool) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return nil, false
	}

	userID, ok := sess.Values["userID"].(string)
	if !ok {
		return nil, false
	}
	username, _ := sess.Values["username"].(string)
	email, _ := sess.Values["email"].(string)

	return s.resolver.Resolve(Claims{
		Email:    email,
		Username: username,
		UserID:   userID,
	}), true
}

// Establish stores the caller's claims after a successful provider callback.
func (s *Sessions) Establish(w http.ResponseWriter, r *http.Request, c Claims) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values["userID"] = c.UserID
	sess.Values["username"] = c.Username
	sess.Values["email"] = c.Email
	delete(sess.Values, "state")
	delete(sess.Values, "nonce")

	return sess.Save(r, w)
}

// Clear drops the session entirely.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Options.MaxAge = -1
	sess.Values = make(map[interface{}]interface{})

	return sess.Save(r, w)
}

// BeginLogin stashes the state and nonce of a pending login attempt.
func (s *Sessions) BeginLogin(w http.ResponseWriter, r *http.Request, state, nonce string) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values["state"] = state
	sess.Values["nonce"] = nonce

	return sess.Save(r, w)
}

// PendingLogin returns the state and nonce stashed by BeginLogin, or
// ErrNoLoginPending when the callback arrived without a matching attempt.
func (s *Sessions) PendingLogin(r *http.Request) (state, nonce string, err error) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return "", "", ErrNoLoginPending
	}

	state, okState := sess.Values["state"].(string)
	nonce, okNonce := sess.Values["nonce"].(string)
	if !okState || !okNonce {
		return "", "", ErrNoLoginPending
	}

	return state, nonce, nil
}
