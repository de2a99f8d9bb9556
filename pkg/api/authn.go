package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"newsdesk/pkg/auth"
	"newsdesk/pkg/storage"
)

// loginHandler starts the OIDC code flow: state and nonce go into the
// session, the browser goes to the provider.
func (api *API) loginHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	if api.provider == nil {
		http.Error(w, "Login not configured", http.StatusServiceUnavailable)
		log.Errorf("[loginHandler][%s] no identity provider configured", sID)
		return
	}

	state, err := uuid.NewV4()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	nonce, err := uuid.NewV4()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := api.sessions.BeginLogin(w, r, state.String(), nonce.String()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[loginHandler][%s] failed to save login state: %v", sID, err)
		return
	}

	http.Redirect(w, r, api.provider.AuthCodeURL(state.String(), nonce.String()), http.StatusFound)
}

// authorizeHandler is the provider callback. The state and nonce must match
// the pending login stashed in the session, otherwise the attempt is
// rejected as a possible replay.
func (api *API) authorizeHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	if api.provider == nil {
		http.Error(w, "Login not configured", http.StatusServiceUnavailable)
		return
	}

	state, nonce, err := api.sessions.PendingLogin(r)
	if err != nil {
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		log.Warnf("[authorizeHandler][%s] callback without pending login: %v", sID, err)
		return
	}

	if got := r.URL.Query().Get("state"); got != state {
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		log.Warnf("[authorizeHandler][%s] state mismatch", sID)
		return
	}

	claims, err := api.provider.Exchange(r.Context(), r.URL.Query().Get("code"), nonce)
	if err != nil {
		if errors.Is(err, auth.ErrNonceMismatch) {
			http.Error(w, "Authentication error", http.StatusUnauthorized)
			log.Warnf("[authorizeHandler][%s] nonce mismatch", sID)
			return
		}
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		log.Errorf("[authorizeHandler][%s] token exchange failed: %v", sID, err)
		return
	}

	if err := api.sessions.Establish(w, r, claims); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[authorizeHandler][%s] failed to establish session: %v", sID, err)
		return
	}

	// Account bookkeeping is best effort; a down store must not block login.
	if api.db != nil {
		u := storage.User{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Username:  claims.Username,
			LastLogin: float64(time.Now().UnixNano()) / float64(time.Second),
		}
		if err := api.db.UpsertUser(r.Context(), u); err != nil {
			log.Warnf("[authorizeHandler][%s] failed to upsert user %s: %v", sID, claims.UserID, err)
		}
	}

	log.Infof("[authorizeHandler][%s] session established for %s", sID, claims.UserID)
	http.Redirect(w, r, api.frontendURL, http.StatusFound)
}

func (api *API) logoutHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	if err := api.sessions.Clear(w, r); err != nil {
		log.Errorf("[logoutHandler][%s] failed to clear session: %v", sID, err)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

type identityResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	UserID   string `json:"userID"`
	Role     string `json:"role"`
}

// meHandler tells the SPA who is logged in and with what role.
func (api *API) meHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := api.sessions.Identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	resp := identityResponse{
		Email:    ident.Email,
		Username: ident.Username,
		UserID:   ident.UserID,
		Role:     string(ident.Role),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("[meHandler] failed to encode response: %v", err)
	}
}
