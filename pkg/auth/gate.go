package auth

import (
	"fmt"
	"net/http"
)

var (
	ErrNoSession = fmt.Errorf("no active session")
	ErrForbidden = fmt.Errorf("insufficient role")
)

// CurrentIdentity is the capability a gate needs from the session layer:
// given a request, produce the caller's resolved identity, or report that
// there is none. Handlers for anonymous-friendly endpoints use it directly.
type CurrentIdentity interface {
	Identity(r *http.Request) (*Identity, bool)
}

// Gate checks a caller's role before a privileged operation runs. The
// resolved identity is returned so the operation receives it explicitly
// instead of re-reading session state.
type Gate struct {
	sessions CurrentIdentity
}

func NewGate(sessions CurrentIdentity) *Gate {
	return &Gate{sessions: sessions}
}

// Require returns the caller's identity when a session exists and its role
// is in allowed. ErrNoSession and ErrForbidden map to 401 and 403.
func (g *Gate) Require(r *http.Request, allowed ...Role) (*Identity, error) {
	ident, ok := g.sessions.Identity(r)
	if !ok {
		return nil, ErrNoSession
	}

	for _, role := range allowed {
		if ident.Role == role {
			return ident, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrForbidden, ident.Role)
}
