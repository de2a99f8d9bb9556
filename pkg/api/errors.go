package api

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"newsdesk/pkg/auth"
	"newsdesk/pkg/comments"
	"newsdesk/pkg/moderation"
	"newsdesk/pkg/storage"
)

// writeError maps service errors to HTTP statuses. Validation and not-found
// errors keep their message; store and unexpected failures are logged with
// detail here and answered with a generic body.
func (api *API) writeError(w http.ResponseWriter, handler, sID string, err error) {
	switch {
	case errors.Is(err, comments.ErrMissingField),
		errors.Is(err, comments.ErrInvalidID),
		errors.Is(err, moderation.ErrInvalidID),
		errors.Is(err, moderation.ErrInvalidAction),
		errors.Is(err, moderation.ErrMissingContent):
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Debugf("[%s][%s] rejected: %v", handler, sID, err)

	case errors.Is(err, auth.ErrNoSession):
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		log.Debugf("[%s][%s] no session", handler, sID)

	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "Insufficient privileges", http.StatusForbidden)
		log.Debugf("[%s][%s] forbidden: %v", handler, sID, err)

	case errors.Is(err, storage.ErrCommentNotFound):
		http.Error(w, "Comment not found", http.StatusNotFound)
		log.Debugf("[%s][%s] not found: %v", handler, sID, err)

	case errors.Is(err, storage.ErrNotAvailable):
		http.Error(w, "Comment store unavailable", http.StatusServiceUnavailable)
		log.Errorf("[%s][%s] store unavailable", handler, sID)

	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[%s][%s] unexpected error: %v", handler, sID, err)
	}
}
