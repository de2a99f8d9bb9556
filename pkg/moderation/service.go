// Package moderation applies privileged mutations to comments. Callers are
// expected to have passed the auth gate already; the moderator identity is
// an explicit parameter, never looked up from ambient state.
package moderation

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"newsdesk/pkg/auth"
	"newsdesk/pkg/comments"
	"newsdesk/pkg/storage"
)

const (
	ActionDelete = "delete_full"
	ActionRedact = "redact_partial"

	// RemovedNotice replaces the content of fully deleted comments.
	RemovedNotice = "[This comment has been removed by a moderator.]"
)

var (
	ErrInvalidAction  = fmt.Errorf("invalid moderation action")
	ErrMissingContent = fmt.Errorf("new_content required for redaction")
	ErrInvalidID      = fmt.Errorf("invalid comment id")
)

type Service struct {
	db  storage.Storage
	now func() float64 // epoch seconds, swappable in tests
}

func NewService(db storage.Storage) *Service {
	return &Service{
		db: db,
		now: func() float64 {
			return float64(time.Now().UnixNano()) / float64(time.Second)
		},
	}
}

// Moderate applies action to the referenced comment and returns its fresh
// serialized state.
//
// delete_full replaces the content with RemovedNotice; redact_partial
// replaces it with newContent, which must be present but may be the empty
// string. Both mark the comment removed and stamp the moderator. A comment
// already moderated can be moderated again; the marks are overwritten and
// there is no way back to the unmoderated state.
func (s *Service) Moderate(ctx context.Context, idHex, action string, newContent *string, mod *auth.Identity) (comments.Comment, error) {
	if s.db == nil {
		return comments.Comment{}, storage.ErrNotAvailable
	}

	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return comments.Comment{}, fmt.Errorf("%w: %q", ErrInvalidID, idHex)
	}

	var content string
	switch action {
	case ActionDelete:
		content = RemovedNotice
	case ActionRedact:
		if newContent == nil {
			return comments.Comment{}, ErrMissingContent
		}
		content = *newContent
	default:
		return comments.Comment{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	fields := bson.M{
		"content":             content,
		"removed":             true,
		"removedBy":           mod.DisplayName(),
		"moderationTimestamp": s.now(),
	}

	if err := s.db.UpdateComment(ctx, id, fields); err != nil {
		return comments.Comment{}, err
	}

	c, err := s.db.Comment(ctx, id)
	if err != nil {
		return comments.Comment{}, err
	}

	return comments.Serialize(c), nil
}
