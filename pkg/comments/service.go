// Package comments validates and serializes reader comments on articles.
package comments

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"newsdesk/pkg/auth"
	"newsdesk/pkg/storage"
)

// AnonymousAuthor is shown when a comment was posted without a session.
const AnonymousAuthor = "TEMP - Anon"

var (
	ErrMissingField = fmt.Errorf("missing required field")
	ErrInvalidID    = fmt.Errorf("invalid comment id")
)

type Service struct {
	db storage.Storage
}

// NewService wires the comment service to its store. A nil store is
// tolerated: every operation then reports storage.ErrNotAvailable, which
// the API layer maps to 503 instead of crashing the process.
func NewService(db storage.Storage) *Service {
	return &Service{db: db}
}

type CreateRequest struct {
	ArticleID string `json:"articleId"`
	Content   string `json:"content"`
	ParentID  string `json:"parentId,omitempty"`
}

// Comment is the serialized form every handler returns to the frontend.
type Comment struct {
	ID                  string  `json:"id"`
	ArticleID           string  `json:"articleId"`
	Author              string  `json:"author"`
	Content             string  `json:"content"`
	Timestamp           float64 `json:"timestamp"`
	Removed             bool    `json:"removed"`
	RemovedBy           string  `json:"removedBy"`
	ParentID            *string `json:"parentId"`
	ModerationTimestamp float64 `json:"moderationTimestamp,omitempty"`
}

// Create validates a creation request and persists the comment.
//
// A parentId that is not a structurally valid ObjectID is silently dropped
// and the comment becomes top-level; whether the referenced parent actually
// exists is never checked.
func (s *Service) Create(ctx context.Context, req CreateRequest, ident *auth.Identity) (Comment, error) {
	if s.db == nil {
		return Comment{}, storage.ErrNotAvailable
	}

	if req.ArticleID == "" {
		return Comment{}, fmt.Errorf("%w: articleId", ErrMissingField)
	}
	if req.Content == "" {
		return Comment{}, fmt.Errorf("%w: content", ErrMissingField)
	}

	author := AnonymousAuthor
	if ident != nil && ident.DisplayName() != "" {
		author = ident.DisplayName()
	}

	var parentID *primitive.ObjectID
	if req.ParentID != "" {
		if oid, err := primitive.ObjectIDFromHex(req.ParentID); err == nil {
			parentID = &oid
		}
	}

	c := storage.Comment{
		ArticleID: req.ArticleID,
		Author:    author,
		Content:   req.Content,
		Timestamp: epochSeconds(time.Now()),
		ParentID:  parentID,
	}

	id, err := s.db.AddComment(ctx, c)
	if err != nil {
		return Comment{}, err
	}
	c.ID = id

	return Serialize(c), nil
}

// List returns all comments newest-first. Stored documents missing an
// articleId cannot be attached to anything on the frontend, so they are
// dropped rather than surfaced as an error.
func (s *Service) List(ctx context.Context) ([]Comment, error) {
	if s.db == nil {
		return nil, storage.ErrNotAvailable
	}

	stored, err := s.db.Comments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Comment, 0, len(stored))
	for _, c := range stored {
		if c.ArticleID == "" {
			continue
		}
		out = append(out, Serialize(c))
	}

	return out, nil
}

// Get fetches a single comment by its hex id.
func (s *Service) Get(ctx context.Context, idHex string) (Comment, error) {
	if s.db == nil {
		return Comment{}, storage.ErrNotAvailable
	}

	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return Comment{}, fmt.Errorf("%w: %q", ErrInvalidID, idHex)
	}

	c, err := s.db.Comment(ctx, id)
	if err != nil {
		return Comment{}, err
	}

	return Serialize(c), nil
}

// Serialize renders a stored comment for the frontend: ids become strings,
// an absent parent becomes JSON null, and fields a legacy document might
// be missing get safe defaults.
func Serialize(c storage.Comment) Comment {
	author := c.Author
	if author == "" {
		author = AnonymousAuthor
	}

	var parentID *string
	if c.ParentID != nil {
		hex := c.ParentID.Hex()
		parentID = &hex
	}

	return Comment{
		ID:                  c.ID.Hex(),
		ArticleID:           c.ArticleID,
		Author:              author,
		Content:             c.Content,
		Timestamp:           c.Timestamp,
		Removed:             c.Removed,
		RemovedBy:           c.RemovedBy,
		ParentID:            parentID,
		ModerationTimestamp: c.ModerationTimestamp,
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
