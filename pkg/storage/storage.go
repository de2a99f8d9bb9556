// Package storage defines the comment store contract shared by the Mongo
// implementation and the in-memory implementation used in tests.
package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotAvailable    = fmt.Errorf("comment store not available")
	ErrCommentNotFound = fmt.Errorf("comment not found")
)

// Comment is a stored comment document. Timestamp and ModerationTimestamp
// are epoch seconds, fractional, matching what the frontend renders.
type Comment struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty"`
	ArticleID           string              `bson:"articleId"`
	Author              string              `bson:"author"`
	Content             string              `bson:"content"`
	Timestamp           float64             `bson:"timestamp"`
	Removed             bool                `bson:"removed"`
	RemovedBy           string              `bson:"removedBy"`
	ParentID            *primitive.ObjectID `bson:"parentId"`
	ModerationTimestamp float64             `bson:"moderationTimestamp,omitempty"`
}

// User is an identity-provider account seen at least once at login.
type User struct {
	UserID    string  `bson:"userId"`
	Email     string  `bson:"email"`
	Username  string  `bson:"username"`
	LastLogin float64 `bson:"lastLogin"`
}

type Storage interface {
	// AddComment inserts a comment and returns the id assigned by the store.
	AddComment(ctx context.Context, c Comment) (primitive.ObjectID, error)
	// Comments returns all comments ordered by timestamp descending.
	Comments(ctx context.Context) ([]Comment, error)
	// Comment returns a single comment or ErrCommentNotFound.
	Comment(ctx context.Context, id primitive.ObjectID) (Comment, error)
	// UpdateComment applies a partial $set-style update in place.
	// Returns ErrCommentNotFound when no document matched. A matched but
	// unmodified update is not an error.
	UpdateComment(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	// UpsertUser records an identity-provider account by userId.
	UpsertUser(ctx context.Context, u User) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
