// Package memdb is an in-memory comment store used by tests and dev mode.
package memdb

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"newsdesk/pkg/storage"
)

type Store struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]storage.Comment
	users    map[string]storage.User
}

func New() *Store {
	return &Store{
		comments: make(map[primitive.ObjectID]storage.Comment),
		users:    make(map[string]storage.User),
	}
}

func (db *Store) AddComment(ctx context.Context, c storage.Comment) (primitive.ObjectID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	db.comments[c.ID] = c

	return c.ID, nil
}

func (db *Store) Comments(ctx context.Context) ([]storage.Comment, error) {
	db.mu.Lock()
	all := make([]storage.Comment, 0, len(db.comments))
	for _, c := range db.comments {
		all = append(all, c)
	}
	db.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp > all[j].Timestamp
	})

	return all, nil
}

func (db *Store) Comment(ctx context.Context, id primitive.ObjectID) (storage.Comment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.comments[id]
	if !ok {
		return storage.Comment{}, storage.ErrCommentNotFound
	}

	return c, nil
}

// UpdateComment mirrors the Mongo $set semantics for the field names the
// services actually write.
func (db *Store) UpdateComment(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.comments[id]
	if !ok {
		return storage.ErrCommentNotFound
	}

	for k, v := range fields {
		switch k {
		case "content":
			c.Content = v.(string)
		case "removed":
			c.Removed = v.(bool)
		case "removedBy":
			c.RemovedBy = v.(string)
		case "moderationTimestamp":
			c.ModerationTimestamp = v.(float64)
		case "articleId":
			c.ArticleID = v.(string)
		case "author":
			c.Author = v.(string)
		}
	}
	db.comments[id] = c

	return nil
}

func (db *Store) UpsertUser(ctx context.Context, u storage.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users[u.UserID] = u
	return nil
}

// User returns a stored user by id. Test helper, not part of storage.Storage.
func (db *Store) User(userID string) (storage.User, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[userID]
	return u, ok
}

func (db *Store) Ping(ctx context.Context) error { return nil }

func (db *Store) Close(ctx context.Context) error { return nil }
