package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/pkg/storage"
)

var (
	ErrConnectDB       = fmt.Errorf("unable to establish DB connection")
	ErrDBNotResponding = fmt.Errorf("DB not responding")
)

const (
	commentsColl = "comments"
	usersColl    = "users"
)

type Storage struct {
	client *mongo.Client
	dbName string
}

func New(ctx context.Context, conf *Config) (*Storage, error) {
	opt := conf.Options()
	client, err := mongo.Connect(ctx, opt)
	if err != nil {
		return nil, err
	}

	s := Storage{client: client, dbName: conf.DBName}
	s.createCollection(ctx, commentsColl)
	s.createCollection(ctx, usersColl)

	return &s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// AddComment inserts a comment into the comments collection. The id is
// assigned here if the caller left it zero, which is the normal path.
func (s *Storage) AddComment(ctx context.Context, c storage.Comment) (primitive.ObjectID, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}

	coll := s.client.Database(s.dbName).Collection(commentsColl)
	res, err := coll.InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return c.ID, nil
	}
	return id, nil
}

// Comments returns every stored comment, newest first.
func (s *Storage) Comments(ctx context.Context) ([]storage.Comment, error) {
	coll := s.client.Database(s.dbName).Collection(commentsColl)
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var comments []storage.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (s *Storage) Comment(ctx context.Context, id primitive.ObjectID) (storage.Comment, error) {
	coll := s.client.Database(s.dbName).Collection(commentsColl)

	var c storage.Comment
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return storage.Comment{}, storage.ErrCommentNotFound
	}
	if err != nil {
		return storage.Comment{}, err
	}

	return c, nil
}

// UpdateComment applies fields as a $set update. MatchedCount distinguishes
// a missing document from an update that changed nothing; the latter is fine.
func (s *Storage) UpdateComment(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	coll := s.client.Database(s.dbName).Collection(commentsColl)

	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrCommentNotFound
	}

	return nil
}

func (s *Storage) UpsertUser(ctx context.Context, u storage.User) error {
	coll := s.client.Database(s.dbName).Collection(usersColl)
	opts := options.Update().SetUpsert(true)

	_, err := coll.UpdateOne(ctx, bson.M{"userId": u.UserID}, bson.M{"$set": u}, opts)
	return err
}

// createCollection creates a collection with the given name in the database if it doesn't already exist.
func (s *Storage) createCollection(ctx context.Context, collName string) error {
	collExists, err := collectionExists(ctx, s.client.Database(s.dbName), collName)
	if err != nil {
		return err
	}

	if !collExists {
		err := s.client.Database(s.dbName).CreateCollection(ctx, collName)
		if err != nil {
			return err
		}
	}

	return nil
}

// collectionExists checks if a collection with the given name exists in the database.
func collectionExists(ctx context.Context, db *mongo.Database, collName string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return false, fmt.Errorf("failed to list collection names: %w", err)
	}

	for _, name := range names {
		if name == collName {
			return true, nil
		}
	}

	return false, nil
}
