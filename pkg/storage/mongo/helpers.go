package mongo

import "context"

var MongoTestConf = &Config{
	Host:   "localhost",
	Port:   "27018",
	DBName: "newsdesk_test",
}

// StorageConnect is a helper function that establishes a connection to the predefined test Mongo instance.
// It returns a connected Storage object or an error if connection fails.
func StorageConnect(ctx context.Context) (*Storage, error) {
	conf := MongoTestConf
	db, err := New(ctx, conf)
	if err != nil {
		return nil, ErrConnectDB
	}

	err = db.Ping(ctx)
	if err != nil {
		return nil, ErrDBNotResponding
	}

	return db, nil
}

// RestoreDB drops the comments and users collections to reset the database state.
// WARNING: Use only in tests to avoid data loss.
func RestoreDB(db *Storage) error {
	ctx := context.Background()
	if err := db.client.Database(db.dbName).Collection(commentsColl).Drop(ctx); err != nil {
		return err
	}
	return db.client.Database(db.dbName).Collection(usersColl).Drop(ctx)
}
