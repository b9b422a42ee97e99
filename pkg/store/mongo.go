package store

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mwolter/assetdump/pkg/errors"
)

// MongoStore loads packages from a MongoDB collection, one document per
// package keyed by its "file" field. This is the hosted service's backend.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and wraps the given collection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to %s", uri)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// LoadPackage fetches the package document for a file ID and re-encodes it
// as canonical package bytes.
func (s *MongoStore) LoadPackage(ctx context.Context, fileID int64) ([]byte, error) {
	var doc PackageDoc
	err := s.coll.FindOne(ctx, bson.M{"file": fileID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeAssetNotFound, "no package for file %d in %s", fileID, s.coll.Name())
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load package %d", fileID)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode package %d", fileID)
	}
	return data, nil
}

// Source identifies this store in cache keys.
func (s *MongoStore) Source() string {
	return "mongo:" + s.coll.Database().Name() + "." + s.coll.Name()
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements PackageLoader.
var _ PackageLoader = (*MongoStore)(nil)
