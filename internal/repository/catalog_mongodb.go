package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cinecatalog-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// opTimeout bounds every single store operation. Each call gets its own
// scoped context so a stuck operation releases its connection on expiry.
const opTimeout = 30 * time.Second

// MongoCatalogStore implements CatalogStore on MongoDB.
type MongoCatalogStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoCatalogStore connects to MongoDB and verifies the connection.
func NewMongoCatalogStore(uri, database string) (*MongoCatalogStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("[MongoDB] Connected to %s", database)
	return &MongoCatalogStore{
		client: client,
		db:     client.Database(database),
	}, nil
}

// ReplaceAll deletes every document matching criteria (all documents when
// criteria is empty).
func (s *MongoCatalogStore) ReplaceAll(ctx context.Context, criteria map[string]interface{}, collection string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{}
	for k, v := range criteria {
		filter[k] = v
	}

	res, err := s.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", collection, err)
	}
	log.Printf("[MongoDB] Cleared %d documents from %s", res.DeletedCount, collection)
	return nil
}

// UpsertBatch applies one independent upsert per item. Partial success is
// deliberate: a failed item is logged and skipped, already-applied upserts
// stay in place, and the joined error reports every failure.
func (s *MongoCatalogStore) UpsertBatch(ctx context.Context, items []model.Keyed, collection string) error {
	coll := s.db.Collection(collection)
	opts := options.Update().SetUpsert(true)

	var failed []error
	for _, item := range items {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		filter := bson.M{}
		for k, v := range item.Key() {
			filter[k] = v
		}
		_, err := coll.UpdateOne(opCtx, filter, bson.M{"$set": item}, opts)
		cancel()
		if err != nil {
			log.Printf("[MongoDB] Upsert into %s failed for %v: %v", collection, item.Key(), err)
			failed = append(failed, fmt.Errorf("upsert %v: %w", item.Key(), err))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("upsert batch into %s: %d of %d items failed: %w",
			collection, len(failed), len(items), errors.Join(failed...))
	}
	return nil
}

// BulkInsert inserts items without matching. Used for reference snapshots
// right after a full clear.
func (s *MongoCatalogStore) BulkInsert(ctx context.Context, items []interface{}, collection string) error {
	if len(items) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.Collection(collection).InsertMany(ctx, items)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	log.Printf("[MongoDB] Inserted %d documents into %s", len(items), collection)
	return nil
}

// FindAll returns every document in the collection with the store id
// projected away.
func (s *MongoCatalogStore) FindAll(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 0})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]interface{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s documents: %w", collection, err)
	}
	if docs == nil {
		docs = []map[string]interface{}{}
	}
	return docs, nil
}

// Close disconnects from MongoDB.
func (s *MongoCatalogStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
