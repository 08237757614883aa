package repository

import (
	"context"
	"fmt"
	"time"

	"cinecatalog-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUsageRepository implements UsageEventRepository on MongoDB.
type MongoUsageRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoUsageRepository connects to MongoDB and verifies the connection.
func NewMongoUsageRepository(uri, database, collection string) (*MongoUsageRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoUsageRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Insert appends one usage event.
func (r *MongoUsageRepository) Insert(ctx context.Context, event model.UsageEvent) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to insert usage event: %w", err)
	}
	return nil
}

// timestampMatch builds the $match stage. Bounds apply only when both are
// set, and both bounds are inclusive.
func timestampMatch(start, end *time.Time) bson.M {
	if start == nil || end == nil {
		return bson.M{}
	}
	return bson.M{"timestamp": bson.M{"$gte": *start, "$lte": *end}}
}

func (r *MongoUsageRepository) statsBy(ctx context.Context, field string, start, end *time.Time) ([]model.UsageSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: timestampMatch(start, end)}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "totalCalls", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "lastCall", Value: bson.D{{Key: "$max", Value: "$timestamp"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "totalCalls", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var summaries []model.UsageSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode usage summaries: %w", err)
	}
	if summaries == nil {
		summaries = []model.UsageSummary{}
	}
	return summaries, nil
}

// StatsByUser groups events by username.
func (r *MongoUsageRepository) StatsByUser(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error) {
	return r.statsBy(ctx, "username", start, end)
}

// StatsByEndpoint groups events by endpoint path.
func (r *MongoUsageRepository) StatsByEndpoint(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error) {
	return r.statsBy(ctx, "endpoint", start, end)
}

// EventsBetween returns raw events in the range, unsorted. Callers order and
// truncate for presentation.
func (r *MongoUsageRepository) EventsBetween(ctx context.Context, start, end *time.Time) ([]model.UsageEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, timestampMatch(start, end))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []model.UsageEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode usage events: %w", err)
	}
	if events == nil {
		events = []model.UsageEvent{}
	}
	return events, nil
}

// Close disconnects from MongoDB.
func (r *MongoUsageRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
