package repository

import (
	"context"
	"strconv"
	"time"

	"cinecatalog-api/internal/model"
)

// Collection names for the ingested catalog.
const (
	CollUpcoming    = "upcoming"
	CollGenres      = "genres"
	CollTheaters    = "theaters"
	CollExtraImages = "extraimages"
)

// MovieCollection returns the per-day showtimes collection name.
func MovieCollection(day int) string {
	return "movies" + strconv.Itoa(day)
}

// CatalogStore is the persistence gateway for ingested catalog documents.
// Writes are idempotent upserts keyed on each document's natural identity;
// reference collections are fully replaced instead.
type CatalogStore interface {
	// ReplaceAll deletes every document matching criteria. An empty or nil
	// criteria deletes all documents in the collection.
	ReplaceAll(ctx context.Context, criteria map[string]interface{}, collection string) error

	// UpsertBatch updates each item's document by natural key, inserting
	// when absent. Items are independent: failures do not roll back the
	// upserts that succeeded, but any failure makes the batch return an
	// error.
	UpsertBatch(ctx context.Context, items []model.Keyed, collection string) error

	// BulkInsert plainly inserts items. Only safe right after a full
	// ReplaceAll, when no pre-existing document can conflict.
	BulkInsert(ctx context.Context, items []interface{}, collection string) error

	// FindAll returns every document in the collection.
	FindAll(ctx context.Context, collection string) ([]map[string]interface{}, error)

	// Close closes the store connection.
	Close() error
}

// UsageEventRepository defines usage-event storage and aggregation. Events
// are append-only; the stats methods group by username or endpoint, summing
// counts and taking the latest timestamp, sorted by total calls descending.
// Range bounds are applied only when both start and end are set, inclusively.
type UsageEventRepository interface {
	Insert(ctx context.Context, event model.UsageEvent) error
	StatsByUser(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error)
	StatsByEndpoint(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error)
	EventsBetween(ctx context.Context, start, end *time.Time) ([]model.UsageEvent, error)
	Close() error
}
