package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"

	"cinecatalog-api/internal/model"
	"cinecatalog-api/internal/repository"
)

// Enricher merges supplementary provider metadata onto ingested items and
// persists the result. Implementations return only after targetCollection is
// fully populated; an error means the collection must not be trusted.
type Enricher interface {
	Enrich(ctx context.Context, movies []model.Movie, snapshotPath, auxCollection, targetCollection string) error
}

// MetadataEnricher enriches movies with poster and still images from the
// secondary metadata provider, keyed by imdb id. Per-item lookup failures are
// logged and skipped; the item is persisted unenriched.
type MetadataEnricher struct {
	fetcher Fetcher
	store   repository.CatalogStore
	baseURL string
	apiKey  string
}

// NewMetadataEnricher creates the enricher. An empty baseURL disables
// lookups; items are then persisted as fetched.
func NewMetadataEnricher(fetcher Fetcher, store repository.CatalogStore, baseURL, apiKey string) *MetadataEnricher {
	return &MetadataEnricher{
		fetcher: fetcher,
		store:   store,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type imageMetadata struct {
	Poster string   `json:"poster"`
	Images []string `json:"images"`
}

// Enrich looks up extra metadata per movie, writes the enriched snapshot,
// optionally persists per-item image documents to auxCollection, then upserts
// the enriched movies into targetCollection.
func (e *MetadataEnricher) Enrich(ctx context.Context, movies []model.Movie, snapshotPath, auxCollection, targetCollection string) error {
	var extras []model.Keyed

	for i := range movies {
		imdbID := movies[i].IDs.IMDB
		if e.baseURL == "" || imdbID == "" {
			continue
		}

		meta, err := e.lookup(ctx, imdbID)
		if err != nil {
			log.Printf("[Enrich] Lookup failed for %s (%s): %v", movies[i].Title, imdbID, err)
			continue
		}

		if movies[i].Poster == "" {
			movies[i].Poster = meta.Poster
		}
		movies[i].ExtraImages = meta.Images

		if auxCollection != "" {
			extras = append(extras, model.ExtraImages{
				IMDBID: imdbID,
				Poster: meta.Poster,
				Images: meta.Images,
			})
		}
	}

	if snapshotPath != "" {
		if err := WriteJSON(movies, snapshotPath); err != nil {
			log.Printf("[Enrich] Snapshot write failed: %v", err)
		}
	}

	if auxCollection != "" && len(extras) > 0 {
		if err := e.store.UpsertBatch(ctx, extras, auxCollection); err != nil {
			log.Printf("[Enrich] Aux image upsert into %s: %v", auxCollection, err)
		}
	}

	keyed := make([]model.Keyed, len(movies))
	for i, m := range movies {
		keyed[i] = m
	}
	if err := e.store.UpsertBatch(ctx, keyed, targetCollection); err != nil {
		return fmt.Errorf("persist enriched items into %s: %w", targetCollection, err)
	}
	return nil
}

func (e *MetadataEnricher) lookup(ctx context.Context, imdbID string) (*imageMetadata, error) {
	u := fmt.Sprintf("%s/images?imdbid=%s&key=%s", e.baseURL, url.QueryEscape(imdbID), url.QueryEscape(e.apiKey))
	body, err := e.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	var meta imageMetadata
	if err := json.Unmarshal([]byte(body), &meta); err != nil {
		return nil, &ParseError{URL: u, Err: err}
	}
	return &meta, nil
}
