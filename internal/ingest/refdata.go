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

// SyncGenres refreshes the genres reference collection. Independent of the
// day-walk and of the theater sync; a failure here affects neither.
func (p *Pipeline) SyncGenres(ctx context.Context) error {
	return p.syncReference(ctx, "genres", repository.CollGenres)
}

// SyncTheaters refreshes the theaters reference collection.
func (p *Pipeline) SyncTheaters(ctx context.Context) error {
	return p.syncReference(ctx, "theaters", repository.CollTheaters)
}

// syncReference is one reference flow: fetch, parse, normalize key names,
// snapshot, then full replace of the target collection.
func (p *Pipeline) syncReference(ctx context.Context, endpoint, collection string) error {
	u := fmt.Sprintf("%s/%s?key=%s", p.cfg.BaseURL, endpoint, url.QueryEscape(p.cfg.APIKey))

	body, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	var records []model.ReferenceRecord
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		return &ParseError{URL: u, Err: err}
	}
	if len(records) == 0 {
		return fmt.Errorf("%s: empty payload from %s", endpoint, u)
	}

	records = CleanKeys(records)

	if snapshot := p.snapshotPath(collection + ".json"); snapshot != "" {
		if err := WriteJSON(records, snapshot); err != nil {
			log.Printf("[Pipeline] %s snapshot write failed: %v", endpoint, err)
		}
	}

	if err := p.store.ReplaceAll(ctx, nil, collection); err != nil {
		log.Printf("[Pipeline] Clearing %s failed: %v", collection, err)
	}

	docs := make([]interface{}, len(records))
	for i, rec := range records {
		docs[i] = rec
	}
	if err := p.store.BulkInsert(ctx, docs, collection); err != nil {
		return fmt.Errorf("insert %s: %w", endpoint, err)
	}

	log.Printf("[Pipeline] Synced %d %s records", len(records), endpoint)
	return nil
}
