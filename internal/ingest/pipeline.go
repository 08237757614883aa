// Package ingest populates the catalog from the external content API: a
// sequential day-walk over showtime offsets, a one-shot upcoming-releases
// stage, and two independent reference-data syncs.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cinecatalog-api/internal/model"
	"cinecatalog-api/internal/repository"
)

// Fetcher is the fetch-client contract the pipeline depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ParseError marks a payload that looked like JSON but could not be decoded.
// It halts the current walk; the day's collection keeps its previous content.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Config holds pipeline settings. Zero values are honored as given, so tests
// can run with no delay; production values come from the config package.
type Config struct {
	BaseURL       string
	APIKey        string
	MaxDays       int
	StepDelay     time.Duration
	UpcomingCount int
	SnapshotDir   string
}

// Pipeline walks day offsets 0..MaxDays, then the upcoming stage. A single
// run is strictly sequential; only the reference-data syncs run alongside it.
// Runs must not overlap; the scheduler serializes them.
type Pipeline struct {
	cfg      Config
	fetcher  Fetcher
	store    repository.CatalogStore
	enricher Enricher
}

// NewPipeline wires the pipeline.
func NewPipeline(cfg Config, fetcher Fetcher, store repository.CatalogStore, enricher Enricher) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		enricher: enricher,
	}
}

// Run executes one full ingestion: genres and theaters sync concurrently with
// the day-walk, then the upcoming stage. A nil return is the completion
// signal and means the run went all the way through the upcoming stage;
// callers must treat an error as a failed run even though earlier days may
// have been persisted.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Printf("[Pipeline] Starting ingestion run (days 0..%d)", p.cfg.MaxDays)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := p.SyncGenres(ctx); err != nil {
			log.Printf("[Pipeline] Genre sync failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := p.SyncTheaters(ctx); err != nil {
			log.Printf("[Pipeline] Theater sync failed: %v", err)
		}
	}()

	err := p.walk(ctx)
	wg.Wait()

	if err != nil {
		return err
	}
	log.Printf("[Pipeline] Ingestion run complete")
	return nil
}

// walk is the day-offset loop followed by the upcoming stage.
func (p *Pipeline) walk(ctx context.Context) error {
	for day := 0; day <= p.cfg.MaxDays; day++ {
		if day > 0 {
			p.delay()
		}

		proceed, err := p.ingestDay(ctx, day)
		if err != nil {
			// Halt, don't retry. The day keeps its last good content.
			log.Printf("[Pipeline] Halting walk at day %d: %v", day, err)
			return err
		}
		if !proceed {
			log.Printf("[Pipeline] No listings for day %d, skipping to upcoming", day)
			break
		}
	}

	return p.ingestUpcoming(ctx)
}

// ingestDay fetches and persists one day offset. It returns false with a nil
// error when the provider's payload is not a listing at all, which
// short-circuits the rest of the walk. A valid empty listing is a successful
// day: the collection is cleared and the walk advances.
func (p *Pipeline) ingestDay(ctx context.Context, day int) (bool, error) {
	u := fmt.Sprintf("%s/showtimes?key=%s&dagur=%d", p.cfg.BaseURL, url.QueryEscape(p.cfg.APIKey), day)

	body, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return false, fmt.Errorf("fetch showtimes for day %d: %w", day, err)
	}

	movies, ok, err := decodeMovies(body)
	if err != nil {
		return false, &ParseError{URL: u, Err: err}
	}
	if !ok {
		return false, nil
	}

	movies = DedupeSchedules(movies)

	collection := repository.MovieCollection(day)
	// The clear only happens after a successful fetch+parse+dedupe, so a
	// failed day leaves its previous content intact.
	if err := p.store.ReplaceAll(ctx, nil, collection); err != nil {
		log.Printf("[Pipeline] Clearing %s failed: %v", collection, err)
	}

	if len(movies) == 0 {
		log.Printf("[Pipeline] Day %d: empty listing, cleared %s", day, collection)
		return true, nil
	}

	if err := p.enricher.Enrich(ctx, movies, p.snapshotPath(collection+".json"), "", collection); err != nil {
		return false, fmt.Errorf("enrich day %d: %w", day, err)
	}

	log.Printf("[Pipeline] Day %d: persisted %d movies into %s", day, len(movies), collection)
	return true, nil
}

// ingestUpcoming is the terminal stage. Returning nil here is the only way a
// run counts as complete.
func (p *Pipeline) ingestUpcoming(ctx context.Context) error {
	p.delay()

	u := fmt.Sprintf("%s/upcoming?count=%d&key=%s", p.cfg.BaseURL, p.cfg.UpcomingCount, url.QueryEscape(p.cfg.APIKey))

	body, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return fmt.Errorf("fetch upcoming releases: %w", err)
	}

	movies, ok, err := decodeMovies(body)
	if err != nil {
		return &ParseError{URL: u, Err: err}
	}
	if !ok {
		return fmt.Errorf("upcoming releases: empty payload from %s", u)
	}

	if err := p.store.ReplaceAll(ctx, nil, repository.CollUpcoming); err != nil {
		log.Printf("[Pipeline] Clearing %s failed: %v", repository.CollUpcoming, err)
	}

	if len(movies) == 0 {
		log.Printf("[Pipeline] Upcoming: empty listing, cleared %s", repository.CollUpcoming)
		return nil
	}

	if err := p.enricher.Enrich(ctx, movies, p.snapshotPath("upcoming.json"), repository.CollExtraImages, repository.CollUpcoming); err != nil {
		return fmt.Errorf("enrich upcoming releases: %w", err)
	}

	log.Printf("[Pipeline] Upcoming: persisted %d movies", len(movies))
	return nil
}

// snapshotPath resolves a snapshot artifact path. Empty SnapshotDir disables
// snapshots entirely.
func (p *Pipeline) snapshotPath(name string) string {
	if p.cfg.SnapshotDir == "" {
		return ""
	}
	return filepath.Join(p.cfg.SnapshotDir, name)
}

// delay is the fixed inter-request pause mandated by the provider's rate
// limit (30 requests per 10s). Deliberately not a token bucket.
func (p *Pipeline) delay() {
	if p.cfg.StepDelay > 0 {
		time.Sleep(p.cfg.StepDelay)
	}
}

// decodeMovies interprets a feed payload. An empty body, a JSON null, or a
// payload that is not JSON at all means "nothing listed" (ok=false, no
// error). A payload that starts like JSON but fails to decode is an error.
func decodeMovies(body string) ([]model.Movie, bool, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || trimmed == "null" {
		return nil, false, nil
	}
	if trimmed[0] != '[' && trimmed[0] != '{' {
		return nil, false, nil
	}

	var movies []model.Movie
	if err := json.Unmarshal([]byte(trimmed), &movies); err != nil {
		return nil, false, err
	}
	return movies, true, nil
}
