package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"cinecatalog-api/internal/model"
	"cinecatalog-api/internal/repository"
)

// fakeFetcher resolves URLs by substring so tests don't depend on the exact
// query-string layout.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	for frag, err := range f.errs {
		if strings.Contains(url, frag) {
			return "", err
		}
	}
	for frag, body := range f.responses {
		if strings.Contains(url, frag) {
			return body, nil
		}
	}
	return "", fmt.Errorf("no fixture for %s", url)
}

// memStore is an in-memory CatalogStore honoring the natural-key upsert
// contract.
type memStore struct {
	mu     sync.Mutex
	colls  map[string]map[string]interface{}
	clears map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		colls:  make(map[string]map[string]interface{}),
		clears: make(map[string]int),
	}
}

func docKey(key map[string]interface{}) string {
	names := make([]string, 0, len(key))
	for name := range key {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%v;", name, key[name])
	}
	return b.String()
}

func (s *memStore) ReplaceAll(ctx context.Context, criteria map[string]interface{}, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colls[collection] = make(map[string]interface{})
	s.clears[collection]++
	return nil
}

func (s *memStore) UpsertBatch(ctx context.Context, items []model.Keyed, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.colls[collection] == nil {
		s.colls[collection] = make(map[string]interface{})
	}
	for _, item := range items {
		s.colls[collection][docKey(item.Key())] = item
	}
	return nil
}

func (s *memStore) BulkInsert(ctx context.Context, items []interface{}, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.colls[collection] == nil {
		s.colls[collection] = make(map[string]interface{})
	}
	for _, item := range items {
		s.colls[collection][fmt.Sprintf("row-%d", len(s.colls[collection]))] = item
	}
	return nil
}

func (s *memStore) FindAll(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	return nil, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.colls[collection])
}

func (s *memStore) cleared(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears[collection]
}

// passEnricher fulfills the enrichment contract without a second provider:
// it persists the items as-is into the target collection.
type passEnricher struct {
	store repository.CatalogStore
}

func (e *passEnricher) Enrich(ctx context.Context, movies []model.Movie, snapshotPath, auxCollection, targetCollection string) error {
	keyed := make([]model.Keyed, len(movies))
	for i, m := range movies {
		keyed[i] = m
	}
	return e.store.UpsertBatch(ctx, keyed, targetCollection)
}

func dayPayload(id int, title string) string {
	return fmt.Sprintf(`[{"id":%d,"title":%q,"showtimes":[{"cinema":{"id":1,"name":"Smárabíó"},"schedule":["17:40","20:00","20:00"]}]}]`, id, title)
}

func newTestFixtures() *fakeFetcher {
	return &fakeFetcher{
		responses: map[string]string{
			"dagur=0":  dayPayload(100, "Fyrsti"),
			"dagur=1":  dayPayload(101, "Annar"),
			"dagur=2":  dayPayload(102, "Þriðji"),
			"dagur=3":  dayPayload(103, "Fjórði"),
			"dagur=4":  dayPayload(104, "Fimmti"),
			"upcoming": `[{"id":200,"title":"Bráðum","ids":{"imdb":"tt0200"}},{"id":201,"title":"Síðar","ids":{"imdb":"tt0201"}}]`,
			"genres":   `[{"ID":1,"Name":"Drama"},{"ID":2,"Name":"Gaman"}]`,
			"theaters": `[{"id":1,"name":"Smárabíó"},{"id":2,"name":"Háskólabíó"},{"id":3,"name":"Laugarásbíó"}]`,
		},
		errs: map[string]error{},
	}
}

func newTestPipeline(fetcher *fakeFetcher, store *memStore) *Pipeline {
	cfg := Config{
		BaseURL:       "http://provider.test",
		APIKey:        "k",
		MaxDays:       4,
		StepDelay:     0,
		UpcomingCount: 50,
	}
	return NewPipeline(cfg, fetcher, store, &passEnricher{store: store})
}

func TestRunPersistsAllDaysAndUpcoming(t *testing.T) {
	fetcher := newTestFixtures()
	store := newMemStore()

	if err := newTestPipeline(fetcher, store).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for day := 0; day <= 4; day++ {
		coll := repository.MovieCollection(day)
		if store.count(coll) != 1 {
			t.Errorf("%s has %d docs, want 1", coll, store.count(coll))
		}
		if store.cleared(coll) != 1 {
			t.Errorf("%s cleared %d times, want 1", coll, store.cleared(coll))
		}
	}
	if store.count(repository.CollUpcoming) != 2 {
		t.Errorf("upcoming has %d docs, want 2", store.count(repository.CollUpcoming))
	}
	if store.count(repository.CollGenres) != 2 {
		t.Errorf("genres has %d docs, want 2", store.count(repository.CollGenres))
	}
	if store.count(repository.CollTheaters) != 3 {
		t.Errorf("theaters has %d docs, want 3", store.count(repository.CollTheaters))
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fetcher := newTestFixtures()
	store := newMemStore()
	p := newTestPipeline(fetcher, store)

	for i := 0; i < 2; i++ {
		if err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	if store.count(repository.MovieCollection(0)) != 1 {
		t.Errorf("movies0 has %d docs after two runs, want 1", store.count(repository.MovieCollection(0)))
	}
	if store.count(repository.CollUpcoming) != 2 {
		t.Errorf("upcoming has %d docs after two runs, want 2", store.count(repository.CollUpcoming))
	}
}

func TestWalkHaltsOnParseFailure(t *testing.T) {
	fetcher := newTestFixtures()
	fetcher.responses["dagur=2"] = `[{"id":102,"title":` // truncated payload
	store := newMemStore()

	err := newTestPipeline(fetcher, store).Run(context.Background())
	if err == nil {
		t.Fatal("want error, got nil")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}

	if store.count(repository.MovieCollection(1)) != 1 {
		t.Error("day 1 should have been persisted before the halt")
	}
	for day := 2; day <= 4; day++ {
		coll := repository.MovieCollection(day)
		if store.cleared(coll) != 0 || store.count(coll) != 0 {
			t.Errorf("%s was touched after the halt", coll)
		}
	}
	if store.cleared(repository.CollUpcoming) != 0 {
		t.Error("upcoming was touched after the halt")
	}
}

func TestEmptyPayloadShortCircuitsToUpcoming(t *testing.T) {
	for name, payload := range map[string]string{
		"empty":    "",
		"null":     "null",
		"non-json": "Service Unavailable",
	} {
		t.Run(name, func(t *testing.T) {
			fetcher := newTestFixtures()
			fetcher.responses["dagur=2"] = payload
			store := newMemStore()

			if err := newTestPipeline(fetcher, store).Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}

			for day := 2; day <= 4; day++ {
				coll := repository.MovieCollection(day)
				if store.cleared(coll) != 0 || store.count(coll) != 0 {
					t.Errorf("%s was touched despite the short-circuit", coll)
				}
			}
			if store.count(repository.CollUpcoming) != 2 {
				t.Errorf("upcoming has %d docs, want 2", store.count(repository.CollUpcoming))
			}
		})
	}
}

func TestEmptyListingClearsDayAndKeepsWalking(t *testing.T) {
	fetcher := newTestFixtures()
	fetcher.responses["dagur=2"] = `[]`
	store := newMemStore()
	// Stale doc from an earlier run; an empty listing must replace it.
	store.UpsertBatch(context.Background(), []model.Keyed{
		model.Movie{ID: 999, Title: "Horfin"},
	}, repository.MovieCollection(2))

	if err := newTestPipeline(fetcher, store).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	coll := repository.MovieCollection(2)
	if store.cleared(coll) != 1 {
		t.Errorf("%s cleared %d times, want 1", coll, store.cleared(coll))
	}
	if store.count(coll) != 0 {
		t.Errorf("%s has %d docs, want 0 after an empty listing", coll, store.count(coll))
	}
	for day := 3; day <= 4; day++ {
		next := repository.MovieCollection(day)
		if store.count(next) != 1 {
			t.Errorf("%s has %d docs, want 1: the walk must continue past an empty day", next, store.count(next))
		}
	}
	if store.count(repository.CollUpcoming) != 2 {
		t.Errorf("upcoming has %d docs, want 2", store.count(repository.CollUpcoming))
	}
}

func TestEmptyUpcomingListingClearsCollection(t *testing.T) {
	fetcher := newTestFixtures()
	fetcher.responses["upcoming"] = `[]`
	store := newMemStore()
	store.UpsertBatch(context.Background(), []model.Keyed{
		model.Movie{ID: 998, Title: "Frestuð"},
	}, repository.CollUpcoming)

	if err := newTestPipeline(fetcher, store).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.cleared(repository.CollUpcoming) != 1 {
		t.Errorf("upcoming cleared %d times, want 1", store.cleared(repository.CollUpcoming))
	}
	if store.count(repository.CollUpcoming) != 0 {
		t.Errorf("upcoming has %d docs, want 0 after an empty listing", store.count(repository.CollUpcoming))
	}
}

func TestUpcomingFailureFailsRun(t *testing.T) {
	fetcher := newTestFixtures()
	fetcher.errs["upcoming"] = errors.New("connection refused")
	store := newMemStore()

	if err := newTestPipeline(fetcher, store).Run(context.Background()); err == nil {
		t.Fatal("want error when the upcoming stage fails")
	}
	if store.count(repository.MovieCollection(4)) != 1 {
		t.Error("day collections should keep what was persisted before the failure")
	}
	if store.count(repository.CollUpcoming) != 0 {
		t.Error("upcoming should be untouched after a fetch failure")
	}
}

func TestReferenceSyncFailuresAreIndependent(t *testing.T) {
	fetcher := newTestFixtures()
	fetcher.errs["genres"] = errors.New("timeout")
	store := newMemStore()

	if err := newTestPipeline(fetcher, store).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.cleared(repository.CollGenres) != 0 {
		t.Error("genres collection should be untouched when its fetch fails")
	}
	if store.count(repository.CollTheaters) != 3 {
		t.Errorf("theaters has %d docs, want 3", store.count(repository.CollTheaters))
	}
	if store.count(repository.CollUpcoming) != 2 {
		t.Error("day-walk should complete regardless of reference sync failures")
	}
}

func TestReferenceSyncReplacesPriorContent(t *testing.T) {
	fetcher := newTestFixtures()
	store := newMemStore()
	// Stale junk from an earlier run.
	store.BulkInsert(context.Background(), []interface{}{
		model.ReferenceRecord{"ID": 99, "Name": "Gamalt"},
		model.ReferenceRecord{"ID": 98, "Name": "Eldra"},
		model.ReferenceRecord{"ID": 97, "Name": "Elst"},
	}, repository.CollGenres)

	p := newTestPipeline(fetcher, store)
	if err := p.SyncGenres(context.Background()); err != nil {
		t.Fatalf("SyncGenres: %v", err)
	}

	if store.count(repository.CollGenres) != 2 {
		t.Errorf("genres has %d docs, want exactly the 2 synced records", store.count(repository.CollGenres))
	}
}

func TestDecodeMovies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantOK  bool
		wantErr bool
		wantLen int
	}{
		{"empty", "", false, false, 0},
		{"whitespace", "  \n\t", false, false, 0},
		{"null", "null", false, false, 0},
		{"html", "<html>maintenance</html>", false, false, 0},
		{"plain text", "rate limited", false, false, 0},
		{"valid list", `[{"id":1,"title":"A"}]`, true, false, 1},
		{"empty list", `[]`, true, false, 0},
		{"truncated", `[{"id":1`, false, true, 0},
		{"object not list", `{"error":"bad key"}`, false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			movies, ok, err := decodeMovies(tt.body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if len(movies) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(movies), tt.wantLen)
			}
		})
	}
}
