package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cinecatalog-api/internal/model"
)

type stubCatalogStore struct {
	docs       map[string][]map[string]interface{}
	lastLookup string
}

func (s *stubCatalogStore) ReplaceAll(ctx context.Context, criteria map[string]interface{}, collection string) error {
	return nil
}

func (s *stubCatalogStore) UpsertBatch(ctx context.Context, items []model.Keyed, collection string) error {
	return nil
}

func (s *stubCatalogStore) BulkInsert(ctx context.Context, docs []interface{}, collection string) error {
	return nil
}

func (s *stubCatalogStore) FindAll(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	s.lastLookup = collection
	return s.docs[collection], nil
}

func (s *stubCatalogStore) Close() error { return nil }

func TestMoviesReadsRequestedDayCollection(t *testing.T) {
	store := &stubCatalogStore{docs: map[string][]map[string]interface{}{
		"movies2": {{"title": "Hross í oss"}},
	}}
	h := NewCatalogHandler(store, 4)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movies?day=2", nil)
	rec := httptest.NewRecorder()
	h.Movies(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastLookup != "movies2" {
		t.Errorf("read %q, want movies2", store.lastLookup)
	}
	if !strings.Contains(rec.Body.String(), "Hross í oss") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMoviesDayDefaultsToToday(t *testing.T) {
	store := &stubCatalogStore{}
	h := NewCatalogHandler(store, 4)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movies", nil)
	rec := httptest.NewRecorder()
	h.Movies(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastLookup != "movies0" {
		t.Errorf("read %q, want movies0", store.lastLookup)
	}
}

func TestMoviesRejectsDayOutOfRange(t *testing.T) {
	store := &stubCatalogStore{}
	h := NewCatalogHandler(store, 4)

	for _, day := range []string{"-1", "5", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/movies?day="+day, nil)
		rec := httptest.NewRecorder()
		h.Movies(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("day=%s: status = %d, want 400", day, rec.Code)
		}
		if store.lastLookup != "" {
			t.Errorf("day=%s: store was queried", day)
		}
	}
}

func TestUpcomingGenresTheaters(t *testing.T) {
	tests := []struct {
		name       string
		serve      func(*CatalogHandler, http.ResponseWriter, *http.Request)
		collection string
	}{
		{"upcoming", (*CatalogHandler).Upcoming, "upcoming"},
		{"genres", (*CatalogHandler).Genres, "genres"},
		{"theaters", (*CatalogHandler).Theaters, "theaters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubCatalogStore{}
			h := NewCatalogHandler(store, 4)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/"+tt.name, nil)
			rec := httptest.NewRecorder()
			tt.serve(h, rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if store.lastLookup != tt.collection {
				t.Errorf("read %q, want %q", store.lastLookup, tt.collection)
			}
		})
	}
}
