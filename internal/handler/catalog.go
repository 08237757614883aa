package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"cinecatalog-api/internal/repository"
	"cinecatalog-api/pkg/apierror"
	"cinecatalog-api/pkg/response"
)

// CatalogHandler serves the ingested catalog collections.
type CatalogHandler struct {
	store   repository.CatalogStore
	maxDays int
}

// NewCatalogHandler creates a catalog handler. maxDays is the last showtime
// day the pipeline ingests.
func NewCatalogHandler(store repository.CatalogStore, maxDays int) *CatalogHandler {
	return &CatalogHandler{store: store, maxDays: maxDays}
}

// Movies handles GET /api/v1/movies?day=N. Day defaults to today (0).
func (h *CatalogHandler) Movies(w http.ResponseWriter, r *http.Request) {
	day := 0
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(w, apierror.ValidationError("invalid day parameter", apierror.FieldError{
				Field:   "day",
				Message: "must be an integer",
			}))
			return
		}
		day = parsed
	}
	if day < 0 || day > h.maxDays {
		response.Error(w, apierror.ValidationError("invalid day parameter", apierror.FieldError{
			Field:   "day",
			Message: fmt.Sprintf("must be between 0 and %d", h.maxDays),
		}))
		return
	}

	h.serve(w, r, repository.MovieCollection(day))
}

// Upcoming handles GET /api/v1/upcoming
func (h *CatalogHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, repository.CollUpcoming)
}

// Genres handles GET /api/v1/genres
func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, repository.CollGenres)
}

// Theaters handles GET /api/v1/theaters
func (h *CatalogHandler) Theaters(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, repository.CollTheaters)
}

func (h *CatalogHandler) serve(w http.ResponseWriter, r *http.Request, collection string) {
	docs, err := h.store.FindAll(r.Context(), collection)
	if err != nil {
		log.Printf("[CatalogHandler] Failed to read %s: %v", collection, err)
		response.Error(w, apierror.InternalError("failed to load catalog data"))
		return
	}
	response.OK(w, docs)
}
