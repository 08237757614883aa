package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cinecatalog-api/internal/model"
	"cinecatalog-api/internal/repository"
)

// ValidationError reports a usage event missing a required field. The event
// is rejected before any write happens.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// UsageService validates and records API usage events and exposes the
// aggregations consumed by the analytics dashboard.
type UsageService struct {
	repo repository.UsageEventRepository
}

// NewUsageService creates a usage service. Returns nil if repo is nil.
func NewUsageService(repo repository.UsageEventRepository) *UsageService {
	if repo == nil {
		return nil
	}
	return &UsageService{repo: repo}
}

// Log validates and appends one usage event. Endpoint, username and
// timestamp are required; status code and method get defaults; createdAt is
// always server-assigned.
func (s *UsageService) Log(ctx context.Context, event model.UsageEvent) error {
	switch {
	case event.Endpoint == "":
		return &ValidationError{Field: "endpoint"}
	case event.Username == "":
		return &ValidationError{Field: "username"}
	case event.Timestamp.IsZero():
		return &ValidationError{Field: "timestamp"}
	}

	if event.StatusCode == 0 {
		event.StatusCode = http.StatusOK
	}
	if event.Method == "" {
		event.Method = http.MethodGet
	}
	event.CreatedAt = time.Now().UTC()

	if err := s.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("log usage event: %w", err)
	}
	return nil
}

// StatsByUser returns per-username call totals, most active first.
func (s *UsageService) StatsByUser(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error) {
	return s.repo.StatsByUser(ctx, start, end)
}

// StatsByEndpoint returns per-endpoint call totals, most called first.
func (s *UsageService) StatsByEndpoint(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error) {
	return s.repo.StatsByEndpoint(ctx, start, end)
}

// RecentEvents returns the raw events in the range, unordered. Callers sort
// and truncate for presentation.
func (s *UsageService) RecentEvents(ctx context.Context, start, end *time.Time) ([]model.UsageEvent, error) {
	return s.repo.EventsBetween(ctx, start, end)
}
