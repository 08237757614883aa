package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"cinecatalog-api/internal/cache"
	"cinecatalog-api/internal/service"
	"cinecatalog-api/pkg/apierror"
	"cinecatalog-api/pkg/response"
)

// AnalyticsHandler serves the usage dashboard. Responses are cached per
// period since the three aggregations are the most expensive queries in the
// API.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	cache     cache.Cache
	ttl       time.Duration
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, c cache.Cache, ttl time.Duration) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, cache: c, ttl: ttl}
}

// Dashboard handles GET /api/v1/analytics?period=24h|7d|30d|all. Period
// defaults to all.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = service.PeriodAll
	}
	if !service.ValidPeriod(period) {
		response.Error(w, apierror.BadRequest("period must be one of 24h, 7d, 30d, all"))
		return
	}

	key := "analytics:" + period
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), key); err == nil {
			response.OK(w, json.RawMessage(cached))
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("[AnalyticsHandler] Cache read failed: %v", err)
		}
	}

	dashboard := h.analytics.Dashboard(r.Context(), period)

	if h.cache != nil && len(dashboard.Errors) == 0 {
		if payload, err := json.Marshal(dashboard); err == nil {
			if err := h.cache.Set(r.Context(), key, payload, h.ttl); err != nil {
				log.Printf("[AnalyticsHandler] Cache write failed: %v", err)
			}
		}
	}

	response.OK(w, dashboard)
}
