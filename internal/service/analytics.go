package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"cinecatalog-api/internal/model"
)

// recentLimit caps the event list shown on the dashboard.
const recentLimit = 50

// Valid dashboard periods.
const (
	Period24h = "24h"
	Period7d  = "7d"
	Period30d = "30d"
	PeriodAll = "all"
)

// Dashboard is the analytics payload: best-effort, so partial failures leave
// their section empty and surface in Errors instead of failing the whole
// request.
type Dashboard struct {
	Period         string               `json:"period"`
	UserStats      []model.UsageSummary `json:"userStats"`
	EndpointStats  []model.UsageSummary `json:"endpointStats"`
	RecentEvents   []model.UsageEvent   `json:"recentEvents"`
	TotalCalls     int64                `json:"totalCalls"`
	TotalUsers     int                  `json:"totalUsers"`
	TotalEndpoints int                  `json:"totalEndpoints"`
	Errors         []string             `json:"errors,omitempty"`
}

// PeriodRange converts a dashboard period into a timestamp range ending now.
// "all" and unknown periods return an unbounded (nil, nil) pair.
func PeriodRange(period string, now time.Time) (*time.Time, *time.Time) {
	var start time.Time
	switch period {
	case Period24h:
		start = now.Add(-24 * time.Hour)
	case Period7d:
		start = now.AddDate(0, 0, -7)
	case Period30d:
		start = now.AddDate(0, 0, -30)
	default:
		return nil, nil
	}
	return &start, &now
}

// ValidPeriod reports whether period is one of the supported filters.
func ValidPeriod(period string) bool {
	switch period {
	case Period24h, Period7d, Period30d, PeriodAll:
		return true
	}
	return false
}

// AnalyticsService assembles the dashboard from the usage aggregations.
type AnalyticsService struct {
	usage *UsageService
}

// NewAnalyticsService creates an analytics service. Returns nil if usage is
// nil.
func NewAnalyticsService(usage *UsageService) *AnalyticsService {
	if usage == nil {
		return nil
	}
	return &AnalyticsService{usage: usage}
}

// Dashboard runs the three aggregations concurrently and joins the results.
// Each query's failure is collected rather than propagated, so the dashboard
// renders whatever did succeed.
func (s *AnalyticsService) Dashboard(ctx context.Context, period string) *Dashboard {
	start, end := PeriodRange(period, time.Now().UTC())

	d := &Dashboard{Period: period}

	var mu sync.Mutex
	var wg sync.WaitGroup
	fail := func(msg string, err error) {
		mu.Lock()
		d.Errors = append(d.Errors, msg+": "+err.Error())
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		stats, err := s.usage.StatsByUser(ctx, start, end)
		if err != nil {
			fail("user stats", err)
			return
		}
		mu.Lock()
		d.UserStats = stats
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		stats, err := s.usage.StatsByEndpoint(ctx, start, end)
		if err != nil {
			fail("endpoint stats", err)
			return
		}
		mu.Lock()
		d.EndpointStats = stats
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		events, err := s.usage.RecentEvents(ctx, start, end)
		if err != nil {
			fail("recent events", err)
			return
		}
		sort.Slice(events, func(i, j int) bool {
			return events[i].Timestamp.After(events[j].Timestamp)
		})
		if len(events) > recentLimit {
			events = events[:recentLimit]
		}
		mu.Lock()
		d.RecentEvents = events
		mu.Unlock()
	}()
	wg.Wait()

	for _, u := range d.UserStats {
		d.TotalCalls += u.TotalCalls
	}
	d.TotalUsers = len(d.UserStats)
	d.TotalEndpoints = len(d.EndpointStats)

	if d.UserStats == nil {
		d.UserStats = []model.UsageSummary{}
	}
	if d.EndpointStats == nil {
		d.EndpointStats = []model.UsageSummary{}
	}
	if d.RecentEvents == nil {
		d.RecentEvents = []model.UsageEvent{}
	}
	return d
}
