package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cinecatalog-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteUsageRepository implements UsageEventRepository on SQLite, for local
// development without a MongoDB deployment. Timestamps are stored as unix
// nanoseconds so range filters and MAX() behave like the Mongo aggregation.
type SQLiteUsageRepository struct {
	db *sql.DB
}

// NewSQLiteUsageRepository opens (and if needed creates) the usage database.
// Use ":memory:" for an ephemeral store.
func NewSQLiteUsageRepository(dbPath string) (*SQLiteUsageRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	schema := `
	CREATE TABLE IF NOT EXISTS api_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		endpoint TEXT NOT NULL,
		username TEXT NOT NULL,
		user_id TEXT,
		status_code INTEGER NOT NULL,
		query_params TEXT,
		method TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON api_usage(timestamp);
	CREATE INDEX IF NOT EXISTS idx_usage_username ON api_usage(username);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create usage table: %w", err)
	}

	log.Printf("[SQLiteUsageRepository] Initialized with database: %s", dbPath)
	return &SQLiteUsageRepository{db: db}, nil
}

// Insert appends one usage event.
func (r *SQLiteUsageRepository) Insert(ctx context.Context, event model.UsageEvent) error {
	params, err := json.Marshal(event.QueryParams)
	if err != nil {
		return fmt.Errorf("failed to encode query params: %w", err)
	}

	query := `
		INSERT INTO api_usage (endpoint, username, user_id, status_code, query_params, method, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		event.Endpoint, event.Username, event.UserID, event.StatusCode,
		string(params), event.Method, event.Timestamp.UnixNano(), event.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert usage event: %w", err)
	}
	return nil
}

func (r *SQLiteUsageRepository) statsBy(ctx context.Context, column string, start, end *time.Time) ([]model.UsageSummary, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*), MAX(timestamp)
		FROM api_usage
		%s
		GROUP BY %s
		ORDER BY COUNT(*) DESC`, column, rangeClause(start, end), column)

	rows, err := r.db.QueryContext(ctx, query, rangeArgs(start, end)...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage by %s: %w", column, err)
	}
	defer rows.Close()

	summaries := []model.UsageSummary{}
	for rows.Next() {
		var s model.UsageSummary
		var last int64
		if err := rows.Scan(&s.Name, &s.TotalCalls, &last); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		s.LastCall = time.Unix(0, last)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// StatsByUser groups events by username.
func (r *SQLiteUsageRepository) StatsByUser(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error) {
	return r.statsBy(ctx, "username", start, end)
}

// StatsByEndpoint groups events by endpoint path.
func (r *SQLiteUsageRepository) StatsByEndpoint(ctx context.Context, start, end *time.Time) ([]model.UsageSummary, error) {
	return r.statsBy(ctx, "endpoint", start, end)
}

// EventsBetween returns raw events in the range, unsorted.
func (r *SQLiteUsageRepository) EventsBetween(ctx context.Context, start, end *time.Time) ([]model.UsageEvent, error) {
	query := `
		SELECT endpoint, username, user_id, status_code, query_params, method, timestamp, created_at
		FROM api_usage ` + rangeClause(start, end)

	rows, err := r.db.QueryContext(ctx, query, rangeArgs(start, end)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage events: %w", err)
	}
	defer rows.Close()

	events := []model.UsageEvent{}
	for rows.Next() {
		var e model.UsageEvent
		var userID, params sql.NullString
		var ts, created int64
		if err := rows.Scan(&e.Endpoint, &e.Username, &userID, &e.StatusCode, &params, &e.Method, &ts, &created); err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}
		e.UserID = userID.String
		if params.Valid && params.String != "" && params.String != "null" {
			if err := json.Unmarshal([]byte(params.String), &e.QueryParams); err != nil {
				log.Printf("[SQLiteUsageRepository] Bad query_params payload, skipping: %v", err)
			}
		}
		e.Timestamp = time.Unix(0, ts)
		e.CreatedAt = time.Unix(0, created)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database.
func (r *SQLiteUsageRepository) Close() error {
	return r.db.Close()
}

func rangeClause(start, end *time.Time) string {
	if start == nil || end == nil {
		return ""
	}
	return "WHERE timestamp >= ? AND timestamp <= ?"
}

func rangeArgs(start, end *time.Time) []interface{} {
	if start == nil || end == nil {
		return nil
	}
	return []interface{}{start.UnixNano(), end.UnixNano()}
}
