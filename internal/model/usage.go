package model

import "time"

// UsageEvent is one logged API call. Events are append-only: they are never
// updated after insertion, only aggregated or pruned by retention.
type UsageEvent struct {
	Endpoint    string            `json:"endpoint" bson:"endpoint"`
	Username    string            `json:"username" bson:"username"`
	UserID      string            `json:"userId,omitempty" bson:"userId,omitempty"`
	StatusCode  int               `json:"statusCode" bson:"statusCode"`
	QueryParams map[string]string `json:"queryParams,omitempty" bson:"queryParams,omitempty"`
	Method      string            `json:"method" bson:"method"`
	Timestamp   time.Time         `json:"timestamp" bson:"timestamp"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
}

// UsageSummary is a derived per-username or per-endpoint rollup. It is
// computed on demand and never persisted.
type UsageSummary struct {
	Name       string    `json:"name" bson:"_id"`
	TotalCalls int64     `json:"totalCalls" bson:"totalCalls"`
	LastCall   time.Time `json:"lastCall" bson:"lastCall"`
}
