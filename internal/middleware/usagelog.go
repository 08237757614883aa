package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"cinecatalog-api/internal/model"
	"cinecatalog-api/internal/service"
)

// Headers identifying the calling client. Requests without a username header
// are served normally but not recorded.
const (
	UserHeader   = "X-API-User"
	UserIDHeader = "X-API-User-ID"
)

// UsageCapture records one usage event per identified request. Recording is
// best-effort: a failed write is logged and never affects the response.
func UsageCapture(usage *service.UsageService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := r.Header.Get(UserHeader)
			if username == "" {
				next.ServeHTTP(w, r)
				return
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			params := map[string]string{}
			for key, values := range r.URL.Query() {
				if len(values) > 0 {
					params[key] = values[0]
				}
			}

			event := model.UsageEvent{
				Endpoint:    r.URL.Path,
				Username:    username,
				UserID:      r.Header.Get(UserIDHeader),
				StatusCode:  wrapped.statusCode,
				QueryParams: params,
				Method:      r.Method,
				Timestamp:   time.Now().UTC(),
			}

			// The request context may already be canceled by the time the
			// response is written (client disconnect); the write must still
			// land.
			if err := usage.Log(context.WithoutCancel(r.Context()), event); err != nil {
				log.Printf("[UsageCapture] Failed to record %s %s: %v", r.Method, r.URL.Path, err)
			}
		})
	}
}
