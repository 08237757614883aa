package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	body, err := NewClient().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body != `[{"id":1}]` {
		t.Errorf("body = %q", body)
	}
}

func TestFetchBinaryReturnsBytes(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	got, err := NewClient().FetchBinary(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchBinary: %v", err)
	}
	if len(got) != len(payload) {
		t.Errorf("got %d bytes, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Errorf("byte %d = %x, want %x", i, got[i], payload[i])
		}
	}
}

func TestFetchClassifiesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key expired", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient().Fetch(context.Background(), srv.URL)
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("want *fetch.Error, got %T", err)
	}
	if fe.Kind != KindRemote {
		t.Errorf("Kind = %v, want KindRemote", fe.Kind)
	}
	if fe.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", fe.StatusCode)
	}
	if fe.Body == "" {
		t.Error("expected error body to be captured")
	}
}

func TestFetchClassifiesNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClientWithTimeout(20 * time.Millisecond)
	_, err := client.Fetch(context.Background(), srv.URL)
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("want *fetch.Error, got %T", err)
	}
	if fe.Kind != KindNoResponse {
		t.Errorf("Kind = %v, want KindNoResponse", fe.Kind)
	}
}

func TestFetchClassifiesRequestError(t *testing.T) {
	_, err := NewClient().Fetch(context.Background(), "http://bad host/")
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("want *fetch.Error, got %T", err)
	}
	if fe.Kind != KindRequest {
		t.Errorf("Kind = %v, want KindRequest", fe.Kind)
	}
}
