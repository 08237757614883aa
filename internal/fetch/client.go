// Package fetch performs timed HTTP GETs against the external content
// providers. It classifies failures but never retries; retry policy belongs
// to the caller.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a provider error body is kept on the error.
const maxErrorBody = 512

// ErrorKind tags the shape of a fetch failure.
type ErrorKind int

const (
	// KindRemote means the provider answered with a non-2xx status.
	KindRemote ErrorKind = iota + 1
	// KindNoResponse means no response arrived (network failure or timeout).
	KindNoResponse
	// KindRequest means the request could not be constructed locally.
	KindRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindNoResponse:
		return "no-response"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error is the single failure type produced by the client.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindRemote {
		return fmt.Sprintf("fetch %s: %s error: status %d", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client performs GET requests with a fixed timeout.
type Client struct {
	http *http.Client
}

// NewClient creates a client with the default 30s timeout.
func NewClient() *Client {
	return NewClientWithTimeout(DefaultTimeout)
}

// NewClientWithTimeout creates a client with a custom timeout. Used by tests.
func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves a text payload from url.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchBinary retrieves a raw byte payload from url.
func (c *Client) FetchBinary(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindRequest, URL: url, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Fetch] GET %s failed after %s: %v", url, time.Since(start).Round(time.Millisecond), err)
		return nil, &Error{Kind: KindNoResponse, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Fetch] GET %s read failed after %s: %v", url, time.Since(start).Round(time.Millisecond), err)
		return nil, &Error{Kind: KindNoResponse, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[Fetch] GET %s -> %d in %s", url, resp.StatusCode, elapsed)
		excerpt := string(body)
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &Error{
			Kind:       KindRemote,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       excerpt,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	log.Printf("[Fetch] GET %s -> %d in %s (%d bytes)", url, resp.StatusCode, elapsed, len(body))
	return body, nil
}
