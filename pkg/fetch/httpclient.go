package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HTTPClient is an interface matching the Do method of *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedHTTPClient wraps an HTTPClient and enforces a minimum interval
// between requests. Waiting honours the request's context.
type RateLimitedHTTPClient struct {
	underlying      HTTPClient
	requestInterval time.Duration
	lastRequest     time.Time
	mu              sync.Mutex
}

// NewRateLimitedHTTPClient creates a rate-limited HTTP client that enforces
// the given minimum interval between requests.
func NewRateLimitedHTTPClient(underlying HTTPClient, requestInterval time.Duration) *RateLimitedHTTPClient {
	return &RateLimitedHTTPClient{
		underlying:      underlying,
		requestInterval: requestInterval,
	}
}

// Do executes an HTTP request, waiting for the rate limiter before sending.
func (rateLimitedClient *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := rateLimitedClient.wait(req.Context()); err != nil {
		return nil, err
	}
	return rateLimitedClient.underlying.Do(req)
}

// wait reserves the next request slot and sleeps until it arrives.
func (rateLimitedClient *RateLimitedHTTPClient) wait(ctx context.Context) error {
	rateLimitedClient.mu.Lock()
	now := time.Now()
	next := now
	if !rateLimitedClient.lastRequest.IsZero() {
		if earliest := rateLimitedClient.lastRequest.Add(rateLimitedClient.requestInterval); earliest.After(now) {
			next = earliest
		}
	}
	rateLimitedClient.lastRequest = next
	rateLimitedClient.mu.Unlock()

	waitTime := next.Sub(now)
	if waitTime <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(waitTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
