// Package fetch downloads remote collation documents with rate limiting.
package fetch

import (
	"time"
)

// DefaultUserAgent is the User-Agent header sent with every request.
const DefaultUserAgent = "collatrix/1.0"

// DefaultFetchRateLimit is the default minimum interval between HTTP requests.
const DefaultFetchRateLimit = 1 * time.Second

// DefaultFetchTimeout is the default per-request timeout.
const DefaultFetchTimeout = 60 * time.Second

// FetchConfig holds configuration for a Fetcher.
type FetchConfig struct {
	// RateLimit is the minimum interval between HTTP requests.
	RateLimit time.Duration

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// HTTPClient is the underlying HTTP client. If nil, an *http.Client with
	// Timeout is used.
	HTTPClient HTTPClient
}

// DefaultFetchConfig returns a FetchConfig with sensible defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		RateLimit: DefaultFetchRateLimit,
		Timeout:   DefaultFetchTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Document is a fetched response body together with where it came from.
type Document struct {
	// URL is the address the document was requested from.
	URL string

	// ContentType is the Content-Type header of the response.
	ContentType string

	// Body is the raw response body.
	Body []byte

	// Cached is set when the document was served from a local cache
	// rather than downloaded.
	Cached bool

	// FetchedAt is the timestamp when the document was downloaded.
	FetchedAt time.Time
}
