package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/coolbeans/collatrix/pkg/logger"
)

// ErrUnexpectedStatus is returned when a server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Fetcher downloads documents over HTTP, at most one request per
// configured interval.
type Fetcher struct {
	httpClient HTTPClient
	userAgent  string
	logger     *log.Logger
}

// NewFetcher creates a Fetcher from the configuration. A nil logger discards
// all output.
func NewFetcher(config FetchConfig, consoleLogger *log.Logger) (*Fetcher, error) {
	underlyingClient := config.HTTPClient
	if underlyingClient == nil {
		underlyingClient = &http.Client{Timeout: config.Timeout}
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if consoleLogger == nil {
		consoleLogger = logger.Discard()
	}

	return &Fetcher{
		httpClient: NewRateLimitedHTTPClient(underlyingClient, config.RateLimit),
		userAgent:  userAgent,
		logger:     consoleLogger,
	}, nil
}

// Fetch returns the document at url.
func (fetcher *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	request.Header.Set("User-Agent", fetcher.userAgent)
	request.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.1")

	startTime := time.Now()
	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, url, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	document := Document{
		URL:         url,
		ContentType: response.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now(),
	}
	fetcher.logger.Debug("fetched document", "url", url, "bytes", len(body), "elapsed", time.Since(startTime))

	return &document, nil
}
