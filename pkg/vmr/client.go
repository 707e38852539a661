package vmr

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/coolbeans/collatrix/pkg/collation"
	"github.com/coolbeans/collatrix/pkg/fetch"
	"github.com/coolbeans/collatrix/pkg/logger"
)

// DefaultBaseURL is the apparatus endpoint of the public VMR API.
const DefaultBaseURL = "https://ntvmr.uni-muenster.de/community/vmr/api/variant/apparatus/get/"

// Client downloads and reads VMR apparatus documents by index, such as
// "Acts", "Acts.1-5" or "Acts.1.1-5".
type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
	cache   *ApparatusCache
	logger  *log.Logger
}

// NewClient creates a Client that fetches from baseURL, or DefaultBaseURL
// when baseURL is empty. cache may be nil to always download.
func NewClient(baseURL string, fetcher *fetch.Fetcher, cache *ApparatusCache, consoleLogger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if consoleLogger == nil {
		consoleLogger = logger.Discard()
	}
	return &Client{baseURL: baseURL, fetcher: fetcher, cache: cache, logger: consoleLogger}
}

// ApparatusURL returns the request URL for an index.
func (client *Client) ApparatusURL(index string) string {
	query := url.Values{}
	query.Set("indexContent", index)
	query.Set("positiveConversion", "true")
	query.Set("buildA", "false")
	query.Set("format", "xml")

	separator := "?"
	if strings.Contains(client.baseURL, "?") {
		separator = "&"
	}
	return client.baseURL + separator + query.Encode()
}

// FetchApparatus returns the raw apparatus document for an index, from the
// cache when it holds a fresh copy. Only bodies that parse as an apparatus
// are cached.
func (client *Client) FetchApparatus(ctx context.Context, index string) (*fetch.Document, error) {
	if strings.TrimSpace(index) == "" {
		return nil, fmt.Errorf("VMR index must not be empty")
	}

	if client.cache != nil {
		if entry, found := client.cache.Load(index); found {
			client.logger.Debug("serving apparatus from cache", "index", index, "segments", entry.Segments)
			return &fetch.Document{URL: entry.URL, Body: entry.Body, Cached: true, FetchedAt: entry.FetchedAt}, nil
		}
	}

	document, err := client.fetcher.Fetch(ctx, client.ApparatusURL(index))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch apparatus for %s: %w", index, err)
	}

	if client.cache != nil {
		if err := client.cache.Store(index, document); err != nil {
			client.logger.Warn("not caching apparatus", "index", index, "err", err)
		}
	}
	return document, nil
}

// Read downloads the apparatus for an index and reads it into matrices.
func (client *Client) Read(ctx context.Context, collationReader *collation.Reader, index string) (*collation.Result, error) {
	document, err := client.FetchApparatus(ctx, index)
	if err != nil {
		return nil, err
	}
	return collationReader.Read(NewAdapter(collationReader.Options()), bytes.NewReader(document.Body))
}
