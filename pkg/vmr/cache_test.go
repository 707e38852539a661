package vmr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/collatrix/pkg/fetch"
)

const errorPage = `<html><head><title>VMR</title></head><body>Service temporarily unavailable</body></html>`

func newTestCache(t *testing.T, ttl time.Duration) (*ApparatusCache, string) {
	t.Helper()
	directory := t.TempDir()
	cache, err := NewApparatusCache(directory, ttl)
	require.NoError(t, err)
	return cache, directory
}

func apparatusDocument(body string) *fetch.Document {
	return &fetch.Document{
		URL:       DefaultBaseURL + "?indexContent=Acts.1.1",
		Body:      []byte(body),
		FetchedAt: time.Now(),
	}
}

func TestApparatusCache_StoreAndLoad(t *testing.T) {
	cache, directory := newTestCache(t, time.Hour)

	require.NoError(t, cache.Store("Acts.1.1", apparatusDocument(sampleApparatus)))

	assert.FileExists(t, filepath.Join(directory, "Acts.1.1.xml"))
	assert.FileExists(t, filepath.Join(directory, "Acts.1.1.toml"))

	raw, err := os.ReadFile(filepath.Join(directory, "Acts.1.1.xml"))
	require.NoError(t, err)
	assert.Equal(t, sampleApparatus, string(raw))

	entry, found := cache.Load("Acts.1.1")
	require.True(t, found)
	assert.Equal(t, "Acts.1.1", entry.Index)
	assert.Equal(t, DefaultBaseURL+"?indexContent=Acts.1.1", entry.URL)
	assert.Equal(t, 2, entry.Segments)
	assert.Equal(t, sampleApparatus, string(entry.Body))

	_, found = cache.Load("Acts.1.2")
	assert.False(t, found)
}

func TestApparatusCache_RefusesNonApparatus(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"error page", errorPage},
		{"empty apparatus", `<apparatus/>`},
		{"broken XML", `<apparatus><segment verse="Acts.1.1"`},
		{"empty body", ``},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			cache, directory := newTestCache(t, time.Hour)

			err := cache.Store("Acts.1.1", apparatusDocument(testCase.body))
			assert.True(t, errors.Is(err, ErrNotApparatus), "got %v", err)

			entries, readErr := os.ReadDir(directory)
			require.NoError(t, readErr)
			assert.Empty(t, entries)

			_, found := cache.Load("Acts.1.1")
			assert.False(t, found)
		})
	}
}

func TestApparatusCache_Expiry(t *testing.T) {
	cache, directory := newTestCache(t, time.Minute)

	document := apparatusDocument(sampleApparatus)
	document.FetchedAt = time.Now().Add(-time.Hour)
	require.NoError(t, cache.Store("Acts.1.1", document))

	_, found := cache.Load("Acts.1.1")
	assert.False(t, found)
	assert.NoFileExists(t, filepath.Join(directory, "Acts.1.1.xml"))
	assert.NoFileExists(t, filepath.Join(directory, "Acts.1.1.toml"))
}

func TestApparatusCache_NoExpiryWithoutTTL(t *testing.T) {
	cache, _ := newTestCache(t, 0)

	document := apparatusDocument(sampleApparatus)
	document.FetchedAt = time.Now().Add(-365 * 24 * time.Hour)
	require.NoError(t, cache.Store("Acts.1.1", document))

	_, found := cache.Load("Acts.1.1")
	assert.True(t, found)
}

func TestApparatusCache_DropsCorruptedBody(t *testing.T) {
	cache, directory := newTestCache(t, time.Hour)
	require.NoError(t, cache.Store("Acts.1.1", apparatusDocument(sampleApparatus)))

	require.NoError(t, os.WriteFile(filepath.Join(directory, "Acts.1.1.xml"), []byte(errorPage), 0o644))

	_, found := cache.Load("Acts.1.1")
	assert.False(t, found)
	assert.NoFileExists(t, filepath.Join(directory, "Acts.1.1.toml"))
}

func TestApparatusCache_IndicesSharingAFileName(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)

	assert.Equal(t, entryName("Acts 1"), entryName("Acts/1"))
	require.NoError(t, cache.Store("Acts 1", apparatusDocument(sampleApparatus)))

	_, found := cache.Load("Acts/1")
	assert.False(t, found)
	_, found = cache.Load("Acts 1")
	assert.True(t, found)
}

func TestEntryName(t *testing.T) {
	tests := map[string]string{
		"Acts.1.1-5": "Acts.1.1-5",
		" Acts ":     "Acts",
		"../etc":     ".._etc",
		"..":         "_",
		"":           "_",
	}
	for index, want := range tests {
		assert.Equal(t, want, entryName(index), "entryName(%q)", index)
	}
}

func TestClient_ServesRepeatsFromCache(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		writer.Write([]byte(sampleApparatus))
	}))
	defer server.Close()

	client := newCachingClient(t, server.URL)
	for i := 0; i < 3; i++ {
		document, err := client.FetchApparatus(context.Background(), "Acts.1.1")
		require.NoError(t, err)
		assert.Equal(t, i > 0, document.Cached, "fetch %d", i)
		assert.Equal(t, sampleApparatus, string(document.Body))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
}

func TestClient_NeverReplaysErrorPages(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		writer.Header().Set("Content-Type", "text/html")
		writer.Write([]byte(errorPage))
	}))
	defer server.Close()

	client := newCachingClient(t, server.URL)
	for i := 0; i < 2; i++ {
		document, err := client.FetchApparatus(context.Background(), "Acts.1.1")
		require.NoError(t, err)
		assert.False(t, document.Cached)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
}

func newCachingClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	config := fetch.DefaultFetchConfig()
	config.RateLimit = 0
	fetcher, err := fetch.NewFetcher(config, nil)
	require.NoError(t, err)

	cache, _ := newTestCache(t, time.Hour)
	return NewClient(baseURL, fetcher, cache, nil)
}
