package vmr

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/coolbeans/collatrix/pkg/fetch"
	"github.com/coolbeans/collatrix/pkg/markup"
)

// DefaultCacheTTL is how long a downloaded apparatus is served from disk.
const DefaultCacheTTL = 24 * time.Hour

// ErrNotApparatus is returned when a response body is not a VMR apparatus,
// such as an HTML error page served with a 2xx status.
var ErrNotApparatus = errors.New("vmr: response is not an apparatus document")

// ApparatusCache keeps downloaded apparatus documents on disk, one pair of
// files per index: the response body as <index>.xml and a TOML sidecar
// <index>.toml describing where and when it was fetched. The sidecar is
// written last, so an entry without one is never served.
type ApparatusCache struct {
	directory string
	ttl       time.Duration
}

// CacheEntry is one cached apparatus.
type CacheEntry struct {
	Index     string    `toml:"index"`
	URL       string    `toml:"url"`
	FetchedAt time.Time `toml:"fetched_at"`
	Segments  int       `toml:"segments"`
	Body      []byte    `toml:"-"`
}

// NewApparatusCache creates the cache directory if needed. A ttl of zero or
// less keeps entries forever.
func NewApparatusCache(directory string, ttl time.Duration) (*ApparatusCache, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", directory, err)
	}
	return &ApparatusCache{directory: directory, ttl: ttl}, nil
}

// Load returns the cached apparatus for an index. Expired entries and
// entries whose body no longer parses are removed and reported as misses.
func (cache *ApparatusCache) Load(index string) (*CacheEntry, bool) {
	bodyPath, metadataPath := cache.pathsFor(index)

	var entry CacheEntry
	if _, err := toml.DecodeFile(metadataPath, &entry); err != nil {
		return nil, false
	}
	if entry.Index != index {
		return nil, false
	}
	if cache.ttl > 0 && time.Since(entry.FetchedAt) > cache.ttl {
		cache.remove(index)
		return nil, false
	}

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return nil, false
	}
	if _, err := countSegments(body); err != nil {
		cache.remove(index)
		return nil, false
	}

	entry.Body = body
	return &entry, true
}

// Store saves a downloaded apparatus under its index. Bodies that are not
// apparatus documents are refused with ErrNotApparatus and nothing is
// written.
func (cache *ApparatusCache) Store(index string, document *fetch.Document) error {
	segments, err := countSegments(document.Body)
	if err != nil {
		return err
	}

	bodyPath, metadataPath := cache.pathsFor(index)
	if err := os.WriteFile(bodyPath, document.Body, 0o644); err != nil {
		return fmt.Errorf("failed to write cached apparatus %s: %w", bodyPath, err)
	}

	entry := CacheEntry{
		Index:     index,
		URL:       document.URL,
		FetchedAt: document.FetchedAt,
		Segments:  segments,
	}
	var buffer bytes.Buffer
	if err := toml.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}
	if err := os.WriteFile(metadataPath, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write cache metadata %s: %w", metadataPath, err)
	}
	return nil
}

func (cache *ApparatusCache) remove(index string) {
	bodyPath, metadataPath := cache.pathsFor(index)
	_ = os.Remove(metadataPath)
	_ = os.Remove(bodyPath)
}

func (cache *ApparatusCache) pathsFor(index string) (bodyPath, metadataPath string) {
	base := filepath.Join(cache.directory, entryName(index))
	return base + ".xml", base + ".toml"
}

// entryName maps an index such as "Acts.1.1-5" to a file name. Characters
// outside letters, digits, '.', '-' and '_' become '_'; the sidecar records
// the exact index, so two indices sharing a name never serve each other.
func entryName(index string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(index))
	if name == "" || strings.Trim(name, ".") == "" {
		return "_"
	}
	return name
}

// countSegments parses a body and returns its number of segment elements.
// A body that does not parse, or has no segments, is ErrNotApparatus.
func countSegments(body []byte) (int, error) {
	root, err := markup.ParseBytes(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotApparatus, err)
	}
	segments := len(root.DescendantsNamed("segment"))
	if root.Name.Local == "segment" {
		segments++
	}
	if segments == 0 {
		return 0, fmt.Errorf("%w: no segment elements under <%s>", ErrNotApparatus, root.Name.Local)
	}
	return segments, nil
}
