// Package watch re-runs a callback when collation files change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/collatrix/pkg/logger"
)

// DefaultDebounce is how long a path must be quiet before it is reported.
const DefaultDebounce = 250 * time.Millisecond

// Config selects what to watch.
type Config struct {
	// Paths are TEI files or directories. Directories report changes to
	// any .xml file directly inside them.
	Paths []string

	// Debounce coalesces bursts of events for the same file.
	Debounce time.Duration
}

// ChangeFunc is called with the path of a changed file.
type ChangeFunc func(ctx context.Context, path string)

// Watcher reports changes to collation files.
type Watcher struct {
	watcher     *fsnotify.Watcher
	files       map[string]bool
	directories map[string]bool
	debounce    time.Duration
	onChange    ChangeFunc
	logger      *log.Logger
}

// New creates a Watcher and registers every configured path. Files are
// watched through their parent directory so that editors which replace
// files on save are still observed.
func New(config Config, onChange ChangeFunc, consoleLogger *log.Logger) (*Watcher, error) {
	if len(config.Paths) == 0 {
		return nil, fmt.Errorf("no paths configured for watching")
	}
	if consoleLogger == nil {
		consoleLogger = logger.Discard()
	}
	debounce := config.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	watcher := &Watcher{
		watcher:     fsWatcher,
		files:       make(map[string]bool),
		directories: make(map[string]bool),
		debounce:    debounce,
		onChange:    onChange,
		logger:      consoleLogger,
	}

	watched := make(map[string]bool)
	for _, path := range config.Paths {
		absolutePath, err := filepath.Abs(path)
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		info, err := os.Stat(absolutePath)
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("watching %s: %w", path, err)
		}

		directory := absolutePath
		if info.IsDir() {
			watcher.directories[absolutePath] = true
		} else {
			watcher.files[absolutePath] = true
			directory = filepath.Dir(absolutePath)
		}

		if watched[directory] {
			continue
		}
		if err := fsWatcher.Add(directory); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("watching directory %s: %w", directory, err)
		}
		watched[directory] = true
	}

	return watcher, nil
}

// Run delivers changes until ctx is done, then releases the watcher.
// Callbacks run one at a time on the calling goroutine.
func (watcher *Watcher) Run(ctx context.Context) error {
	defer watcher.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(watcher.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !watcher.matches(path) {
				continue
			}
			pending[path] = true
			timer.Reset(watcher.debounce)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			clear(pending)

			for _, path := range paths {
				if _, err := os.Stat(path); err != nil {
					watcher.logger.Debug("skipping vanished file", "path", path)
					continue
				}
				watcher.logger.Debug("collation file changed", "path", path)
				watcher.onChange(ctx, path)
			}

		case err, ok := <-watcher.watcher.Errors:
			if !ok {
				return nil
			}
			watcher.logger.Warn("file watcher error", "err", err)
		}
	}
}

func (watcher *Watcher) matches(path string) bool {
	if watcher.files[path] {
		return true
	}
	return watcher.directories[filepath.Dir(path)] && strings.EqualFold(filepath.Ext(path), ".xml")
}
