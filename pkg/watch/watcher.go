// Package watch keeps the index in sync with on-disk log edits.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mklimuk/worklog-pilot/pkg/index"
	"github.com/mklimuk/worklog-pilot/pkg/vault"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reindexes log files as they change on disk. It watches the log
// root and every month directory under it, picking up new month
// directories as they appear.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	basePath  string
	root      string
	indexer   *index.Indexer
	done      chan struct{}

	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher over the vault directory at basePath. root is the
// vault-relative log root folder.
func New(basePath, root string, ix *index.Indexer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		basePath:  basePath,
		root:      root,
		indexer:   ix,
		done:      make(chan struct{}),
		debounce:  make(map[string]*time.Timer),
	}, nil
}

// Start registers the initial watch set and begins processing events.
func (w *Watcher) Start() error {
	rootDir := filepath.Join(w.basePath, filepath.FromSlash(w.root))
	if err := w.fsWatcher.Add(rootDir); err != nil {
		return err
	}

	// Existing month directories
	entries, err := os.ReadDir(rootDir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				if err := w.fsWatcher.Add(filepath.Join(rootDir, e.Name())); err != nil {
					log.Printf("watch: failed to watch %s: %v", e.Name(), err)
				}
			}
		}
	}

	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Rename matters for atomic writes (write tmp, rename to target),
	// which is what most editors do on save.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	// A new month directory needs its own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsWatcher.Add(event.Name); err != nil {
				log.Printf("watch: failed to watch %s: %v", event.Name, err)
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, vault.LogExt) {
		return
	}

	w.debounceEvent(event.Name, func() {
		rel, err := filepath.Rel(w.basePath, event.Name)
		if err != nil {
			return
		}
		w.indexer.IndexFile(filepath.ToSlash(rel))
	})
}

func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}
