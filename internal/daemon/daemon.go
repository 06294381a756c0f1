// Package daemon keeps the query cache fresh while other sidenote
// processes write to the review directory.
//
// The daemon watches the review directory for changes to the index or
// the comment log, debounces bursts of events, and rebuilds the cache
// database from the stores. It never writes to the stores themselves:
// multi-writer coordination of index.json/review.jsonl is out of scope,
// only the derived cache is maintained here.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sidenote-dev/sidenote/internal/cache"
	"github.com/sidenote-dev/sidenote/internal/store"
)

// Config holds daemon configuration.
type Config struct {
	// DebounceInterval is how long to wait after the last relevant file
	// event before rebuilding. Batches rapid successive writes.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 200 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches a review directory and rebuilds the cache on change.
type Daemon struct {
	dir    string
	db     *cache.DB
	config *Config

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]time.Time // path -> last event time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon for the given review directory and cache
// database. Use Start() to begin watching.
func New(dir string, db *cache.DB, config *Config) (*Daemon, error) {
	if db == nil {
		return nil, fmt.Errorf("cache db cannot be nil")
	}
	if dir == "" {
		return nil, fmt.Errorf("review directory cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Daemon{
		dir:     dir,
		db:      db,
		config:  config,
		watcher: watcher,
		pending: make(map[string]time.Time),
	}, nil
}

// Start begins watching and blocks until ctx is cancelled.
//
// An initial full rebuild runs before watching so the cache reflects
// the stores even when no events arrive.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.rebuild(ctx); err != nil {
		return fmt.Errorf("initial cache rebuild failed: %w", err)
	}

	if err := d.watcher.Add(d.dir); err != nil {
		return fmt.Errorf("failed to watch review directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.dir)

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(2)
	go d.watchFileEvents(ctx)
	go d.drainPending(ctx)

	<-ctx.Done()
	d.config.Logger.Println("Shutdown signal received")
	return d.Stop()
}

// Stop shuts the daemon down and releases the watcher.
func (d *Daemon) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	err := d.watcher.Close()
	d.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// relevant reports whether a changed path affects the cache.
func relevant(path string) bool {
	switch filepath.Base(path) {
	case store.IndexFilename, store.LogFilename:
		return true
	}
	return false
}

// watchFileEvents queues relevant fsnotify events for debounced handling.
func (d *Daemon) watchFileEvents(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			d.pendingMu.Lock()
			d.pending[event.Name] = time.Now()
			d.pendingMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Warning: watcher error: %v", err)
		}
	}
}

// drainPending periodically rebuilds the cache once pending changes have
// been quiet for the debounce interval.
func (d *Daemon) drainPending(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			d.pendingMu.Lock()
			if len(d.pending) == 0 {
				d.pendingMu.Unlock()
				continue
			}
			var newest time.Time
			for _, ts := range d.pending {
				if ts.After(newest) {
					newest = ts
				}
			}
			if time.Since(newest) < d.config.DebounceInterval {
				d.pendingMu.Unlock()
				continue
			}
			n := len(d.pending)
			d.pending = make(map[string]time.Time)
			d.pendingMu.Unlock()

			d.config.Logger.Printf("Rebuilding cache after %d change(s)", n)
			if err := d.rebuild(ctx); err != nil {
				d.config.Logger.Printf("Warning: cache rebuild failed: %v", err)
			}
		}
	}
}

// rebuild resyncs the cache database from the stores.
func (d *Daemon) rebuild(ctx context.Context) error {
	doc := store.NewIndexStore(d.dir).Load()
	rows, err := store.NewLogStore(d.dir).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read comment log: %w", err)
	}
	if err := d.db.Rebuild(ctx, doc, rows); err != nil {
		return fmt.Errorf("failed to rebuild cache: %w", err)
	}
	return nil
}
