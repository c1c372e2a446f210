package datadragon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
)

// Watcher reloads the catalog held by a cards.Store whenever the set files in
// a directory change.
type Watcher struct {
	dir          string
	locale       string
	store        *cards.Store
	pollInterval time.Duration
	onReload     func(*cards.Catalog)

	mu          sync.Mutex
	fingerprint string
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Dir    string
	Locale string
	Store  *cards.Store

	// PollInterval is the backup polling period (default: 5s).
	PollInterval time.Duration

	// OnReload is called after every successful swap.
	OnReload func(*cards.Catalog)
}

// NewWatcher creates a watcher. It does not touch the directory until Start.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	return &Watcher{
		dir:          config.Dir,
		locale:       config.Locale,
		store:        config.Store,
		pollInterval: config.PollInterval,
		onReload:     config.OnReload,
		stopChan:     make(chan struct{}),
	}
}

// Reload rebuilds the catalog from disk if the set files changed since the
// last load. It returns true when the store was swapped.
func (w *Watcher) Reload() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fp, err := w.currentFingerprint()
	if err != nil {
		return false, err
	}
	if fp == w.fingerprint {
		return false, nil
	}

	catalog, err := LoadDir(w.dir, w.locale)
	if err != nil {
		return false, err
	}

	w.store.Swap(catalog)
	w.fingerprint = fp
	log.Printf("[CatalogWatcher] Loaded %d cards from %s (%d records skipped)", catalog.Len(), w.dir, catalog.Skipped())

	if w.onReload != nil {
		w.onReload(catalog)
	}
	return true, nil
}

func (w *Watcher) currentFingerprint() (string, error) {
	paths, err := SetFiles(w.dir, w.locale)
	if err != nil {
		return "", err
	}

	fp := ""
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		fp += fmt.Sprintf("%s:%d:%d;", p, info.Size(), info.ModTime().UnixNano())
	}
	return fp, nil
}

// Start loads the catalog and then watches the directory until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) (err error) {
	if _, err := w.Reload(); err != nil {
		log.Printf("[CatalogWatcher] Initial load failed: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch set directory: %w", err)
	}

	// Backup polling in case file events are missed
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsSetFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.reloadAndLog()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CatalogWatcher] File watcher error: %v", err)
		case <-ticker.C:
			w.reloadAndLog()
		}
	}
}

func (w *Watcher) reloadAndLog() {
	if _, err := w.Reload(); err != nil {
		log.Printf("[CatalogWatcher] Reload failed: %v", err)
	}
}

// Stop stops watching.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}
