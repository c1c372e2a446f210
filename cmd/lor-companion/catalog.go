package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ramonehamilton/LoR-Companion/internal/config"
	"github.com/ramonehamilton/LoR-Companion/internal/events"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/datadragon"
)

func newDownloader(cfg *config.Config) (*datadragon.Downloader, error) {
	return datadragon.NewDownloader(datadragon.DownloaderOptions{
		CacheDir: cfg.CatalogDir(),
		Locale:   cfg.Catalog.Locale,
		Lite:     cfg.Catalog.Lite,
	})
}

// downloadCatalog fetches every configured set and the globals file.
func downloadCatalog(ctx context.Context, cfg *config.Config) error {
	downloader, err := newDownloader(cfg)
	if err != nil {
		return err
	}

	paths, err := downloader.DownloadSets(ctx, cfg.Catalog.Sets)
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded %d set files to %s\n", len(paths), downloader.CacheDir())

	globalsPath, err := downloader.DownloadGlobals(ctx)
	if err != nil {
		return err
	}
	globals, err := datadragon.LoadGlobals(globalsPath)
	if err != nil {
		return err
	}
	fmt.Printf("Globals: %d regions, %d keywords, %d sets\n", len(globals.Regions), len(globals.Keywords), len(globals.Sets))

	return nil
}

// setupCatalog loads the card catalog, downloading the sets first when none
// are present and auto-download is on. The returned watcher is nil unless
// watching is enabled.
func setupCatalog(ctx context.Context, cfg *config.Config, dispatcher *events.EventDispatcher) (*cards.Store, *datadragon.Watcher, error) {
	dir := cfg.CatalogDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	files, err := datadragon.SetFiles(dir, cfg.Catalog.Locale)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 && cfg.Catalog.AutoDownload {
		log.Printf("[Catalog] No set files in %s, downloading", dir)
		if err := downloadCatalog(ctx, cfg); err != nil {
			// Unknown cards still resolve to code-only cards.
			log.Printf("[Catalog] Download failed: %v", err)
		}
	}

	store := cards.NewStore(nil)
	// Reloads arrive on the watcher goroutine; observers must not stall it.
	onReload := func(catalog *cards.Catalog) {
		dispatcher.DispatchAsync(events.NewTypedEvent(ctx, events.TypeCatalogReloaded, events.CatalogReloadedEvent{
			Cards:   catalog.Len(),
			Skipped: catalog.Skipped(),
		}))
	}

	watcher := datadragon.NewWatcher(datadragon.WatcherConfig{
		Dir:      dir,
		Locale:   cfg.Catalog.Locale,
		Store:    store,
		OnReload: onReload,
	})

	if _, err := watcher.Reload(); err != nil {
		log.Printf("[Catalog] Initial load failed: %v", err)
	}
	if !cfg.Catalog.Watch {
		return store, nil, nil
	}
	return store, watcher, nil
}
