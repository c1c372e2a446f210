// Command lor-companion tracks Legends of Runeterra games through the game
// client's local API, stores their history and serves it over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/api"
	"github.com/ramonehamilton/LoR-Companion/internal/config"
	"github.com/ramonehamilton/LoR-Companion/internal/events"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/client"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
	"github.com/ramonehamilton/LoR-Companion/internal/tracker"
	"github.com/ramonehamilton/LoR-Companion/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.lor-companion/config.toml)")
	debugMode  = flag.Bool("debug", false, "Enable verbose debug logging")
	noServer   = flag.Bool("no-server", false, "Do not start the REST/WebSocket API")

	download = flag.Bool("download", false, "Download the configured card sets and exit")

	reportDir  = flag.String("report", "", "Write an HTML report of the match history to this directory and exit")
	openReport = flag.Bool("open", false, "Open the report in the default browser")

	exportPath   = flag.String("export", "", "Export the match history to this file and exit")
	exportFormat = flag.String("export-format", "json", "Export format: json or csv")
	exportLimit  = flag.Int("export-limit", 100000, "Maximum number of matches to export, newest first")
	importPath   = flag.String("import", "", "Import a match history file and exit")
	password     = flag.String("password", "", "Password for encrypted exports and imports (default: $LOR_EXPORT_PASSWORD)")

	backupNow   = flag.Bool("backup", false, "Back up the database and exit")
	restorePath = flag.String("restore", "", "Restore the database from this backup file and exit")

	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("lor-companion", version.GetVersion())
		return
	}

	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if *debugMode {
		cfg.App.DebugMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.App.DebugMode)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *download {
		return downloadCatalog(ctx, cfg)
	}

	if *restorePath != "" {
		if err := storage.RestoreBackup(*restorePath, cfg.Storage.DBPath); err != nil {
			return fmt.Errorf("failed to restore backup: %w", err)
		}
		logger.Info("Database restored", "from", *restorePath, "to", cfg.Storage.DBPath)
		return nil
	}

	dbConfig := storage.DefaultConfig(cfg.Storage.DBPath)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	store := storage.NewService(db)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	switch {
	case *backupNow:
		path, err := db.Backup(ctx, cfg.Storage.BackupDir)
		if err != nil {
			return err
		}
		logger.Info("Backup written", "path", path)
		return nil
	case *exportPath != "":
		return exportHistory(ctx, store, *exportPath, *exportFormat, *exportLimit, exportPassword())
	case *importPath != "":
		return importHistory(ctx, store, *importPath, exportPassword())
	case *reportDir != "":
		return writeReport(ctx, store, *reportDir, *openReport)
	}

	return track(ctx, cfg, logger, db, store)
}

func exportPassword() string {
	if *password != "" {
		return *password
	}
	return os.Getenv("LOR_EXPORT_PASSWORD")
}

// track runs the tracker and the API until ctx is cancelled.
func track(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *storage.DB, store *storage.Service) error {
	dispatcher := events.NewEventDispatcher()
	if cfg.App.DebugMode {
		dispatcher.Register(events.NewLoggingObserver(logger))
	}

	catalogStore, watcher, err := setupCatalog(ctx, cfg, dispatcher)
	if err != nil {
		return err
	}
	if watcher != nil {
		go func() {
			if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Catalog watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	pollInterval, _ := cfg.GetPollInterval()
	expeditionInterval, _ := cfg.GetExpeditionInterval()
	timeout, _ := cfg.GetClientTimeout()

	clientConfig := client.DefaultConfig(cfg.Client.Port)
	clientConfig.APIKey = cfg.Client.APIKey
	clientConfig.Timeout = timeout
	clientConfig.MaxRetries = cfg.Client.MaxRetries

	lorClient := client.New(clientConfig)
	if !lorClient.IsHealthy(ctx) {
		logger.Info("Game client not reachable yet, waiting for it", "url", lorClient.BaseURL())
	}

	svc, err := tracker.New(tracker.Config{
		Source:             lorClient,
		Resolver:           catalogStore,
		Store:              store,
		Dispatcher:         dispatcher,
		Logger:             logger.With("component", "tracker"),
		PollInterval:       pollInterval,
		ExpeditionInterval: expeditionInterval,
		RequestTimeout:     timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}

	dispatcher.Register(&events.FuncObserver{
		Name:  "MatchLogger",
		Types: []string{events.TypeMatchEnded},
		Fn: func(event events.Event) error {
			ended, ok := events.GetTypedData[events.MatchEndedEvent](event)
			if !ok {
				return nil
			}
			logger.Info("Game finished",
				"opponent", ended.Snapshot.Opponent,
				"outcome", ended.Snapshot.Outcome,
				"saved", ended.Saved)
			if ended.Snapshot.Result != nil {
				summary, err := ended.Snapshot.Result.MarshalSummary(false)
				if err != nil {
					return err
				}
				fmt.Println(string(summary))
			}
			return nil
		},
	})

	var server *api.Server
	if cfg.Server.Enabled && !*noServer {
		server = api.NewServer(&api.Config{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, api.Services{
			Store:    store,
			Tracker:  svc,
			Resolver: catalogStore,
		})
		dispatcher.Register(server.NewWebSocketObserver())

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		logger.Info("API server running", "addr", server.Addr())
	}

	if interval, _ := cfg.GetBackupInterval(); interval > 0 {
		backups := storage.NewBackupScheduler(db, storage.BackupSchedulerConfig{
			Dir:      cfg.Storage.BackupDir,
			Interval: interval,
			Keep:     cfg.Storage.BackupKeep,
			Logger:   logger.With("component", "backup"),
		})
		if err := backups.Start(ctx); err != nil {
			return err
		}
		defer backups.Stop()
	}

	svc.Start(ctx)
	logger.Info("Tracking games", "version", version.GetVersion(), "port", cfg.Client.Port,
		"observers", dispatcher.ObserverCount())

	<-ctx.Done()
	logger.Info("Shutting down")

	svc.Stop()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during API shutdown", "error", err)
		}
	}

	dispatcher.Wait()
	if failed := dispatcher.Failures(); failed > 0 {
		logger.Warn("Event observers failed during the session", "failures", failed)
	}
	return nil
}
