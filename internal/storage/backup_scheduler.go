package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// BackupSchedulerConfig configures periodic backups.
type BackupSchedulerConfig struct {
	Dir      string        // empty: DB.DefaultBackupDir
	Interval time.Duration // default 24h
	Keep     int           // newest backups kept; 0 keeps all
	Logger   *slog.Logger

	// OnBackup is called after every attempt.
	OnBackup func(path string, err error)
}

// BackupStatus reports scheduler activity.
type BackupStatus struct {
	Running    bool
	LastBackup time.Time
	LastPath   string
	LastError  string
	Backups    int
	Failures   int
}

// BackupScheduler backs up a database at a fixed interval and prunes old
// backups.
type BackupScheduler struct {
	db     *DB
	config BackupSchedulerConfig
	logger *slog.Logger

	mu     sync.Mutex
	status BackupStatus
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBackupScheduler creates a scheduler for db.
func NewBackupScheduler(db *DB, config BackupSchedulerConfig) *BackupScheduler {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &BackupScheduler{db: db, config: config, logger: config.Logger}
}

// Start runs the scheduler until ctx is cancelled or Stop is called.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Running {
		return errors.New("backup scheduler is already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.status.Running = true

	go s.loop(ctx, s.done)

	s.logger.Info("Backup scheduler started", "interval", s.config.Interval, "keep", s.config.Keep)
	return nil
}

func (s *BackupScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop stops the scheduler and waits for a backup in progress. Safe to call
// when not running.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.mu.Lock()
	s.status.Running = false
	s.mu.Unlock()
}

// RunOnce takes one backup and prunes old ones.
func (s *BackupScheduler) RunOnce(ctx context.Context) (string, error) {
	path, err := s.db.Backup(ctx, s.config.Dir)
	if err == nil && s.config.Keep > 0 {
		dir := s.config.Dir
		if dir == "" {
			dir = s.db.DefaultBackupDir()
		}
		if removed, pruneErr := PruneBackups(dir, s.config.Keep); pruneErr != nil {
			s.logger.Warn("Failed to prune backups", "error", pruneErr)
		} else if removed > 0 {
			s.logger.Debug("Pruned old backups", "removed", removed)
		}
	}

	s.mu.Lock()
	s.status.LastBackup = time.Now()
	if err != nil {
		s.status.Failures++
		s.status.LastError = err.Error()
	} else {
		s.status.Backups++
		s.status.LastPath = path
		s.status.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Backup failed", "error", err)
	} else {
		s.logger.Info("Backup written", "path", path)
	}
	if s.config.OnBackup != nil {
		s.config.OnBackup(path, err)
	}
	return path, err
}

// Status returns a copy of the scheduler status.
func (s *BackupScheduler) Status() BackupStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
