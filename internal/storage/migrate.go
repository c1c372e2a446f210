package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/ramonehamilton/LoR-Companion/internal/storage/migrations"
)

// ErrDirtyDatabase means an earlier migration failed halfway. The schema must
// be repaired or restored from a backup before the tracker can use it.
var ErrDirtyDatabase = errors.New("database schema is dirty")

// MigrationManager applies the embedded schema migrations to one database file.
type MigrationManager struct {
	migrate *migrate.Migrate
	source  source.Driver
	dbPath  string
}

// NewMigrationManager creates a migration manager for the SQLite file at dbPath.
func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	// golang-migrate wants a URL path: forward slashes, leading slash.
	url := filepath.ToSlash(dbPath)
	if filepath.IsAbs(dbPath) && url[0] != '/' {
		url = "/" + url
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+url)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return &MigrationManager{migrate: m, source: src, dbPath: dbPath}, nil
}

// Migrate brings the database at dbPath up to the newest schema. When an
// existing schema is upgraded, the file is first copied to
// <dbPath>.pre-v<version>.
func Migrate(dbPath string) (err error) {
	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	current, dirty, err := mgr.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirtyDatabase, current)
	}

	latest, err := mgr.LatestVersion()
	if err != nil {
		return err
	}
	if current >= latest {
		return nil
	}

	if current > 0 {
		snapshot := fmt.Sprintf("%s.pre-v%d", dbPath, current)
		if err := copyFile(dbPath, snapshot); err != nil {
			return fmt.Errorf("failed to copy database before migrating: %w", err)
		}
	}
	return mgr.Up()
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up() error {
	if err := mm.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations to %s: %w", mm.dbPath, err)
	}
	return nil
}

// Down rolls back every migration.
func (mm *MigrationManager) Down() error {
	if err := mm.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations on %s: %w", mm.dbPath, err)
	}
	return nil
}

// Steps applies n migrations; negative n rolls back.
func (mm *MigrationManager) Steps(n int) error {
	if err := mm.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %d steps: %w", n, err)
	}
	return nil
}

// Version reports the applied schema version; a fresh database is version 0.
func (mm *MigrationManager) Version() (uint, bool, error) {
	version, dirty, err := mm.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// LatestVersion is the newest embedded migration.
func (mm *MigrationManager) LatestVersion() (uint, error) {
	version, err := mm.source.First()
	if err != nil {
		return 0, fmt.Errorf("no embedded migrations: %w", err)
	}
	for {
		next, err := mm.source.Next(version)
		if errors.Is(err, os.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to walk migrations: %w", err)
		}
		version = next
	}
}

// Close releases the source and database handles.
func (mm *MigrationManager) Close() error {
	srcErr, dbErr := mm.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
