package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/storage/models"
)

// ExpeditionRepository stores expedition status snapshots.
type ExpeditionRepository interface {
	// Save inserts a snapshot.
	Save(ctx context.Context, snapshot *models.ExpeditionSnapshot) error

	// GetLatest retrieves the most recent snapshot. Returns nil if none exists.
	GetLatest(ctx context.Context) (*models.ExpeditionSnapshot, error)

	// List retrieves the most recent snapshots, newest first.
	List(ctx context.Context, limit int) ([]*models.ExpeditionSnapshot, error)
}

type expeditionRepository struct {
	db *sql.DB
}

// NewExpeditionRepository creates a new expedition repository.
func NewExpeditionRepository(db *sql.DB) ExpeditionRepository {
	return &expeditionRepository{db: db}
}

// Save inserts a snapshot.
func (r *expeditionRepository) Save(ctx context.Context, snapshot *models.ExpeditionSnapshot) error {
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	if snapshot.DraftPicks == "" {
		snapshot.DraftPicks = "[]"
	}

	record, err := json.Marshal(nonNil(snapshot.Record))
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	deck, err := json.Marshal(nonNil(snapshot.Deck))
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO expedition_snapshots (
			is_active, state, record, draft_picks, deck, games_played, wins, losses, captured_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snapshot.IsActive,
		snapshot.State,
		string(record),
		snapshot.DraftPicks,
		string(deck),
		snapshot.GamesPlayed,
		snapshot.Wins,
		snapshot.Losses,
		snapshot.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save expedition snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	snapshot.ID = int(id)
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func scanSnapshot(row rowScanner) (*models.ExpeditionSnapshot, error) {
	s := &models.ExpeditionSnapshot{}
	var record, deck string

	err := row.Scan(
		&s.ID,
		&s.IsActive,
		&s.State,
		&record,
		&s.DraftPicks,
		&deck,
		&s.GamesPlayed,
		&s.Wins,
		&s.Losses,
		&s.CapturedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(record), &s.Record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal([]byte(deck), &s.Deck); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}
	return s, nil
}

const snapshotColumns = `id, is_active, state, record, draft_picks, deck, games_played, wins, losses, captured_at`

// GetLatest retrieves the most recent snapshot.
func (r *expeditionRepository) GetLatest(ctx context.Context) (*models.ExpeditionSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM expedition_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1
	`)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest expedition snapshot: %w", err)
	}
	return s, nil
}

// List retrieves the most recent snapshots.
func (r *expeditionRepository) List(ctx context.Context, limit int) ([]*models.ExpeditionSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM expedition_snapshots ORDER BY captured_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expedition snapshots: %w", err)
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = rows.Close()
	}()

	var snapshots []*models.ExpeditionSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expedition snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expedition snapshots: %w", err)
	}
	return snapshots, nil
}
