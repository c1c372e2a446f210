package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/storage/models"
)

// DeckRepository handles database operations for decks. Decks are keyed by
// deck code, so every match played with the same composition shares a row.
type DeckRepository interface {
	// RecordResult creates the deck if needed and adds one win or loss.
	RecordResult(ctx context.Context, deck *models.Deck, won bool, playedAt time.Time) error

	// Upsert creates the deck or refreshes its metadata without touching the record.
	Upsert(ctx context.Context, deck *models.Deck) error

	// Merge adds the deck's wins and losses to the stored record, keeping the
	// earliest first_played.
	Merge(ctx context.Context, deck *models.Deck) error

	// GetByCode retrieves a deck by its code. Returns nil if not found.
	GetByCode(ctx context.Context, code string) (*models.Deck, error)

	// List retrieves decks, most recently played first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*models.Deck, error)
}

// deckRepository is the concrete implementation of DeckRepository.
type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db *sql.DB) DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) upsert(ctx context.Context, deck *models.Deck, wins, losses int, firstPlayed, lastPlayed time.Time) error {
	if deck.Code == "" {
		return fmt.Errorf("deck has no code")
	}
	if lastPlayed.IsZero() {
		lastPlayed = time.Now()
	}
	if firstPlayed.IsZero() {
		firstPlayed = lastPlayed
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO decks (
			code, regions, champions, card_count, wins, losses, first_played, last_played
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			regions = excluded.regions,
			champions = excluded.champions,
			card_count = excluded.card_count,
			wins = decks.wins + excluded.wins,
			losses = decks.losses + excluded.losses,
			first_played = MIN(decks.first_played, excluded.first_played),
			last_played = MAX(decks.last_played, excluded.last_played)
	`,
		deck.Code,
		joinList(deck.Regions),
		joinList(deck.Champions),
		deck.CardCount,
		wins,
		losses,
		firstPlayed.UTC(),
		lastPlayed.UTC(),
	)
	return err
}

// RecordResult creates the deck if needed and adds one win or loss.
func (r *deckRepository) RecordResult(ctx context.Context, deck *models.Deck, won bool, playedAt time.Time) error {
	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}
	if err := r.upsert(ctx, deck, wins, losses, playedAt, playedAt); err != nil {
		return fmt.Errorf("failed to record deck result: %w", err)
	}
	return nil
}

// Upsert creates the deck or refreshes its metadata.
func (r *deckRepository) Upsert(ctx context.Context, deck *models.Deck) error {
	if err := r.upsert(ctx, deck, 0, 0, deck.LastPlayed, deck.LastPlayed); err != nil {
		return fmt.Errorf("failed to upsert deck: %w", err)
	}
	return nil
}

// Merge adds the deck's record to the stored one.
func (r *deckRepository) Merge(ctx context.Context, deck *models.Deck) error {
	if err := r.upsert(ctx, deck, deck.Wins, deck.Losses, deck.FirstPlayed, deck.LastPlayed); err != nil {
		return fmt.Errorf("failed to merge deck: %w", err)
	}
	return nil
}

func scanDeck(row rowScanner) (*models.Deck, error) {
	deck := &models.Deck{}
	var regions, champions string

	err := row.Scan(
		&deck.Code,
		&regions,
		&champions,
		&deck.CardCount,
		&deck.Wins,
		&deck.Losses,
		&deck.FirstPlayed,
		&deck.LastPlayed,
	)
	if err != nil {
		return nil, err
	}

	deck.Regions = splitList(regions)
	deck.Champions = splitList(champions)
	return deck, nil
}

const deckColumns = `code, regions, champions, card_count, wins, losses, first_played, last_played`

// GetByCode retrieves a deck by its code.
func (r *deckRepository) GetByCode(ctx context.Context, code string) (*models.Deck, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE code = ?`, code)

	deck, err := scanDeck(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by code: %w", err)
	}
	return deck, nil
}

// List retrieves decks, most recently played first.
func (r *deckRepository) List(ctx context.Context, limit int) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks ORDER BY last_played DESC, code`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = rows.Close()
	}()

	var decks []*models.Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, deck)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}
	return decks, nil
}
