// Package repository provides data access layers for tracked matches, decks
// and expedition runs.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/storage/models"
)

// MatchRepository handles database operations for matches and the cards seen in them.
type MatchRepository interface {
	// Create inserts a match and its cards in one transaction.
	Create(ctx context.Context, match *models.Match, cards []*models.MatchCard) error

	// GetByID retrieves a match by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id string) (*models.Match, error)

	// GetRecent retrieves the most recent matches, newest first.
	GetRecent(ctx context.Context, limit int) ([]*models.Match, error)

	// GetByDeckCode retrieves every match played with a deck, newest first.
	GetByDeckCode(ctx context.Context, code string) ([]*models.Match, error)

	// GetMatches retrieves every match passing the filter, oldest first.
	GetMatches(ctx context.Context, filter models.StatsFilter) ([]*models.Match, error)

	// GetCards retrieves the cards seen in a match.
	GetCards(ctx context.Context, matchID string) ([]*models.MatchCard, error)

	// GetStats calculates statistics based on the given filter.
	GetStats(ctx context.Context, filter models.StatsFilter) (*models.Statistics, error)

	// GetRegionStats aggregates results by the player's deck regions.
	GetRegionStats(ctx context.Context, filter models.StatsFilter) ([]*models.RegionStats, error)

	// GetTopCards returns the cards seen in the most matches for one side.
	GetTopCards(ctx context.Context, side string, limit int) ([]*models.CardUsage, error)
}

// matchRepository is the concrete implementation of MatchRepository.
type matchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *sql.DB) MatchRepository {
	return &matchRepository{db: db}
}

const matchColumns = `
	id, game_id, player, opponent, result, deck_code, opponent_deck_code,
	player_regions, opponent_regions, player_cards_used, opponent_cards_used,
	screen_width, screen_height, frames, started_at, ended_at, duration_seconds, created_at
`

// Create inserts a match and its cards in one transaction.
func (r *matchRepository) Create(ctx context.Context, match *models.Match, cards []*models.MatchCard) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}

	// Stored times are compared as text, so they must share a zone.
	match.StartedAt = match.StartedAt.UTC()
	var endedAt interface{}
	if match.EndedAt != nil {
		endedAt = match.EndedAt.UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		match.ID,
		match.GameID,
		match.Player,
		match.Opponent,
		match.Result,
		match.DeckCode,
		match.OpponentDeckCode,
		joinList(match.PlayerRegions),
		joinList(match.OpponentRegions),
		match.PlayerCardsUsed,
		match.OpponentCardsUsed,
		match.ScreenWidth,
		match.ScreenHeight,
		match.Frames,
		match.StartedAt,
		endedAt,
		match.DurationSeconds,
		match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_cards (match_id, side, card_code, quantity) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare card insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, card := range cards {
		res, execErr := stmt.ExecContext(ctx, match.ID, card.Side, card.CardCode, card.Quantity)
		if execErr != nil {
			err = fmt.Errorf("failed to insert card %s: %w", card.CardCode, execErr)
			return err
		}
		if id, idErr := res.LastInsertId(); idErr == nil {
			card.ID = int(id)
		}
		card.MatchID = match.ID
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var (
		deckCode, opponentCode         sql.NullString
		playerRegions, opponentRegions string
		endedAt, createdAt             sql.NullTime
	)

	err := row.Scan(
		&match.ID,
		&match.GameID,
		&match.Player,
		&match.Opponent,
		&match.Result,
		&deckCode,
		&opponentCode,
		&playerRegions,
		&opponentRegions,
		&match.PlayerCardsUsed,
		&match.OpponentCardsUsed,
		&match.ScreenWidth,
		&match.ScreenHeight,
		&match.Frames,
		&match.StartedAt,
		&endedAt,
		&match.DurationSeconds,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if deckCode.Valid {
		match.DeckCode = &deckCode.String
	}
	if opponentCode.Valid {
		match.OpponentDeckCode = &opponentCode.String
	}
	if endedAt.Valid {
		t := endedAt.Time
		match.EndedAt = &t
	}
	if createdAt.Valid {
		match.CreatedAt = createdAt.Time
	}
	match.PlayerRegions = splitList(playerRegions)
	match.OpponentRegions = splitList(opponentRegions)

	return match, nil
}

func (r *matchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = rows.Close()
	}()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// GetByID retrieves a match by its ID.
func (r *matchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)

	match, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}
	return match, nil
}

// GetRecent retrieves the most recent matches.
func (r *matchRepository) GetRecent(ctx context.Context, limit int) ([]*models.Match, error) {
	if limit <= 0 {
		limit = 20
	}

	matches, err := r.queryMatches(ctx,
		`SELECT `+matchColumns+` FROM matches ORDER BY started_at DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent matches: %w", err)
	}
	return matches, nil
}

// GetByDeckCode retrieves every match played with a deck.
func (r *matchRepository) GetByDeckCode(ctx context.Context, code string) ([]*models.Match, error) {
	matches, err := r.queryMatches(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE deck_code = ? ORDER BY started_at DESC`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches by deck code: %w", err)
	}
	return matches, nil
}

// GetCards retrieves the cards seen in a match, player side first.
func (r *matchRepository) GetCards(ctx context.Context, matchID string) ([]*models.MatchCard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, match_id, side, card_code, quantity
		FROM match_cards
		WHERE match_id = ?
		ORDER BY CASE side WHEN 'player' THEN 0 ELSE 1 END, card_code
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match cards: %w", err)
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = rows.Close()
	}()

	var cards []*models.MatchCard
	for rows.Next() {
		card := &models.MatchCard{}
		if err := rows.Scan(&card.ID, &card.MatchID, &card.Side, &card.CardCode, &card.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan match card: %w", err)
		}
		cards = append(cards, card)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match cards: %w", err)
	}
	return cards, nil
}

func buildWhere(filter models.StatsFilter) (string, []interface{}) {
	where := "WHERE 1=1"
	args := make([]interface{}, 0)

	if filter.StartDate != nil {
		where += " AND started_at >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where += " AND started_at <= ?"
		args = append(args, *filter.EndDate)
	}
	if filter.DeckCode != nil {
		where += " AND deck_code = ?"
		args = append(args, *filter.DeckCode)
	}
	if filter.Opponent != nil {
		where += " AND opponent = ?"
		args = append(args, *filter.Opponent)
	}
	if filter.Result != nil {
		where += " AND result = ?"
		args = append(args, *filter.Result)
	}

	return where, args
}

// GetMatches retrieves every match passing the filter, oldest first.
func (r *matchRepository) GetMatches(ctx context.Context, filter models.StatsFilter) ([]*models.Match, error) {
	where, args := buildWhere(filter)

	matches, err := r.queryMatches(ctx,
		`SELECT `+matchColumns+` FROM matches `+where+` ORDER BY started_at ASC, created_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	return matches, nil
}

// GetStats calculates statistics based on the given filter.
func (r *matchRepository) GetStats(ctx context.Context, filter models.StatsFilter) (*models.Statistics, error) {
	where, args := buildWhere(filter)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END), 0) as wins,
			COALESCE(SUM(CASE WHEN result = 'loss' THEN 1 ELSE 0 END), 0) as losses,
			COALESCE(AVG(duration_seconds), 0) as avg_duration
		FROM matches
		%s
	`, where)

	stats := &models.Statistics{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalMatches,
		&stats.MatchesWon,
		&stats.MatchesLost,
		&stats.AvgDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get match stats: %w", err)
	}

	if decided := stats.MatchesWon + stats.MatchesLost; decided > 0 {
		stats.WinRate = float64(stats.MatchesWon) / float64(decided)
	}

	return stats, nil
}

// GetRegionStats aggregates results by the player's deck regions. A match
// counts once for each of its regions.
func (r *matchRepository) GetRegionStats(ctx context.Context, filter models.StatsFilter) ([]*models.RegionStats, error) {
	where, args := buildWhere(filter)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT player_regions, result FROM matches %s
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get region stats: %w", err)
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = rows.Close()
	}()

	byRegion := make(map[string]*models.RegionStats)
	for rows.Next() {
		var regions, result string
		if err := rows.Scan(&regions, &result); err != nil {
			return nil, fmt.Errorf("failed to scan region row: %w", err)
		}
		for _, region := range splitList(regions) {
			rs, ok := byRegion[region]
			if !ok {
				rs = &models.RegionStats{Region: region}
				byRegion[region] = rs
			}
			rs.Matches++
			switch result {
			case models.ResultWin:
				rs.Wins++
			case models.ResultLoss:
				rs.Losses++
			}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating region rows: %w", err)
	}

	stats := make([]*models.RegionStats, 0, len(byRegion))
	for _, rs := range byRegion {
		if decided := rs.Wins + rs.Losses; decided > 0 {
			rs.WinRate = float64(rs.Wins) / float64(decided)
		}
		stats = append(stats, rs)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Matches != stats[j].Matches {
			return stats[i].Matches > stats[j].Matches
		}
		return stats[i].Region < stats[j].Region
	})

	return stats, nil
}

// GetTopCards returns the cards seen in the most matches for one side.
func (r *matchRepository) GetTopCards(ctx context.Context, side string, limit int) ([]*models.CardUsage, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT card_code, side, COUNT(DISTINCT match_id) as matches, SUM(quantity) as copies
		FROM match_cards
		WHERE side = ?
		GROUP BY card_code, side
		ORDER BY matches DESC, copies DESC, card_code
		LIMIT ?
	`, side, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top cards: %w", err)
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = rows.Close()
	}()

	var usage []*models.CardUsage
	for rows.Next() {
		u := &models.CardUsage{}
		if err := rows.Scan(&u.CardCode, &u.Side, &u.Matches, &u.Copies); err != nil {
			return nil, fmt.Errorf("failed to scan card usage: %w", err)
		}
		usage = append(usage, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card usage: %w", err)
	}
	return usage, nil
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
