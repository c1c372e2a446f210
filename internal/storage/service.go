package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/expedition"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
	"github.com/ramonehamilton/LoR-Companion/internal/storage/models"
	"github.com/ramonehamilton/LoR-Companion/internal/storage/repository"
)

// Service provides high-level operations for storing and retrieving tracked data.
type Service struct {
	db          *DB
	matches     repository.MatchRepository
	decks       repository.DeckRepository
	expeditions repository.ExpeditionRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:          db,
		matches:     repository.NewMatchRepository(db.Conn()),
		decks:       repository.NewDeckRepository(db.Conn()),
		expeditions: repository.NewExpeditionRepository(db.Conn()),
	}
}

// MatchFromSnapshot converts a finished game into its stored form.
func MatchFromSnapshot(snap match.Snapshot) (*Match, []*MatchCard) {
	m := &Match{
		ID:                snap.ID,
		GameID:            match.NoGameID,
		Player:            snap.Player,
		Opponent:          snap.Opponent,
		Result:            models.ResultUnknown,
		PlayerRegions:     snap.InitialDeck.Regions,
		OpponentRegions:   snap.OpponentUsed.Regions,
		PlayerCardsUsed:   snap.PlayerUsed.Size,
		OpponentCardsUsed: snap.OpponentUsed.Size,
		ScreenWidth:       snap.Screen.Width,
		ScreenHeight:      snap.Screen.Height,
		Frames:            snap.FramesProcessed,
		StartedAt:         snap.StartedAt.UTC(),
		DurationSeconds:   snap.DurationSeconds,
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if len(m.PlayerRegions) == 0 {
		m.PlayerRegions = snap.PlayerUsed.Regions
	}
	if snap.InitialDeck.Code != "" {
		code := snap.InitialDeck.Code
		m.DeckCode = &code
	}
	if snap.OpponentUsed.Code != "" {
		code := snap.OpponentUsed.Code
		m.OpponentDeckCode = &code
	}
	if !snap.EndedAt.IsZero() {
		ended := snap.EndedAt.UTC()
		m.EndedAt = &ended
	}
	if snap.Result != nil && snap.Result.Played() {
		m.GameID = snap.Result.GameID
		m.Result = models.ResultLoss
		if snap.Result.LocalPlayerWon {
			m.Result = models.ResultWin
		}
	}

	cards := make([]*MatchCard, 0, len(snap.PlayerUsed.Entries)+len(snap.OpponentUsed.Entries))
	for _, e := range snap.PlayerUsed.Entries {
		cards = append(cards, &MatchCard{Side: models.SidePlayer, CardCode: e.Card.CardCode, Quantity: e.Count})
	}
	for _, e := range snap.OpponentUsed.Entries {
		cards = append(cards, &MatchCard{Side: models.SideOpponent, CardCode: e.Card.CardCode, Quantity: e.Count})
	}
	return m, cards
}

// SaveMatch stores a finished game and, when the player's deck has a code and
// the game was decided, adds the result to that deck's record.
func (s *Service) SaveMatch(ctx context.Context, snap match.Snapshot) (*Match, error) {
	m, cards := MatchFromSnapshot(snap)
	if err := s.matches.Create(ctx, m, cards); err != nil {
		return nil, err
	}

	if m.DeckCode == nil || m.Result == models.ResultUnknown {
		return m, nil
	}

	playedAt := m.StartedAt
	if m.EndedAt != nil {
		playedAt = *m.EndedAt
	}
	deck := &Deck{
		Code:      *m.DeckCode,
		Regions:   snap.InitialDeck.Regions,
		Champions: snap.InitialDeck.Champions,
		CardCount: snap.InitialDeck.Size,
	}
	if err := s.decks.RecordResult(ctx, deck, m.Result == models.ResultWin, playedAt); err != nil {
		return m, fmt.Errorf("match %s saved but deck record failed: %w", m.ID, err)
	}
	return m, nil
}

// SaveExpedition stores an expedition status snapshot.
func (s *Service) SaveExpedition(ctx context.Context, state *expedition.State) (*ExpeditionSnapshot, error) {
	if state == nil {
		return nil, fmt.Errorf("expedition state cannot be nil")
	}

	picks, err := json.Marshal(state.DraftPicks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft picks: %w", err)
	}

	snapshot := &ExpeditionSnapshot{
		IsActive:    state.IsActive,
		State:       state.State,
		Record:      state.Record,
		DraftPicks:  string(picks),
		Deck:        state.DeckCodes,
		GamesPlayed: state.GamesPlayed,
		Wins:        state.Wins,
		Losses:      state.Losses,
		CapturedAt:  time.Now().UTC(),
	}
	if err := s.expeditions.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// GetMatch retrieves a match and its cards. Returns nil if not found.
func (s *Service) GetMatch(ctx context.Context, id string) (*Match, []*MatchCard, error) {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil || m == nil {
		return nil, nil, err
	}
	cards, err := s.matches.GetCards(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return m, cards, nil
}

// GetRecentMatches retrieves the most recent matches.
func (s *Service) GetRecentMatches(ctx context.Context, limit int) ([]*Match, error) {
	return s.matches.GetRecent(ctx, limit)
}

// GetMatchesByDeck retrieves the matches played with a deck code.
func (s *Service) GetMatchesByDeck(ctx context.Context, code string) ([]*Match, error) {
	return s.matches.GetByDeckCode(ctx, code)
}

// GetStats retrieves statistics with optional filtering.
func (s *Service) GetStats(ctx context.Context, filter StatsFilter) (*Statistics, error) {
	return s.matches.GetStats(ctx, filter)
}

// GetRegionStats retrieves per-region results with optional filtering.
func (s *Service) GetRegionStats(ctx context.Context, filter StatsFilter) ([]*RegionStats, error) {
	return s.matches.GetRegionStats(ctx, filter)
}

// GetTopCards retrieves the most seen cards for one side.
func (s *Service) GetTopCards(ctx context.Context, side string, limit int) ([]*CardUsage, error) {
	return s.matches.GetTopCards(ctx, side, limit)
}

// GetDeck retrieves a deck record by code. Returns nil if not found.
func (s *Service) GetDeck(ctx context.Context, code string) (*Deck, error) {
	return s.decks.GetByCode(ctx, code)
}

// ListDecks retrieves deck records, most recently played first.
func (s *Service) ListDecks(ctx context.Context, limit int) ([]*Deck, error) {
	return s.decks.List(ctx, limit)
}

// GetLatestExpedition retrieves the newest expedition snapshot. Returns nil if none exists.
func (s *Service) GetLatestExpedition(ctx context.Context) (*ExpeditionSnapshot, error) {
	return s.expeditions.GetLatest(ctx)
}

// ListExpeditions retrieves recent expedition snapshots.
func (s *Service) ListExpeditions(ctx context.Context, limit int) ([]*ExpeditionSnapshot, error) {
	return s.expeditions.List(ctx, limit)
}

// ImportMatch stores a previously exported match and its cards.
func (s *Service) ImportMatch(ctx context.Context, m *Match, cards []*MatchCard) error {
	return s.matches.Create(ctx, m, cards)
}

// ImportDeck merges a previously exported deck record into the stored one.
func (s *Service) ImportDeck(ctx context.Context, d *Deck) error {
	return s.decks.Merge(ctx, d)
}

// Close closes the database connection.
func (s *Service) Close() error {
	return s.db.Close()
}
