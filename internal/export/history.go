package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

// HistoryVersion is the current history document version.
const HistoryVersion = 1

// MatchRecord is a stored match with the cards seen in it.
type MatchRecord struct {
	Match *storage.Match       `json:"match"`
	Cards []*storage.MatchCard `json:"cards"`
}

// History is the exported match history.
type History struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Matches    []MatchRecord   `json:"matches"`
	Decks      []*storage.Deck `json:"decks"`
}

// HistorySource reads the stored history.
type HistorySource interface {
	GetRecentMatches(ctx context.Context, limit int) ([]*storage.Match, error)
	GetMatch(ctx context.Context, id string) (*storage.Match, []*storage.MatchCard, error)
	ListDecks(ctx context.Context, limit int) ([]*storage.Deck, error)
}

// HistorySink stores an imported history.
type HistorySink interface {
	GetMatch(ctx context.Context, id string) (*storage.Match, []*storage.MatchCard, error)
	ImportMatch(ctx context.Context, m *storage.Match, cards []*storage.MatchCard) error
	ImportDeck(ctx context.Context, d *storage.Deck) error
}

// BuildHistory collects up to limit recent matches and every deck record.
func BuildHistory(ctx context.Context, source HistorySource, limit int) (*History, error) {
	matches, err := source.GetRecentMatches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	history := &History{
		Version:    HistoryVersion,
		ExportedAt: time.Now().UTC(),
		Matches:    make([]MatchRecord, 0, len(matches)),
	}

	for _, m := range matches {
		_, cards, err := source.GetMatch(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read cards for match %s: %w", m.ID, err)
		}
		history.Matches = append(history.Matches, MatchRecord{Match: m, Cards: cards})
	}

	history.Decks, err = source.ListDecks(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read decks: %w", err)
	}
	if history.Decks == nil {
		history.Decks = []*storage.Deck{}
	}

	return history, nil
}

// WriteHistory encodes the history as JSON.
func WriteHistory(w io.Writer, history *History, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(history); err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return nil
}

// ReadHistory decodes a JSON history.
func ReadHistory(r io.Reader) (*History, error) {
	var history History
	if err := json.NewDecoder(r).Decode(&history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if history.Version > HistoryVersion {
		return nil, fmt.Errorf("unsupported history version %d", history.Version)
	}
	return &history, nil
}

// ImportResult counts what an import stored.
type ImportResult struct {
	Matches int
	Decks   int
	Skipped int
}

// Import stores every match and deck of the history. Matches whose ID is
// already stored, and records without a match, are skipped. Any other store
// failure stops the import.
func Import(ctx context.Context, sink HistorySink, history *History) (*ImportResult, error) {
	result := &ImportResult{}

	for _, record := range history.Matches {
		if record.Match == nil {
			result.Skipped++
			continue
		}
		existing, _, err := sink.GetMatch(ctx, record.Match.ID)
		if err != nil {
			return result, fmt.Errorf("failed to check match %s: %w", record.Match.ID, err)
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		if err := sink.ImportMatch(ctx, record.Match, record.Cards); err != nil {
			return result, fmt.Errorf("failed to import match %s: %w", record.Match.ID, err)
		}
		result.Matches++
	}

	for _, d := range history.Decks {
		if err := sink.ImportDeck(ctx, d); err != nil {
			return result, fmt.Errorf("failed to import deck %s: %w", d.Code, err)
		}
		result.Decks++
	}

	return result, nil
}
