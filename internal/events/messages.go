package events

import (
	"github.com/ramonehamilton/LoR-Companion/internal/lor/expedition"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
)

// Event types emitted by the tracker.
const (
	TypeMatchStarted      = "match:started"
	TypeMatchUpdated      = "match:updated"
	TypeMatchEnded        = "match:ended"
	TypeExpeditionUpdated = "expedition:updated"
	TypeCatalogReloaded   = "catalog:reloaded"
	TypeTrackerError      = "tracker:error"
)

// MatchStartedEvent is the payload for match:started events.
type MatchStartedEvent struct {
	GameID   string `json:"gameId"`
	Player   string `json:"player"`
	Opponent string `json:"opponent"`
	DeckCode string `json:"deckCode,omitempty"`
}

// MatchUpdatedEvent is the payload for match:updated events.
// Sent when a frame reveals cards not seen before.
type MatchUpdatedEvent struct {
	GameID           string   `json:"gameId"`
	NewPlayerCards   []string `json:"newPlayerCards"`
	NewOpponentCards []string `json:"newOpponentCards"`
	PlayerCardsUsed  int      `json:"playerCardsUsed"`
	OpponentUsed     int      `json:"opponentCardsUsed"`
}

// MatchEndedEvent is the payload for match:ended events.
type MatchEndedEvent struct {
	Snapshot match.Snapshot `json:"snapshot"`
	Saved    bool           `json:"saved"`
}

// ExpeditionUpdatedEvent is the payload for expedition:updated events.
type ExpeditionUpdatedEvent struct {
	State *expedition.State `json:"state"`
}

// CatalogReloadedEvent is the payload for catalog:reloaded events.
type CatalogReloadedEvent struct {
	Cards   int `json:"cards"`
	Skipped int `json:"skipped"`
}

// TrackerErrorEvent is the payload for tracker:error events.
type TrackerErrorEvent struct {
	Stage   string `json:"stage"` // "poll", "decklist", "result", "save"
	Message string `json:"message"`
}
