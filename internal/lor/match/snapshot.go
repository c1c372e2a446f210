package match

import (
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/deck"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/frame"
)

// DeckSummary is a read-only view of a deck.
type DeckSummary struct {
	Code      string       `json:"code,omitempty"`
	Entries   []deck.Entry `json:"entries"`
	Size      int          `json:"size"`
	Regions   []string     `json:"regions"`
	Champions []string     `json:"champions"`
}

// Summarize builds a DeckSummary. A nil deck yields an empty summary.
func Summarize(d *deck.Deck) DeckSummary {
	s := DeckSummary{
		Entries:   []deck.Entry{},
		Regions:   []string{},
		Champions: []string{},
	}
	if d == nil {
		return s
	}

	s.Code, _ = d.Code()
	s.Entries = d.Entries()
	s.Size = d.Size()
	s.Regions = append(s.Regions, d.Regions()...)
	for _, c := range d.Champions() {
		s.Champions = append(s.Champions, c.CardCode)
	}
	return s
}

// Snapshot is an immutable copy of a game's state for presentation and
// storage.
type Snapshot struct {
	ID              string       `json:"id"`
	State           string       `json:"state"`
	Player          string       `json:"player"`
	Opponent        string       `json:"opponent"`
	Screen          frame.Screen `json:"screen"`
	PlayerUsed      DeckSummary  `json:"playerUsed"`
	OpponentUsed    DeckSummary  `json:"opponentUsed"`
	InitialDeck     DeckSummary  `json:"initialDeck"`
	CurrentDeck     DeckSummary  `json:"currentDeck"`
	Result          *Result      `json:"result,omitempty"`
	Outcome         string       `json:"outcome"`
	StartedAt       time.Time    `json:"startedAt"`
	EndedAt         time.Time    `json:"endedAt,omitempty"`
	DurationSeconds int          `json:"durationSeconds"`
	FramesProcessed int          `json:"framesProcessed"`
}

// Snapshot copies the game's current state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		ID:              g.ID,
		State:           g.state.String(),
		Player:          g.Player,
		Opponent:        g.Opponent,
		Screen:          g.Screen,
		PlayerUsed:      Summarize(g.PlayerCardsUsed),
		OpponentUsed:    Summarize(g.OpponentCardsUsed),
		InitialDeck:     Summarize(g.InitialPlayerDeck),
		CurrentDeck:     Summarize(g.CurrentPlayerDeck),
		Outcome:         OutcomeNone,
		StartedAt:       g.StartedAt,
		EndedAt:         g.EndedAt,
		DurationSeconds: int(g.Duration().Seconds()),
		FramesProcessed: g.FramesProcessed,
	}

	if g.Result != nil {
		result := *g.Result
		s.Result = &result
		s.Outcome = result.Outcome()
	}
	return s
}
