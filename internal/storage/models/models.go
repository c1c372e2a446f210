package models

import "time"

// Match results stored in matches.result.
const (
	ResultWin     = "win"
	ResultLoss    = "loss"
	ResultUnknown = "unknown"
)

// Card sides stored in match_cards.side.
const (
	SidePlayer   = "player"
	SideOpponent = "opponent"
)

// Match represents one finished Legends of Runeterra game.
type Match struct {
	ID                string
	GameID            int // client-side game counter, -1 when unknown
	Player            string
	Opponent          string
	Result            string  // "win", "loss" or "unknown"
	DeckCode          *string // Nullable: deck the player entered with
	OpponentDeckCode  *string // Nullable: code of the opponent cards seen
	PlayerRegions     []string
	OpponentRegions   []string
	PlayerCardsUsed   int
	OpponentCardsUsed int
	ScreenWidth       int
	ScreenHeight      int
	Frames            int
	StartedAt         time.Time
	EndedAt           *time.Time // Nullable
	DurationSeconds   int
	CreatedAt         time.Time
}

// MatchCard is one card code seen for one side of a match.
type MatchCard struct {
	ID       int
	MatchID  string
	Side     string // "player" or "opponent"
	CardCode string
	Quantity int
}

// Deck is a deck identified by its deck code. Its record accumulates across
// every match played with the same composition.
type Deck struct {
	Code        string
	Regions     []string
	Champions   []string
	CardCount   int
	Wins        int
	Losses      int
	FirstPlayed time.Time
	LastPlayed  time.Time
}

// WinRate returns wins / (wins + losses), or 0 when no game was recorded.
func (d *Deck) WinRate() float64 {
	total := d.Wins + d.Losses
	if total == 0 {
		return 0
	}
	return float64(d.Wins) / float64(total)
}

// ExpeditionSnapshot is one stored expedition status.
type ExpeditionSnapshot struct {
	ID          int
	IsActive    bool
	State       string
	Record      []string
	DraftPicks  string // JSON array of picks
	Deck        []string
	GamesPlayed int
	Wins        int
	Losses      int
	CapturedAt  time.Time
}

// StatsFilter narrows match statistics queries.
type StatsFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	DeckCode  *string
	Opponent  *string
	Result    *string // "win" or "loss"
}

// Statistics represents aggregated statistics.
type Statistics struct {
	TotalMatches int
	MatchesWon   int
	MatchesLost  int
	WinRate      float64
	AvgDuration  float64 // seconds
}

// RegionStats aggregates matches by player region.
type RegionStats struct {
	Region  string
	Matches int
	Wins    int
	Losses  int
	WinRate float64
}

// CardUsage counts how often a card was seen for one side.
type CardUsage struct {
	CardCode string
	Side     string
	Matches  int
	Copies   int
}
