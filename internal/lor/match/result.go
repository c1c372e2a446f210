package match

import (
	"encoding/json"
	"fmt"
)

const (
	OutcomeNone = "No games played"
	OutcomeWin  = "Win"
	OutcomeLoss = "Loss"

	// NoGameID is reported by the client before any game has been played.
	NoGameID = -1
)

// Result is the payload of the client's game-result endpoint.
type Result struct {
	GameID         int  `json:"GameID"`
	LocalPlayerWon bool `json:"LocalPlayerWon"`
}

// ParseResult reads a decoded game-result payload. A missing GameID is
// treated as NoGameID.
func ParseResult(raw map[string]interface{}) Result {
	r := Result{GameID: NoGameID}
	if id, ok := raw["GameID"].(float64); ok {
		r.GameID = int(id)
	}
	if won, ok := raw["LocalPlayerWon"].(bool); ok {
		r.LocalPlayerWon = won
	}
	return r
}

// Played reports whether the result refers to an actual game.
func (r Result) Played() bool {
	return r.GameID != NoGameID
}

// Outcome returns "No games played", "Win" or "Loss".
func (r Result) Outcome() string {
	switch {
	case !r.Played():
		return OutcomeNone
	case r.LocalPlayerWon:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

func (r Result) String() string {
	return fmt.Sprintf("Game %d: %s", r.GameID, r.Outcome())
}

// MarshalSummary renders the result as {"game_id": ..., "result": ...},
// indented when pretty is set.
func (r Result) MarshalSummary(pretty bool) ([]byte, error) {
	data := map[string]interface{}{
		"game_id": r.GameID,
		"result":  r.Outcome(),
	}
	if pretty {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}
