// Package expedition reads the Expedition game mode status reported by the
// game client.
package expedition

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deck"
)

// StateInactive is reported when no expedition run exists.
const StateInactive = "Inactive"

// DraftPick is one pick or swap made while drafting.
type DraftPick struct {
	IsSwap     bool     `json:"isSwap"`
	IsUpgrade  bool     `json:"isUpgrade"`
	CardCodes  []string `json:"cardCodes"`
	SwappedOut []string `json:"swappedOut,omitempty"`
	SwappedIn  []string `json:"swappedIn,omitempty"`
}

// State is one expedition status snapshot. Fields are stored as reported;
// no consistency between them is checked.
type State struct {
	IsActive    bool        `json:"isActive"`
	State       string      `json:"state"`
	Record      []string    `json:"record"`
	DraftPicks  []DraftPick `json:"draftPicks"`
	DeckCodes   []string    `json:"deck"`
	GamesPlayed int         `json:"gamesPlayed"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
}

// ParseJSON decodes an expeditions-state body.
func ParseJSON(data []byte) (*State, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode expedition state: %w", err)
	}
	return Parse(raw), nil
}

// Parse reads a decoded expeditions-state payload. Missing fields default to
// inactive, empty lists and zero counters.
func Parse(raw map[string]interface{}) *State {
	s := &State{
		State:      StateInactive,
		Record:     []string{},
		DraftPicks: []DraftPick{},
		DeckCodes:  []string{},
	}

	if active, ok := raw["IsActive"].(bool); ok {
		s.IsActive = active
	}
	if state, ok := raw["State"].(string); ok {
		s.State = state
	}
	s.Record = append(s.Record, stringList(raw["Record"])...)
	s.DeckCodes = append(s.DeckCodes, stringList(raw["Deck"])...)

	if picks, ok := raw["DraftPicks"].([]interface{}); ok {
		for _, p := range picks {
			if pickMap, ok := p.(map[string]interface{}); ok {
				s.DraftPicks = append(s.DraftPicks, parseDraftPick(pickMap))
			}
		}
	}

	if games, ok := raw["Games"].(float64); ok {
		s.GamesPlayed = int(games)
	}
	if wins, ok := raw["Wins"].(float64); ok {
		s.Wins = int(wins)
	}
	if losses, ok := raw["Losses"].(float64); ok {
		s.Losses = int(losses)
	}

	return s
}

func parseDraftPick(m map[string]interface{}) DraftPick {
	p := DraftPick{
		CardCodes:  stringList(m["CardCodes"]),
		SwappedOut: stringList(m["SwappedOut"]),
		SwappedIn:  stringList(m["SwappedIn"]),
	}
	if swap, ok := m["IsSwap"].(bool); ok {
		p.IsSwap = swap
	}
	if upgrade, ok := m["IsUpgrade"].(bool); ok {
		p.IsUpgrade = upgrade
	}
	return p
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// BuildDeck turns the reported card code list into a deck carrying the run's
// record. Every occurrence of a code counts as one copy.
func (s *State) BuildDeck(resolver cards.Resolver, enc deck.Encoder) *deck.Deck {
	counts := make(map[string]int, len(s.DeckCodes))
	for _, code := range s.DeckCodes {
		counts[code]++
	}
	return deck.FromCounts(counts, resolver, s.Wins, s.Losses, enc)
}

// Equal reports whether two snapshots carry the same data.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	return reflect.DeepEqual(s, other)
}

func (s *State) String() string {
	return fmt.Sprintf("Expedition(State: %s, Games Played: %d)", s.State, s.GamesPlayed)
}
