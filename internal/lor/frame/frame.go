// Package frame classifies raw positional-rectangle snapshots from the game
// client into typed frames.
package frame

import (
	"encoding/json"
	"fmt"
)

const (
	// FaceCardCode marks the nexus/life-total rectangle, which is not a card.
	FaceCardCode = "face"

	// DefaultPlayerName is used when the snapshot carries no player name.
	DefaultPlayerName = "The Man With No Name"

	// GameStateMenus is the game state reported outside of a match.
	GameStateMenus = "Menus"

	// GameStateInProgress is the game state reported during a match.
	GameStateInProgress = "InProgress"
)

// Ownership tells which side a rectangle belongs to.
type Ownership int

const (
	OwnerUnknown Ownership = iota
	OwnerPlayer
	OwnerOpponent
)

func (o Ownership) String() string {
	switch o {
	case OwnerPlayer:
		return "player"
	case OwnerOpponent:
		return "opponent"
	default:
		return "unknown"
	}
}

// Rectangle is one card-shaped entity on screen. It only lives for one frame.
type Rectangle struct {
	CardID      int    `json:"cardId"`
	CardCode    string `json:"cardCode"`
	TopLeftX    int    `json:"topLeftX"`
	TopLeftY    int    `json:"topLeftY"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	LocalPlayer *bool  `json:"localPlayer,omitempty"`
}

// Owner returns OwnerPlayer or OwnerOpponent when the flag is set and
// OwnerUnknown when the snapshot did not carry it.
func (r Rectangle) Owner() Ownership {
	if r.LocalPlayer == nil {
		return OwnerUnknown
	}
	if *r.LocalPlayer {
		return OwnerPlayer
	}
	return OwnerOpponent
}

// IsPlayer reports whether the rectangle is explicitly flagged as the local player's.
func (r Rectangle) IsPlayer() bool {
	return r.LocalPlayer != nil && *r.LocalPlayer
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle(Card: %s, ID: %d, %s)", r.CardCode, r.CardID, r.Owner())
}

// Screen is the client window geometry.
type Screen struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GameFrame is one classified snapshot.
type GameFrame struct {
	Player     string      `json:"player"`
	Opponent   string      `json:"opponent"`
	GameState  string      `json:"gameState"`
	Screen     Screen      `json:"screen"`
	Rectangles []Rectangle `json:"rectangles"`

	// Dropped counts rectangles discarded for lacking a card code.
	Dropped int `json:"dropped"`

	// MissingIDs counts kept rectangles without a CardID. They all carry ID 0
	// and so dedupe as a single card per side.
	MissingIDs int `json:"missingIds"`
}

// ParseJSON decodes a raw snapshot body and classifies it.
func ParseJSON(data []byte) (*GameFrame, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return Parse(raw), nil
}

// Parse classifies a decoded snapshot. Missing fields take their documented
// defaults; a nil map yields an empty frame in the Menus state.
func Parse(raw map[string]interface{}) *GameFrame {
	f := &GameFrame{
		Player:     DefaultPlayerName,
		Opponent:   DefaultPlayerName,
		GameState:  GameStateMenus,
		Rectangles: []Rectangle{},
	}

	if name, ok := raw["PlayerName"].(string); ok {
		f.Player = name
	}
	if name, ok := raw["OpponentName"].(string); ok {
		f.Opponent = name
	}
	if state, ok := raw["GameState"].(string); ok {
		f.GameState = state
	}

	if screen, ok := raw["Screen"].(map[string]interface{}); ok {
		f.Screen = parseScreen(screen)
	}

	if rects, ok := raw["Rectangles"].([]interface{}); ok {
		for _, rectData := range rects {
			rectMap, ok := rectData.(map[string]interface{})
			if !ok {
				f.Dropped++
				continue
			}
			code, _ := rectMap["CardCode"].(string)
			if code == FaceCardCode {
				continue
			}
			if code == "" {
				f.Dropped++
				continue
			}
			if _, ok := rectMap["CardID"].(float64); !ok {
				f.MissingIDs++
			}
			f.Rectangles = append(f.Rectangles, parseRectangle(rectMap, code))
		}
	}

	return f
}

func parseScreen(screen map[string]interface{}) Screen {
	s := Screen{}
	if w, ok := screen["ScreenWidth"].(float64); ok {
		s.Width = int(w)
	}
	if h, ok := screen["ScreenHeight"].(float64); ok {
		s.Height = int(h)
	}
	return s
}

func parseRectangle(rectMap map[string]interface{}, code string) Rectangle {
	r := Rectangle{CardCode: code}

	if id, ok := rectMap["CardID"].(float64); ok {
		r.CardID = int(id)
	}
	if x, ok := rectMap["TopLeftX"].(float64); ok {
		r.TopLeftX = int(x)
	}
	if y, ok := rectMap["TopLeftY"].(float64); ok {
		r.TopLeftY = int(y)
	}
	if w, ok := rectMap["Width"].(float64); ok {
		r.Width = int(w)
	}
	if h, ok := rectMap["Height"].(float64); ok {
		r.Height = int(h)
	}
	if local, ok := rectMap["LocalPlayer"].(bool); ok {
		r.LocalPlayer = &local
	}

	return r
}

// PlayerRects returns the rectangles explicitly flagged as the local player's.
func (f *GameFrame) PlayerRects() []Rectangle {
	var rects []Rectangle
	for _, r := range f.Rectangles {
		if r.IsPlayer() {
			rects = append(rects, r)
		}
	}
	return rects
}

// OpponentRects returns every rectangle not explicitly flagged as the local
// player's, including those with no ownership flag at all.
func (f *GameFrame) OpponentRects() []Rectangle {
	var rects []Rectangle
	for _, r := range f.Rectangles {
		if !r.IsPlayer() {
			rects = append(rects, r)
		}
	}
	return rects
}

// InMatch reports whether the client is in a match.
func (f *GameFrame) InMatch() bool {
	return f.GameState != GameStateMenus
}
