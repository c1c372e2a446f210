// Package match tracks the cards played by both sides of one Legends of
// Runeterra match from a sequence of classified frames.
package match

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deck"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/frame"
)

// State is the lifecycle state of a Game.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ErrGameFinished is returned when a finished game is fed more frames or a
// second result.
var ErrGameFinished = errors.New("game already finished")

// RemovalPolicy decides what happens to the player's current deck when one of
// the player's cards is seen for the first time. The game calls it after the
// card has been added to the used-card deck.
type RemovalPolicy interface {
	OnPlayerCard(current *deck.Deck, rect frame.Rectangle, card cards.Card)
}

// RemovalPolicyFunc adapts a function to RemovalPolicy.
type RemovalPolicyFunc func(current *deck.Deck, rect frame.Rectangle, card cards.Card)

// OnPlayerCard calls f.
func (f RemovalPolicyFunc) OnPlayerCard(current *deck.Deck, rect frame.Rectangle, card cards.Card) {
	f(current, rect, card)
}

// KeepDeck leaves the current deck untouched.
type KeepDeck struct{}

// OnPlayerCard does nothing.
func (KeepDeck) OnPlayerCard(*deck.Deck, frame.Rectangle, cards.Card) {}

// Option configures a Game.
type Option func(*Game)

// WithRemovalPolicy sets the current-deck removal policy.
func WithRemovalPolicy(p RemovalPolicy) Option {
	return func(g *Game) {
		if p != nil {
			g.policy = p
		}
	}
}

// WithEncoder sets the deck code encoder used for the used-card decks.
func WithEncoder(enc deck.Encoder) Option {
	return func(g *Game) {
		g.encoder = enc
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

// WithID sets the game ID instead of generating one.
func WithID(id string) Option {
	return func(g *Game) {
		if id != "" {
			g.ID = id
		}
	}
}

// Game is the state of one match. It has a single writer: callers tracking
// several matches in parallel must serialize calls per Game.
type Game struct {
	ID       string
	Player   string
	Opponent string
	Screen   frame.Screen

	PlayerCardsUsed   *deck.Deck
	OpponentCardsUsed *deck.Deck
	InitialPlayerDeck *deck.Deck
	CurrentPlayerDeck *deck.Deck

	Result *Result

	StartedAt       time.Time
	EndedAt         time.Time
	FramesProcessed int

	state        State
	resolver     cards.Resolver
	policy       RemovalPolicy
	encoder      deck.Encoder
	now          func() time.Time
	seenPlayer   map[int]struct{}
	seenOpponent map[int]struct{}
}

// NewGame creates a game in the not-started state. The initial deck is a
// snapshot of playerDeck; a nil playerDeck yields empty decks.
func NewGame(player, opponent string, screen frame.Screen, playerDeck *deck.Deck, resolver cards.Resolver, opts ...Option) *Game {
	g := &Game{
		ID:           uuid.NewString(),
		Player:       player,
		Opponent:     opponent,
		Screen:       screen,
		resolver:     resolver,
		policy:       KeepDeck{},
		encoder:      deck.DefaultEncoder,
		now:          time.Now,
		seenPlayer:   make(map[int]struct{}),
		seenOpponent: make(map[int]struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}

	if playerDeck == nil {
		playerDeck = deck.Empty(g.encoder)
	}
	g.InitialPlayerDeck = playerDeck.Clone()
	g.CurrentPlayerDeck = playerDeck.Clone()
	g.PlayerCardsUsed = deck.Empty(g.encoder)
	g.OpponentCardsUsed = deck.Empty(g.encoder)

	return g
}

// State returns the lifecycle state.
func (g *Game) State() State {
	return g.state
}

// Update lists the cards first observed in one frame.
type Update struct {
	PlayerCards   []cards.Card
	OpponentCards []cards.Card
}

// Empty reports whether the frame revealed no new card.
func (u Update) Empty() bool {
	return len(u.PlayerCards) == 0 && len(u.OpponentCards) == 0
}

// ProcessFrame folds one frame into the game. Card instances already seen for
// a side are skipped, so replaying frames never inflates the used-card decks.
// Unknown card codes are tracked as code-only cards.
func (g *Game) ProcessFrame(f *frame.GameFrame) (Update, error) {
	var update Update

	if g.state == StateFinished {
		return update, ErrGameFinished
	}
	if f == nil {
		return update, nil
	}
	if g.state == StateNotStarted {
		g.state = StateInProgress
		g.StartedAt = g.now()
	}
	g.FramesProcessed++

	for _, rect := range f.PlayerRects() {
		if _, seen := g.seenPlayer[rect.CardID]; seen {
			continue
		}
		g.seenPlayer[rect.CardID] = struct{}{}

		card := g.resolve(rect.CardCode)
		g.PlayerCardsUsed.Add(card)
		g.policy.OnPlayerCard(g.CurrentPlayerDeck, rect, card)
		update.PlayerCards = append(update.PlayerCards, card)
	}

	for _, rect := range f.OpponentRects() {
		if _, seen := g.seenOpponent[rect.CardID]; seen {
			continue
		}
		g.seenOpponent[rect.CardID] = struct{}{}

		card := g.resolve(rect.CardCode)
		g.OpponentCardsUsed.Add(card)
		update.OpponentCards = append(update.OpponentCards, card)
	}

	return update, nil
}

func (g *Game) resolve(code string) cards.Card {
	if g.resolver == nil {
		return cards.Unknown(code)
	}
	return g.resolver.Resolve(code)
}

// Finish records the result and moves the game to the finished state.
func (g *Game) Finish(result Result) error {
	if g.state == StateFinished {
		return ErrGameFinished
	}
	if g.StartedAt.IsZero() {
		g.StartedAt = g.now()
	}
	g.Result = &result
	g.EndedAt = g.now()
	g.state = StateFinished
	return nil
}

// Duration returns the time between the first frame and the result, or the
// time elapsed so far while the game is in progress.
func (g *Game) Duration() time.Duration {
	switch g.state {
	case StateInProgress:
		return g.now().Sub(g.StartedAt)
	case StateFinished:
		return g.EndedAt.Sub(g.StartedAt)
	default:
		return 0
	}
}
