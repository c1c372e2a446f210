// Package tracker follows the game client through the local API and turns
// its frames into tracked games.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/events"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/client"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deck"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deckcode"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/expedition"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/frame"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
	"github.com/ramonehamilton/LoR-Companion/internal/metrics"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

// Source is the game client's local API.
type Source interface {
	GetPositionalRectangles(ctx context.Context) (*frame.GameFrame, error)
	GetStaticDecklist(ctx context.Context) (*client.Decklist, error)
	GetExpeditionsState(ctx context.Context) (*expedition.State, error)
	GetGameResult(ctx context.Context) (match.Result, error)
}

// Store persists finished games and expedition snapshots.
type Store interface {
	SaveMatch(ctx context.Context, snap match.Snapshot) (*storage.Match, error)
	SaveExpedition(ctx context.Context, state *expedition.State) (*storage.ExpeditionSnapshot, error)
}

// Config configures the tracker service.
type Config struct {
	Source   Source
	Resolver cards.Resolver

	// Optional collaborators.
	Store         Store
	Dispatcher    *events.EventDispatcher
	Metrics       *metrics.TrackerMetrics
	Logger        *slog.Logger
	RemovalPolicy match.RemovalPolicy

	PollInterval       time.Duration // default: 1s
	ExpeditionInterval time.Duration // default: 10s
	RequestTimeout     time.Duration // default: 5s

	Now func() time.Time
}

// Status describes the polling loop.
type Status struct {
	Running   bool      `json:"running"`
	InMatch   bool      `json:"inMatch"`
	LastPoll  time.Time `json:"lastPoll,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Service owns the current game. Only the polling goroutine mutates it;
// readers get snapshots under mu.
type Service struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics.TrackerMetrics

	mu             sync.RWMutex
	game           *match.Game
	lastGame       *match.Snapshot
	expedition     *expedition.State
	lastExpedition time.Time
	status         Status

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates a tracker service.
func New(config Config) (*Service, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewTrackerMetrics()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.ExpeditionInterval <= 0 {
		config.ExpeditionInterval = 10 * time.Second
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 5 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Service{
		config:  config,
		logger:  config.Logger,
		metrics: config.Metrics,
		stopCh:  make(chan struct{}),
	}, nil
}

// Metrics returns the metrics collector.
func (s *Service) Metrics() *metrics.TrackerMetrics {
	return s.metrics
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	s.setRunning(true)

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Tracker started", "pollInterval", s.config.PollInterval)
}

// Stop stops the polling loop and waits for it to exit. A game in progress
// is discarded.
func (s *Service) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()
	defer s.setRunning(false)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		// Failed polls are logged and counted; the session continues.
		_ = s.Poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) setRunning(running bool) {
	s.mu.Lock()
	s.status.Running = running
	s.mu.Unlock()
}

func (s *Service) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.RequestTimeout)
}

// Poll fetches one frame and advances the session. It must not be called
// concurrently.
func (s *Service) Poll(ctx context.Context) error {
	start := time.Now()
	reqCtx, cancel := s.requestContext(ctx)
	f, err := s.config.Source.GetPositionalRectangles(reqCtx)
	cancel()
	s.metrics.RecordPoll(time.Since(start), err)

	s.mu.Lock()
	s.status.LastPoll = s.config.Now()
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("Poll failed", "error", err)
		s.dispatch(ctx, events.TypeTrackerError, events.TrackerErrorEvent{Stage: "poll", Message: err.Error()})
		return err
	}

	if f.InMatch() {
		s.mu.RLock()
		inGame := s.game != nil
		s.mu.RUnlock()

		if !inGame {
			s.startGame(ctx, f)
		}
		s.processFrame(ctx, f)
		return nil
	}

	s.endGame(ctx)
	s.pollExpedition(ctx)
	return nil
}

// playerDeck builds the deck the player entered the match with. A failed
// fetch yields an empty deck.
func (s *Service) playerDeck(ctx context.Context) *deck.Deck {
	reqCtx, cancel := s.requestContext(ctx)
	defer cancel()

	decklist, err := s.config.Source.GetStaticDecklist(reqCtx)
	if err != nil {
		s.logger.Warn("Failed to fetch decklist", "error", err)
		s.dispatch(ctx, events.TypeTrackerError, events.TrackerErrorEvent{Stage: "decklist", Message: err.Error()})
		return nil
	}
	if decklist.Empty() {
		return nil
	}

	counts := decklist.CardsInDeck
	if len(counts) == 0 {
		decoded, err := deckcode.Decode(decklist.DeckCode)
		if err != nil {
			s.logger.Warn("Failed to decode deck code", "deckCode", decklist.DeckCode, "error", err)
			return nil
		}
		counts = make(map[string]int, len(decoded))
		for _, entry := range decoded {
			counts[entry.CardCode] += int(entry.Count)
		}
	}

	return deck.FromCounts(counts, s.config.Resolver, 0, 0, deck.DefaultEncoder)
}

func (s *Service) startGame(ctx context.Context, f *frame.GameFrame) {
	playerDeck := s.playerDeck(ctx)

	opts := []match.Option{match.WithClock(s.config.Now)}
	if s.config.RemovalPolicy != nil {
		opts = append(opts, match.WithRemovalPolicy(s.config.RemovalPolicy))
	}
	g := match.NewGame(f.Player, f.Opponent, f.Screen, playerDeck, s.config.Resolver, opts...)

	s.mu.Lock()
	s.game = g
	s.status.InMatch = true
	s.mu.Unlock()

	s.metrics.MatchesStarted.Add(1)
	code, _ := g.InitialPlayerDeck.Code()
	s.logger.Info("Match started", "gameID", g.ID, "player", g.Player, "opponent", g.Opponent, "deckCode", code)
	s.dispatch(ctx, events.TypeMatchStarted, events.MatchStartedEvent{
		GameID:   g.ID,
		Player:   g.Player,
		Opponent: g.Opponent,
		DeckCode: code,
	})
}

func (s *Service) processFrame(ctx context.Context, f *frame.GameFrame) {
	start := time.Now()

	s.mu.Lock()
	g := s.game
	update, err := g.ProcessFrame(f)
	playerUsed, opponentUsed := g.PlayerCardsUsed.Size(), g.OpponentCardsUsed.Size()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Failed to process frame", "gameID", g.ID, "error", err)
		return
	}
	s.metrics.RecordFrame(time.Since(start), f.Dropped, len(update.PlayerCards), len(update.OpponentCards))
	if f.MissingIDs > 0 {
		s.logger.Debug("Rectangles without a card ID share one dedup key", "gameID", g.ID, "count", f.MissingIDs)
	}

	if update.Empty() {
		return
	}

	s.logger.Debug("New cards observed", "gameID", g.ID,
		"player", len(update.PlayerCards), "opponent", len(update.OpponentCards))
	s.dispatch(ctx, events.TypeMatchUpdated, events.MatchUpdatedEvent{
		GameID:           g.ID,
		NewPlayerCards:   codes(update.PlayerCards),
		NewOpponentCards: codes(update.OpponentCards),
		PlayerCardsUsed:  playerUsed,
		OpponentUsed:     opponentUsed,
	})
}

func codes(cardList []cards.Card) []string {
	out := make([]string, 0, len(cardList))
	for _, c := range cardList {
		out = append(out, c.CardCode)
	}
	return out
}

func (s *Service) endGame(ctx context.Context) {
	s.mu.RLock()
	g := s.game
	s.mu.RUnlock()
	if g == nil {
		return
	}

	reqCtx, cancel := s.requestContext(ctx)
	result, err := s.config.Source.GetGameResult(reqCtx)
	cancel()
	if err != nil {
		s.logger.Warn("Failed to fetch game result", "gameID", g.ID, "error", err)
		s.dispatch(ctx, events.TypeTrackerError, events.TrackerErrorEvent{Stage: "result", Message: err.Error()})
		result = match.Result{GameID: match.NoGameID}
	}

	s.mu.Lock()
	if err := g.Finish(result); err != nil {
		s.logger.Warn("Failed to finish game", "gameID", g.ID, "error", err)
	}
	snap := g.Snapshot()
	s.game = nil
	s.lastGame = &snap
	s.status.InMatch = false
	s.mu.Unlock()

	s.metrics.MatchesEnded.Add(1)
	s.logger.Info("Match ended", "gameID", snap.ID, "outcome", snap.Outcome,
		"duration", snap.DurationSeconds, "playerCards", snap.PlayerUsed.Size, "opponentCards", snap.OpponentUsed.Size)

	saved := false
	if s.config.Store != nil {
		if _, err := s.config.Store.SaveMatch(ctx, snap); err != nil {
			s.metrics.SaveErrors.Add(1)
			s.logger.Error("Failed to save match", "gameID", snap.ID, "error", err)
			s.dispatch(ctx, events.TypeTrackerError, events.TrackerErrorEvent{Stage: "save", Message: err.Error()})
		} else {
			saved = true
		}
	}

	s.dispatch(ctx, events.TypeMatchEnded, events.MatchEndedEvent{Snapshot: snap, Saved: saved})
}

func (s *Service) pollExpedition(ctx context.Context) {
	now := s.config.Now()

	s.mu.RLock()
	due := s.lastExpedition.IsZero() || now.Sub(s.lastExpedition) >= s.config.ExpeditionInterval
	previous := s.expedition
	s.mu.RUnlock()
	if !due {
		return
	}

	reqCtx, cancel := s.requestContext(ctx)
	state, err := s.config.Source.GetExpeditionsState(reqCtx)
	cancel()

	s.mu.Lock()
	s.lastExpedition = now
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("Failed to fetch expedition state", "error", err)
		return
	}
	if previous != nil && previous.Equal(state) {
		return
	}

	s.mu.Lock()
	s.expedition = state
	s.mu.Unlock()

	s.logger.Info("Expedition updated", "state", state.State, "games", state.GamesPlayed)

	if s.config.Store != nil {
		if _, err := s.config.Store.SaveExpedition(ctx, state); err != nil {
			s.metrics.SaveErrors.Add(1)
			s.logger.Error("Failed to save expedition", "error", err)
		}
	}
	s.dispatch(ctx, events.TypeExpeditionUpdated, events.ExpeditionUpdatedEvent{State: state})
}

func (s *Service) dispatch(ctx context.Context, eventType string, data interface{}) {
	if s.config.Dispatcher == nil {
		return
	}
	s.config.Dispatcher.Dispatch(events.NewTypedEvent(ctx, eventType, data))
}

// CurrentGame returns a snapshot of the game in progress.
func (s *Service) CurrentGame() (match.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.game == nil {
		return match.Snapshot{}, false
	}
	return s.game.Snapshot(), true
}

// LastGame returns the most recently finished game.
func (s *Service) LastGame() (match.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastGame == nil {
		return match.Snapshot{}, false
	}
	return *s.lastGame, true
}

// Expedition returns the last expedition state seen.
func (s *Service) Expedition() *expedition.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expedition
}

// Status returns the polling loop status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
