package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/events"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/client"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/expedition"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/frame"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

type fakeSource struct {
	mu sync.Mutex

	frames    []*frame.GameFrame
	frameErr  error
	decklist  *client.Decklist
	result    match.Result
	resultErr error
	state     *expedition.State

	expeditionCalls int
}

func (f *fakeSource) GetPositionalRectangles(context.Context) (*frame.GameFrame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.frameErr != nil {
		return nil, f.frameErr
	}
	next := f.frames[0]
	if len(f.frames) > 1 {
		f.frames = f.frames[1:]
	}
	return next, nil
}

func (f *fakeSource) GetStaticDecklist(context.Context) (*client.Decklist, error) {
	return f.decklist, nil
}

func (f *fakeSource) GetExpeditionsState(context.Context) (*expedition.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expeditionCalls++
	return f.state, nil
}

func (f *fakeSource) GetGameResult(context.Context) (match.Result, error) {
	return f.result, f.resultErr
}

type fakeStore struct {
	matches     []match.Snapshot
	expeditions []*expedition.State
	err         error
}

func (s *fakeStore) SaveMatch(_ context.Context, snap match.Snapshot) (*storage.Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.matches = append(s.matches, snap)
	return &storage.Match{ID: snap.ID}, nil
}

func (s *fakeStore) SaveExpedition(_ context.Context, state *expedition.State) (*storage.ExpeditionSnapshot, error) {
	s.expeditions = append(s.expeditions, state)
	return &storage.ExpeditionSnapshot{State: state.State}, nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) observer() events.Observer {
	return &events.FuncObserver{Name: "recorder", Fn: func(e events.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	}}
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) find(eventType string) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == eventType {
			return e, true
		}
	}
	return events.Event{}, false
}

func menus() *frame.GameFrame {
	return &frame.GameFrame{GameState: frame.GameStateMenus}
}

func inGame(rects ...frame.Rectangle) *frame.GameFrame {
	return &frame.GameFrame{
		Player:     "Me",
		Opponent:   "Them",
		GameState:  frame.GameStateInProgress,
		Screen:     frame.Screen{Width: 1920, Height: 1080},
		Rectangles: rects,
	}
}

func rect(id int, code string, local bool) frame.Rectangle {
	return frame.Rectangle{CardID: id, CardCode: code, LocalPlayer: &local}
}

func testResolver() cards.Resolver {
	return cards.NewCatalog([]map[string]interface{}{
		{"cardCode": "01SI001", "name": "Shark Chariot", "rarity": "Common", "regions": []interface{}{"Shadow Isles"}},
		{"cardCode": "01NX002", "name": "Legion Grenadier", "rarity": "Common", "regions": []interface{}{"Noxus"}},
	})
}

func newTestService(t *testing.T, source *fakeSource, store Store, rec *recorder) *Service {
	t.Helper()

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(rec.observer())

	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	svc, err := New(Config{
		Source:     source,
		Resolver:   testResolver(),
		Store:      store,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without a source")
	}
}

func TestService_GameLifecycle(t *testing.T) {
	source := &fakeSource{
		frames: []*frame.GameFrame{
			menus(),
			inGame(rect(1, "01SI001", true), rect(2, "01NX002", false)),
			inGame(rect(1, "01SI001", true), rect(2, "01NX002", false), rect(3, "01NX002", false)),
			menus(),
		},
		decklist: &client.Decklist{CardsInDeck: map[string]int{"01SI001": 3}},
		result:   match.Result{GameID: 7, LocalPlayerWon: true},
		state:    &expedition.State{IsActive: true, State: "Picking"},
	}
	store := &fakeStore{}
	rec := &recorder{}
	svc := newTestService(t, source, store, rec)
	ctx := context.Background()

	// Menus: the expedition state is fetched and stored.
	if err := svc.Poll(ctx); err != nil {
		t.Fatalf("unexpected poll error: %v", err)
	}
	if len(store.expeditions) != 1 {
		t.Errorf("expected 1 stored expedition, got %d", len(store.expeditions))
	}
	if svc.Expedition() == nil || svc.Expedition().State != "Picking" {
		t.Errorf("expected Picking expedition, got %+v", svc.Expedition())
	}
	if _, ok := svc.CurrentGame(); ok {
		t.Error("expected no game in menus")
	}

	// First in-match frame starts the game.
	if err := svc.Poll(ctx); err != nil {
		t.Fatalf("unexpected poll error: %v", err)
	}
	current, ok := svc.CurrentGame()
	if !ok {
		t.Fatal("expected a game in progress")
	}
	if current.InitialDeck.Size != 3 {
		t.Errorf("expected initial deck of 3, got %d", current.InitialDeck.Size)
	}
	if current.PlayerUsed.Size != 1 || current.OpponentUsed.Size != 1 {
		t.Errorf("expected 1 card per side, got %d and %d", current.PlayerUsed.Size, current.OpponentUsed.Size)
	}
	if !svc.Status().InMatch {
		t.Error("expected status to report a match")
	}

	if err := svc.Poll(ctx); err != nil {
		t.Fatalf("unexpected poll error: %v", err)
	}
	current, _ = svc.CurrentGame()
	if current.OpponentUsed.Size != 2 {
		t.Errorf("expected 2 opponent cards, got %d", current.OpponentUsed.Size)
	}

	// Back to menus: the game ends and is saved.
	if err := svc.Poll(ctx); err != nil {
		t.Fatalf("unexpected poll error: %v", err)
	}
	if _, ok := svc.CurrentGame(); ok {
		t.Error("expected no game after returning to menus")
	}
	if len(store.matches) != 1 {
		t.Fatalf("expected 1 saved match, got %d", len(store.matches))
	}
	saved := store.matches[0]
	if saved.Outcome != match.OutcomeWin {
		t.Errorf("expected outcome %s, got %s", match.OutcomeWin, saved.Outcome)
	}
	if saved.FramesProcessed != 2 {
		t.Errorf("expected 2 frames, got %d", saved.FramesProcessed)
	}
	last, ok := svc.LastGame()
	if !ok || last.ID != saved.ID {
		t.Error("expected the last game to be the saved one")
	}

	// The expedition interval has not elapsed on the frozen clock.
	if source.expeditionCalls != 1 {
		t.Errorf("expected 1 expedition fetch, got %d", source.expeditionCalls)
	}

	want := []string{
		events.TypeExpeditionUpdated,
		events.TypeMatchStarted,
		events.TypeMatchUpdated,
		events.TypeMatchUpdated,
		events.TypeMatchEnded,
	}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	e, _ := rec.find(events.TypeMatchEnded)
	ended, ok := events.GetTypedData[events.MatchEndedEvent](e)
	if !ok {
		t.Fatal("expected MatchEndedEvent payload")
	}
	if !ended.Saved {
		t.Error("expected the match to be reported as saved")
	}

	stats := svc.Metrics().GetStats()
	if stats.Polls != 4 || stats.Frames != 2 {
		t.Errorf("expected 4 polls and 2 frames, got %d and %d", stats.Polls, stats.Frames)
	}
	if stats.OpponentCards != 2 || stats.MatchesStarted != 1 || stats.MatchesEnded != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestService_PollError(t *testing.T) {
	source := &fakeSource{frameErr: errors.New("connection refused")}
	rec := &recorder{}
	svc := newTestService(t, source, nil, rec)

	if err := svc.Poll(context.Background()); err == nil {
		t.Fatal("expected poll error")
	}
	if svc.Status().LastError != "connection refused" {
		t.Errorf("expected last error to be recorded, got %q", svc.Status().LastError)
	}
	if svc.Metrics().GetStats().PollErrors != 1 {
		t.Error("expected 1 poll error")
	}

	e, ok := rec.find(events.TypeTrackerError)
	if !ok {
		t.Fatal("expected a tracker:error event")
	}
	payload, _ := events.GetTypedData[events.TrackerErrorEvent](e)
	if payload.Stage != "poll" {
		t.Errorf("expected stage poll, got %s", payload.Stage)
	}
}

func TestService_ResultAndSaveFailures(t *testing.T) {
	source := &fakeSource{
		frames:    []*frame.GameFrame{inGame(rect(1, "01SI001", true)), menus()},
		decklist:  &client.Decklist{},
		resultErr: errors.New("timeout"),
		state:     &expedition.State{State: expedition.StateInactive},
	}
	store := &fakeStore{err: errors.New("disk full")}
	rec := &recorder{}
	svc := newTestService(t, source, store, rec)
	ctx := context.Background()

	_ = svc.Poll(ctx)
	_ = svc.Poll(ctx)

	last, ok := svc.LastGame()
	if !ok {
		t.Fatal("expected a finished game")
	}
	if last.Outcome != match.OutcomeNone {
		t.Errorf("expected outcome %q, got %q", match.OutcomeNone, last.Outcome)
	}
	if last.InitialDeck.Size != 0 {
		t.Errorf("expected an empty initial deck, got %d", last.InitialDeck.Size)
	}
	if svc.Metrics().GetStats().SaveErrors != 1 {
		t.Error("expected 1 save error")
	}

	e, ok := rec.find(events.TypeMatchEnded)
	if !ok {
		t.Fatal("expected a match:ended event")
	}
	ended, _ := events.GetTypedData[events.MatchEndedEvent](e)
	if ended.Saved {
		t.Error("expected the match to be reported as unsaved")
	}
}

func TestService_DeckCodeFallback(t *testing.T) {
	source := &fakeSource{
		frames:   []*frame.GameFrame{inGame()},
		decklist: &client.Decklist{DeckCode: "CEAQCAIFAEAAA"},
	}
	svc := newTestService(t, source, nil, &recorder{})

	if err := svc.Poll(context.Background()); err != nil {
		t.Fatalf("unexpected poll error: %v", err)
	}
	current, ok := svc.CurrentGame()
	if !ok {
		t.Fatal("expected a game in progress")
	}
	if current.InitialDeck.Size != 3 {
		t.Errorf("expected 3 cards decoded from the deck code, got %d", current.InitialDeck.Size)
	}
	if current.InitialDeck.Code != "CEAQCAIFAEAAA" {
		t.Errorf("expected deck code CEAQCAIFAEAAA, got %s", current.InitialDeck.Code)
	}
}

func TestService_StartStop(t *testing.T) {
	source := &fakeSource{frames: []*frame.GameFrame{menus()}, state: &expedition.State{}}
	dispatcher := events.NewEventDispatcher()
	svc, err := New(Config{
		Source:       source,
		Dispatcher:   dispatcher,
		PollInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	svc.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for svc.Metrics().Polls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for polls")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !svc.Status().Running {
		t.Error("expected the service to be running")
	}

	svc.Stop()
	svc.Stop()
	if svc.Status().Running {
		t.Error("expected the service to be stopped")
	}
}
