package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(url string) *Client {
	config := DefaultConfig(0)
	config.BaseURL = url
	config.RetryBaseDelay = time.Millisecond
	config.RequestsPerSecond = 0
	return New(config)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(0)
	if config.BaseURL != "http://localhost:21337" {
		t.Errorf("expected base URL http://localhost:21337, got %s", config.BaseURL)
	}

	config = DefaultConfig(9000)
	if config.BaseURL != "http://localhost:9000" {
		t.Errorf("expected base URL http://localhost:9000, got %s", config.BaseURL)
	}
}

func TestClient_GetPositionalRectangles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/positional-rectangles" {
			t.Errorf("expected path /positional-rectangles, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected method GET, got %s", r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"PlayerName": "Me",
			"OpponentName": "Them",
			"GameState": "InProgress",
			"Screen": {"ScreenWidth": 1920, "ScreenHeight": 1080},
			"Rectangles": [
				{"CardID": 1, "CardCode": "face", "LocalPlayer": true},
				{"CardID": 2, "CardCode": "01SI001", "LocalPlayer": true}
			]
		}`))
	}))
	defer server.Close()

	f, err := testClient(server.URL).GetPositionalRectangles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Player != "Me" || !f.InMatch() {
		t.Errorf("unexpected frame %+v", f)
	}
	if len(f.Rectangles) != 1 {
		t.Errorf("expected 1 rectangle, got %d", len(f.Rectangles))
	}
}

func TestClient_GetStaticDecklist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/static-decklist" {
			t.Errorf("expected path /static-decklist, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"DeckCode": "CEAQCAIFAEAAA", "CardsInDeck": {"01SI001": 3}}`))
	}))
	defer server.Close()

	decklist, err := testClient(server.URL).GetStaticDecklist(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decklist.DeckCode != "CEAQCAIFAEAAA" || decklist.CardsInDeck["01SI001"] != 3 {
		t.Errorf("unexpected decklist %+v", decklist)
	}
	if decklist.Empty() {
		t.Error("expected a non-empty decklist")
	}
}

func TestClient_GetGameResultAndExpedition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/game-result":
			_, _ = w.Write([]byte(`{"GameID": 2, "LocalPlayerWon": true}`))
		case "/expeditions-state":
			_, _ = w.Write([]byte(`{"IsActive": true, "State": "Picking", "Wins": 1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(server.URL)

	result, err := c.GetGameResult(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.GameID != 2 || !result.LocalPlayerWon {
		t.Errorf("unexpected result %+v", result)
	}

	state, err := c.GetExpeditionsState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.IsActive || state.State != "Picking" || state.Wins != 1 {
		t.Errorf("unexpected expedition state %+v", state)
	}
}

func TestClient_APIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Riot-Token"); got != "secret" {
			t.Errorf("expected X-Riot-Token secret, got %q", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "secret" {
			t.Errorf("expected api_key secret, got %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	c.config.APIKey = "secret"

	if _, err := c.GetEndpoint(context.Background(), "game-result"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_RetryOnServerError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"GameID": 0, "LocalPlayerWon": false}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).GetGameResult(context.Background())
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if result.GameID != 0 {
		t.Errorf("expected GameID 0, got %d", result.GameID)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := testClient(server.URL).GetEndpoint(context.Background(), "game-result"); err == nil {
		t.Fatal("expected an error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	config := DefaultConfig(0)
	config.BaseURL = server.URL
	config.RetryBaseDelay = time.Second
	c := New(config)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.GetEndpoint(ctx, "game-result"); err == nil {
		t.Error("expected an error when the context expires")
	}
}

func TestClient_IsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"GameState": "Menus"}`))
	}))
	c := testClient(server.URL)
	if !c.IsHealthy(context.Background()) {
		t.Error("expected client to be healthy")
	}
	server.Close()

	if c.IsHealthy(context.Background()) {
		t.Error("expected client to be unhealthy after the server stops")
	}
}
