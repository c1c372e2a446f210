package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/LoR-Companion/internal/api/response"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deck"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deckcode"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

// DeckHandler handles deck-related API requests.
type DeckHandler struct {
	store    Store
	resolver cards.Resolver
}

// NewDeckHandler creates a new DeckHandler. A nil resolver yields code-only cards.
func NewDeckHandler(store Store, resolver cards.Resolver) *DeckHandler {
	return &DeckHandler{store: store, resolver: resolver}
}

// GetDecks lists deck records. Query: limit (default all).
func (h *DeckHandler) GetDecks(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	decks, err := h.store.ListDecks(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if decks == nil {
		decks = []*storage.Deck{}
	}
	response.List(w, decks, len(decks))
}

// DeckDetail is a decoded deck code and its stored record, if any.
type DeckDetail struct {
	Deck   match.DeckSummary `json:"deck"`
	Record *storage.Deck     `json:"record"`
}

// GetDeck decodes a deck code and attaches the stored record.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	decoded, err := deckcode.Decode(code)
	if err != nil {
		response.BadRequest(w, fmt.Errorf("invalid deck code: %w", err))
		return
	}

	counts := make(map[string]int, len(decoded))
	for _, entry := range decoded {
		counts[entry.CardCode] += int(entry.Count)
	}

	built := deck.FromCounts(counts, h.resolver, 0, 0, deck.DefaultEncoder)
	canonical, ok := built.Code()
	if !ok {
		response.BadRequest(w, fmt.Errorf("invalid deck code: cannot re-encode %q", code))
		return
	}

	detail := DeckDetail{}
	if h.store != nil {
		record, err := h.store.GetDeck(r.Context(), canonical)
		if err != nil {
			response.InternalError(w, err)
			return
		}
		detail.Record = record
	}
	if detail.Record != nil {
		built.Wins, built.Losses = detail.Record.Wins, detail.Record.Losses
	}
	detail.Deck = match.Summarize(built)

	response.Success(w, detail)
}

// GetDeckMatches returns the matches played with a deck code.
func (h *DeckHandler) GetDeckMatches(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	code, err := deck.CanonicalCode(chi.URLParam(r, "code"))
	if err != nil {
		response.BadRequest(w, fmt.Errorf("invalid deck code: %w", err))
		return
	}

	matches, err := h.store.GetMatchesByDeck(r.Context(), code)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if matches == nil {
		matches = []*storage.Match{}
	}
	response.List(w, matches, len(matches))
}
