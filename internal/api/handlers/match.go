package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/LoR-Companion/internal/api/response"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deck"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

// MatchHandler handles match-related API requests.
type MatchHandler struct {
	store   Store
	tracker Tracker
}

// NewMatchHandler creates a new MatchHandler. Either dependency may be nil.
func NewMatchHandler(store Store, tracker Tracker) *MatchHandler {
	return &MatchHandler{store: store, tracker: tracker}
}

// CurrentMatchResponse describes the live session.
type CurrentMatchResponse struct {
	InMatch  bool            `json:"inMatch"`
	Game     *match.Snapshot `json:"game"`
	LastGame *match.Snapshot `json:"lastGame,omitempty"`
}

// GetCurrent returns the game in progress, if any, and the last finished game.
func (h *MatchHandler) GetCurrent(w http.ResponseWriter, _ *http.Request) {
	if h.tracker == nil {
		response.ServiceUnavailable(w, errNoTracker)
		return
	}

	resp := CurrentMatchResponse{}
	if snap, ok := h.tracker.CurrentGame(); ok {
		resp.InMatch = true
		resp.Game = &snap
	}
	if last, ok := h.tracker.LastGame(); ok {
		resp.LastGame = &last
	}
	response.Success(w, resp)
}

// GetMatches returns the most recent matches. Query: limit (default 20).
func (h *MatchHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	matches, err := h.store.GetRecentMatches(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if matches == nil {
		matches = []*storage.Match{}
	}
	response.List(w, matches, len(matches))
}

// MatchDetail is a stored match and the cards seen in it.
type MatchDetail struct {
	Match *storage.Match       `json:"match"`
	Cards []*storage.MatchCard `json:"cards"`
}

// GetMatch returns a single match with its cards.
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	matchID := chi.URLParam(r, "matchID")
	m, cards, err := h.store.GetMatch(r.Context(), matchID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if m == nil {
		response.NotFound(w, fmt.Errorf("match %s not found", matchID))
		return
	}
	if cards == nil {
		cards = []*storage.MatchCard{}
	}
	response.Success(w, MatchDetail{Match: m, Cards: cards})
}

// ParseStatsFilter reads start_date, end_date (YYYY-MM-DD), deck_code,
// opponent and result from the query string. end_date is inclusive.
func ParseStatsFilter(r *http.Request) (storage.StatsFilter, error) {
	q := r.URL.Query()
	filter := storage.StatsFilter{}

	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("invalid start_date, expected YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("invalid end_date, expected YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	if v := q.Get("deck_code"); v != "" {
		code, err := deck.CanonicalCode(v)
		if err != nil {
			return filter, fmt.Errorf("invalid deck_code: %w", err)
		}
		filter.DeckCode = &code
	}
	if v := q.Get("opponent"); v != "" {
		filter.Opponent = &v
	}
	if v := q.Get("result"); v != "" {
		switch v {
		case storage.ResultWin, storage.ResultLoss, storage.ResultUnknown:
			filter.Result = &v
		default:
			return filter, fmt.Errorf("invalid result %q", v)
		}
	}
	return filter, nil
}

// StatsResponse bundles overall and per-region statistics.
type StatsResponse struct {
	Overall *storage.Statistics    `json:"overall"`
	Regions []*storage.RegionStats `json:"regions"`
}

// GetStats returns win/loss statistics for the filtered matches.
func (h *MatchHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	filter, err := ParseStatsFilter(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	overall, err := h.store.GetStats(r.Context(), filter)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	regions, err := h.store.GetRegionStats(r.Context(), filter)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if regions == nil {
		regions = []*storage.RegionStats{}
	}
	response.Success(w, StatsResponse{Overall: overall, Regions: regions})
}

// GetTopCards returns the cards seen in the most matches.
// Query: side (player|opponent, default opponent), limit (default 10).
func (h *MatchHandler) GetTopCards(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	side := r.URL.Query().Get("side")
	if side == "" {
		side = storage.SideOpponent
	}
	if side != storage.SidePlayer && side != storage.SideOpponent {
		response.BadRequest(w, fmt.Errorf("invalid side %q", side))
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	usage, err := h.store.GetTopCards(r.Context(), side, limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if usage == nil {
		usage = []*storage.CardUsage{}
	}
	response.List(w, usage, len(usage))
}

// StreaksResponse is the streak summary plus the notable past streaks.
type StreaksResponse struct {
	Summary *storage.StreakData `json:"summary"`
	History []storage.Streak    `json:"history"`
}

// GetStreaks returns win and loss streaks for the filtered matches.
// Query: the stats filter plus min_length (default 3).
func (h *MatchHandler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	filter, err := ParseStatsFilter(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	minLength, err := queryInt(r, "min_length", 3)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	summary, err := h.store.GetStreaks(r.Context(), filter)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	history, err := h.store.GetStreakHistory(r.Context(), filter, minLength)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, StreaksResponse{Summary: summary, History: history})
}

// GetPatterns returns results by hour of day and weekday.
// Query: the stats filter plus tz, an IANA zone name (default local time).
func (h *MatchHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	filter, err := ParseStatsFilter(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	loc := time.Local
	if tz := r.URL.Query().Get("tz"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			response.BadRequest(w, fmt.Errorf("invalid tz %q", tz))
			return
		}
	}

	patterns, err := h.store.GetTimePatterns(r.Context(), filter, loc)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, patterns)
}
