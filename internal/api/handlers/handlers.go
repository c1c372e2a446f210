// Package handlers implements the REST endpoints over tracked games and the
// stored history.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/api/response"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/expedition"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
	"github.com/ramonehamilton/LoR-Companion/internal/metrics"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
	"github.com/ramonehamilton/LoR-Companion/internal/tracker"
)

// Store is the read side of the match history.
type Store interface {
	GetRecentMatches(ctx context.Context, limit int) ([]*storage.Match, error)
	GetMatch(ctx context.Context, id string) (*storage.Match, []*storage.MatchCard, error)
	GetMatchesByDeck(ctx context.Context, code string) ([]*storage.Match, error)
	GetStats(ctx context.Context, filter storage.StatsFilter) (*storage.Statistics, error)
	GetRegionStats(ctx context.Context, filter storage.StatsFilter) ([]*storage.RegionStats, error)
	GetTopCards(ctx context.Context, side string, limit int) ([]*storage.CardUsage, error)
	GetStreaks(ctx context.Context, filter storage.StatsFilter) (*storage.StreakData, error)
	GetStreakHistory(ctx context.Context, filter storage.StatsFilter, minLength int) ([]storage.Streak, error)
	GetTimePatterns(ctx context.Context, filter storage.StatsFilter, loc *time.Location) (*storage.TimePatterns, error)
	GetDeck(ctx context.Context, code string) (*storage.Deck, error)
	ListDecks(ctx context.Context, limit int) ([]*storage.Deck, error)
	GetLatestExpedition(ctx context.Context) (*storage.ExpeditionSnapshot, error)
	ListExpeditions(ctx context.Context, limit int) ([]*storage.ExpeditionSnapshot, error)
}

// Tracker exposes the live session.
type Tracker interface {
	CurrentGame() (match.Snapshot, bool)
	LastGame() (match.Snapshot, bool)
	Expedition() *expedition.State
	Status() tracker.Status
	Metrics() *metrics.TrackerMetrics
}

var (
	_ Store   = (*storage.Service)(nil)
	_ Tracker = (*tracker.Service)(nil)
)

var (
	errNoStore   = errors.New("storage is not configured")
	errNoTracker = errors.New("tracker is not running")
)

// queryInt parses an integer query parameter, falling back to def when it is
// absent. Negative values are rejected.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return n, nil
}

func requireStore(w http.ResponseWriter, store Store) bool {
	if store == nil {
		response.ServiceUnavailable(w, errNoStore)
		return false
	}
	return true
}
