package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/LoR-Companion/internal/api/handlers"
)

func (s *Server) setupRoutes() {
	systemHandler := handlers.NewSystemHandler(s.services.Tracker, s.wsHub.ClientCount)

	s.router.Get("/health", systemHandler.Health)

	// No request timeout on the long-lived WebSocket.
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
		r.Use(jsonContentType)

		matchHandler := handlers.NewMatchHandler(s.services.Store, s.services.Tracker)
		r.Get("/match/current", matchHandler.GetCurrent)
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", matchHandler.GetMatches)
			r.Get("/stats", matchHandler.GetStats)
			r.Get("/cards", matchHandler.GetTopCards)
			r.Get("/streaks", matchHandler.GetStreaks)
			r.Get("/patterns", matchHandler.GetPatterns)
			r.Get("/{matchID}", matchHandler.GetMatch)
		})

		deckHandler := handlers.NewDeckHandler(s.services.Store, s.services.Resolver)
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckHandler.GetDecks)
			r.Get("/{code}", deckHandler.GetDeck)
			r.Get("/{code}/matches", deckHandler.GetDeckMatches)
		})

		expeditionHandler := handlers.NewExpeditionHandler(s.services.Store, s.services.Tracker)
		r.Get("/expedition", expeditionHandler.GetExpedition)
		r.Get("/expedition/history", expeditionHandler.GetHistory)

		r.Get("/metrics", systemHandler.GetMetrics)
	})
}

// jsonContentType marks every API response as JSON, including router 404s.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
