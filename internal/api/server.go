// Package api serves the tracker state and match history over HTTP and
// pushes live events over WebSocket.
package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ramonehamilton/LoR-Companion/internal/api/handlers"
	"github.com/ramonehamilton/LoR-Companion/internal/api/websocket"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
)

// Config holds configuration for the API server.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		RequestTimeout: 30 * time.Second,
	}
}

// Services are the collaborators behind the handlers. Any of them may be nil;
// endpoints that need a missing one answer 503.
type Services struct {
	Store    handlers.Store
	Tracker  handlers.Tracker
	Resolver cards.Resolver
}

// Server is the REST API server.
type Server struct {
	config     *Config
	router     *chi.Mux
	httpServer *http.Server
	listener   net.Listener
	wsHub      *websocket.Hub
	services   Services
}

// NewServer creates a server and its routes. The WebSocket hub is started by Start.
func NewServer(cfg *Config, services Services) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		wsHub:    websocket.NewHub(cfg.AllowedOrigins...),
		services: services,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background.
// Port 0 picks a free port; see Addr.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[API] Listening on %s", listener.Addr())
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("[API] Server error: %v", err)
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the WebSocket hub and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}

	log.Println("[API] Shutting down")
	return s.httpServer.Shutdown(ctx)
}

// WebSocketHub returns the hub that broadcasts live events.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// NewWebSocketObserver creates an observer to register with the event
// dispatcher so that its events reach WebSocket clients.
func (s *Server) NewWebSocketObserver(eventTypes ...string) *websocket.Observer {
	return websocket.NewObserver(s.wsHub, eventTypes...)
}
