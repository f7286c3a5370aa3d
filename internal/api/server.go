package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"ring-arena/internal/config"
	"ring-arena/internal/game"
	"ring-arena/internal/telemetry"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with the health-feed WebSocket.
type Server struct {
	engine      *game.Engine
	feed        *telemetry.HealthFeed
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
func NewServer(engine *game.Engine, feed *telemetry.HealthFeed, renderer FrameRenderer, cfg config.ServerConfig) *Server {
	s := &Server{
		engine: engine,
		feed:   feed,
		wsHub:  NewWebSocketHub(NewOriginChecker(cfg.AllowedOrigins), cfg.MaxWSPerIP),
	}

	rl := DefaultRateLimitConfig
	if cfg.RateLimit > 0 {
		rl.RequestsPerSecond = cfg.RateLimit
	}
	if cfg.RateBurst > 0 {
		rl.Burst = cfg.RateBurst
	}
	s.rateLimiter = NewIPRateLimiter(rl)

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Renderer:    renderer,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.AllowedOrigins,
		AdminToken:  cfg.AdminToken,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start begins the HTTP server AND starts background workers.
// It blocks until the server stops; http.ErrServerClosed is not an error.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	if s.feed != nil {
		s.wsHub.StartFeedLoop(s.feed)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of the listener and background workers.
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
