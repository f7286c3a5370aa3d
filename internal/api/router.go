package api

import (
	"io"
	"net/http"
	"time"

	"ring-arena/internal/combat"
	"ring-arena/internal/game"
	"ring-arena/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the step loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest lock-free immutable snapshot (nil before the first step)
	GetSnapshot() *game.GameSnapshot
	// StateHash returns the current step and its state digest
	StateHash() (uint64, uint64)
	// Target returns a copy of a live target
	Target(id combat.StableID) (combat.Target, bool)
	// Submit queues input for the next step
	Submit(in game.StepInput)
	// GetEventLogStats returns event log statistics
	GetEventLogStats() map[string]any
}

// FrameRenderer draws a snapshot as PNG
type FrameRenderer interface {
	EncodePNG(w io.Writer, snap *game.GameSnapshot) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the combat engine (required)
	Engine EngineInterface

	// Renderer draws /api/debug/frame.png. If nil the route returns 404.
	Renderer FrameRenderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// AdminRateLimitConfig is the extra per-IP limit on /api/admin.
	// If nil, uses AdminRateLimitConfig.
	AdminRateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses localhost only.
	CORSOrigins []string

	// AdminToken guards the /api/admin routes. Empty disables them.
	AdminToken string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine   EngineInterface
	renderer FrameRenderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function has no side effects: no goroutines are started,
// no network listeners are opened and the engine is not started, so it is
// safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: cfg.Renderer,
	}

	r.Route("/api", func(r chi.Router) {
		// Read model
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/hash", h.handleGetHash)
		r.Get("/targets/{id}", h.handleGetTarget)
		r.Get("/archetypes", h.handleGetArchetypes)
		r.Get("/rings", h.handleGetRings)
		r.Get("/debug/frame.png", h.handleDebugFrame)

		// Input injection
		if cfg.AdminToken != "" {
			auth := NewTokenAuth(cfg.AdminToken)
			adminCfg := AdminRateLimitConfig
			if cfg.AdminRateLimitConfig != nil {
				adminCfg = *cfg.AdminRateLimitConfig
			}
			adminLimiter := NewIPRateLimiter(adminCfg)
			r.Route("/admin", func(r chi.Router) {
				r.Use(adminLimiter.Middleware)
				r.Use(auth.Middleware)
				r.Post("/targets", h.handleSpawnTargets)
				r.Post("/fire", h.handleFire)
				r.Post("/projectiles", h.handleSpawnProjectiles)
			})
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}

// metricsMiddleware records request latency by route pattern (bounded labels)
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		telemetry.RecordRequest(r.Method, pattern, status, time.Since(start))
	})
}
