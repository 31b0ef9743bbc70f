package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/game"
	"jet-fighter/internal/input"
	"jet-fighter/internal/metrics"
	"jet-fighter/internal/radar"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns a private copy of the latest published state
	GetSnapshot() game.Snapshot
	// TargetMesh returns the merged ring geometry of the active targets
	TargetMesh() game.TorusMesh
	// Controls returns the control state remote clients write to
	Controls() *input.Controls
	// Fire queues one shot for the next tick
	Fire()
	// Reset returns the aircraft to spawn without a penalty
	Reset()
	// Bounds returns the world box
	Bounds() config.Bounds
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
	// Engine is the flight engine (required)
	Engine EngineInterface

	// Radar renders /api/radar.png. If nil, one is built from Engine.Bounds().
	Radar *radar.Renderer

	// Limits bounds request bodies; zero uses config.DefaultLimits().
	Limits config.ResourceLimits

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses Limits.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default server origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	Logger zerolog.Logger
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine EngineInterface
	radar  *radar.Renderer
	limits config.ResourceLimits
	log    zerolog.Logger
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// Apart from the rate limiter's cleanup goroutine, nothing is started and no
// listener is opened, so it is safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	limits := cfg.Limits
	if limits.MaxInputBodyBytes == 0 {
		limits = config.DefaultLimits()
	}
	log := cfg.Logger.With().Str("component", "api").Logger()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(requestLogger(log))
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := RateLimitConfigFrom(limits)
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = config.DefaultServer().AllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	rdr := cfg.Radar
	if rdr == nil {
		rdr = radar.NewRenderer(cfg.Engine.Bounds(), radar.DefaultSize)
	}
	h := &routerHandlers{
		engine: cfg.Engine,
		radar:  rdr,
		limits: limits,
		log:    log,
	}

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Simulation state
		r.Get("/state", h.handleGetState)
		r.Get("/score", h.handleGetScore)
		r.Get("/targets/mesh", h.handleGetTargetMesh)
		r.Get("/radar.png", h.handleGetRadar)

		// Controls
		r.Post("/input", h.handlePostInput)
		r.Post("/fire", h.handleFire)
		r.Post("/reset", h.handleReset)
	})

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("ip", GetClientIP(r)).
				Msg("request")
		})
	}
}

// metricsMiddleware records latency per route pattern (bounded cardinality).
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
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
		metrics.RecordRequest(r.Method, pattern, status, time.Since(start))
	})
}
