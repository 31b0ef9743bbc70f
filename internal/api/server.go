package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/game"
	"jet-fighter/internal/radar"
)

// ScoreNotifier delivers score changes. *game.Score implements it.
type ScoreNotifier interface {
	OnChange(fn func(total int))
}

// ServerConfig wires a Server.
type ServerConfig struct {
	Server config.ServerConfig
	Limits config.ResourceLimits
	Logger zerolog.Logger
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      EngineInterface
	score       ScoreNotifier
	cfg         ServerConfig
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	startOnce   sync.Once
	log         zerolog.Logger
}

// NewServer creates the API server for a running engine.
func NewServer(engine *game.Engine, cfg ServerConfig) *Server {
	return NewServerFor(engine, engine.Score(), cfg)
}

// NewServerFor creates a server over any engine implementation.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServerFor(engine EngineInterface, score ScoreNotifier, cfg ServerConfig) *Server {
	if cfg.Server.BroadcastInterval <= 0 {
		cfg.Server.BroadcastInterval = config.DefaultServer().BroadcastInterval
	}
	if cfg.Limits.MaxInputBodyBytes == 0 {
		cfg.Limits = config.DefaultLimits()
	}

	s := &Server{
		engine:      engine,
		score:       score,
		cfg:         cfg,
		rateLimiter: NewIPRateLimiter(RateLimitConfigFrom(cfg.Limits)),
		log:         cfg.Logger.With().Str("component", "server").Logger(),
	}
	s.wsHub = NewWebSocketHub(engine, cfg.Server.AllowedOrigins, cfg.Limits, cfg.Logger)

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Radar:       radar.NewRenderer(engine.Bounds(), radar.DefaultSize),
		Limits:      cfg.Limits,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.Server.AllowedOrigins,
		Logger:      cfg.Logger,
	})

	// WebSocket route needs the hub instance, so it is added here
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// startWorkers runs the hub and the state broadcast loop and subscribes to
// score changes. Safe to call more than once.
func (s *Server) startWorkers() {
	s.startOnce.Do(func() {
		go s.wsHub.Run()
		s.wsHub.StartBroadcastLoop(s.cfg.Server.BroadcastInterval)
		if s.score != nil {
			s.score.OnChange(func(total int) {
				s.wsHub.Broadcast(EventScore, map[string]int{"score": total})
			})
		}
	})
}

// Start begins background workers and serves HTTP until Shutdown. It returns
// nil after a clean shutdown.
func (s *Server) Start() error {
	s.startWorkers()

	s.log.Info().Str("addr", s.httpServer.Addr).Msg("API server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub.
func (s *Server) Hub() *WebSocketHub { return s.wsHub }

// Shutdown stops background workers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	return s.httpServer.Shutdown(ctx)
}
