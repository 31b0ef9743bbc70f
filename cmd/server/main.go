package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jet-fighter/internal/api"
	"jet-fighter/internal/config"
	"jet-fighter/internal/game"
	"jet-fighter/internal/logging"
	"jet-fighter/internal/metrics"
	"jet-fighter/internal/terrain"
	"jet-fighter/internal/vecmath"
)

func main() {
	// .env in the parent directory first, then the working directory
	envErr := godotenv.Load("../.env")
	if envErr != nil {
		envErr = godotenv.Load(".env")
	}

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig, err := config.Load("")
	if err != nil {
		bootLog := logging.New(config.DefaultLog())
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logging.New(appConfig.Log)
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables only")
	}
	log.Info().
		Int("tickRate", appConfig.Sim.TickRate).
		Int("targets", appConfig.Targets.Count).
		Bool("terrain", appConfig.Terrain.Enabled).
		Bool("strict", appConfig.Sim.Strict).
		Msg("jet-fighter starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim := appConfig.Sim
	spawn := vecmath.V3(sim.SpawnX, sim.SpawnY, sim.SpawnZ)
	world := terrain.Load(ctx, appConfig.Terrain, spawn, log)

	engine := game.NewEngine(game.EngineConfig{
		Sim:         sim,
		Targets:     appConfig.Targets,
		Projectiles: appConfig.Projectiles,
		EventLog:    appConfig.EventLog,
		Obstacles:   obstacles(world),
		Logger:      log,
	})

	if path := appConfig.EventLog.Path; path != "" {
		if err := engine.StartEventLog(path); err != nil {
			log.Warn().Err(err).Msg("event log disabled")
		} else {
			log.Info().Str("path", path).Msg("event log enabled")
		}
	}

	debugServer := metrics.StartDebugServer(appConfig.Observability, log)

	server := api.NewServer(engine, api.ServerConfig{
		Server: appConfig.Server,
		Limits: appConfig.Limits,
		Logger: log,
	})

	engine.Start()

	go func() {
		<-world.Ready()
		if world.Loaded() {
			log.Info().Msg("collision geometry ready")
		}
	}()

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("API server shutdown")
	}
	if debugServer != nil {
		debugServer.Shutdown(shutdownCtx)
	}
	engine.Stop()
	engine.StopEventLog()
	log.Info().Int("score", engine.Score().Total()).Msg("goodbye")
}

// obstacles lists the world meshes. Disabled terrain contributes none.
func obstacles(w *terrain.World) []game.Obstacle {
	var out []game.Obstacle
	if w.Landscape != nil {
		out = append(out, w.Landscape)
	}
	if w.Foliage != nil {
		out = append(out, w.Foliage)
	}
	return out
}

func waitForShutdown(ctx context.Context, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}
}
