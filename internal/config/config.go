// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for simulation, server and logging settings.
//
// Defaults live in the DefaultX() constructors. Load layers an optional config
// file and JETFIGHTER_* environment variables on top of them.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (JETFIGHTER_SERVER_PORT).
const EnvPrefix = "JETFIGHTER"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// Bounds is an axis-aligned box, inclusive on every face.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// SimConfig holds aircraft and collision tuning.
type SimConfig struct {
	TickRate int  // Simulation ticks per second
	Strict   bool // Panic on degenerate orientation instead of recovering

	Bounds Bounds

	BaseSpeed          float64 // World units per tick before boost
	BoostSpeedBonus    float64 // Extra speed at full boost (scaled by easeOutQuad)
	BoostRate          float64 // Boost gained per tick while held
	BoostDecay         float64 // Boost multiplier per tick when released
	AngularDamping     float64
	MaxAngularVelocity float64
	TurnRate           float64 // Angular velocity added per tick per held action

	CollisionDistance float64 // Obstacle ray length
	BoostRayThreshold float64 // Boost level above which side rays are cast
	BoostRayAngle     float64 // Side ray offset in radians
	CollisionPenalty  int

	SpawnX, SpawnY, SpawnZ float64

	FOVBase  float64 // Presentation hint only
	FOVScale float64
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate: 60,
		Strict:   false,
		Bounds: Bounds{
			MinX: -8, MaxX: 8,
			MinY: 0.5, MaxY: 8,
			MinZ: -8, MaxZ: 8,
		},
		BaseSpeed:          0.006,
		BoostSpeedBonus:    0.02,
		BoostRate:          0.025,
		BoostDecay:         0.95,
		AngularDamping:     0.95,
		MaxAngularVelocity: 0.04,
		TurnRate:           0.0025,
		CollisionDistance:  0.5,
		BoostRayThreshold:  0.5,
		BoostRayAngle:      math.Pi / 3,
		CollisionPenalty:   10,
		SpawnX:             0,
		SpawnY:             3,
		SpawnZ:             7,
		FOVBase:            45,
		FOVScale:           900,
	}
}

// =============================================================================
// TARGET CONFIGURATION
// =============================================================================

// TargetConfig parameterizes the ring target pool.
type TargetConfig struct {
	Count           int
	RingRadius      float64
	TubeRadius      float64
	RadialSegments  int
	TubularSegments int
	AircraftRadius  float64 // Added to RingRadius for the hit test
	Points          int     // Score per target hit
	RespawnAfter    time.Duration
	SweepInterval   time.Duration
	Seed            int64 // 0 picks a time-based seed
}

// DefaultTargets returns the standard arena: 15 low-poly rings swept every 2s.
func DefaultTargets() TargetConfig {
	return TargetConfig{
		Count:           15,
		RingRadius:      0.125,
		TubeRadius:      0.02,
		RadialSegments:  4,
		TubularSegments: 12,
		AircraftRadius:  0.2,
		Points:          10,
		RespawnAfter:    60 * time.Second,
		SweepInterval:   2 * time.Second,
	}
}

// DenseTargets returns the busier arena: more rings, smoother geometry,
// and a 1s respawn sweep.
func DenseTargets() TargetConfig {
	cfg := DefaultTargets()
	cfg.Count = 25
	cfg.RadialSegments = 8
	cfg.TubularSegments = 16
	cfg.SweepInterval = time.Second
	return cfg
}

// TargetPreset returns a named preset ("default" or "dense").
func TargetPreset(name string) (TargetConfig, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultTargets(), nil
	case "dense":
		return DenseTargets(), nil
	default:
		return TargetConfig{}, fmt.Errorf("%w: unknown target preset %q", ErrInvalid, name)
	}
}

// =============================================================================
// PROJECTILE CONFIGURATION
// =============================================================================

// ProjectileConfig holds bullet settings.
type ProjectileConfig struct {
	Speed     float64
	Lifetime  time.Duration
	Cooldown  time.Duration
	MaxActive int
}

// DefaultProjectiles returns the default projectile configuration.
func DefaultProjectiles() ProjectileConfig {
	return ProjectileConfig{
		Speed:     0.3,
		Lifetime:  2 * time.Second,
		Cooldown:  250 * time.Millisecond,
		MaxActive: 30,
	}
}

// =============================================================================
// TERRAIN CONFIGURATION
// =============================================================================

// TerrainConfig controls the procedural collision geometry.
type TerrainConfig struct {
	Enabled    bool
	Seed       int64
	Extent     float64 // Half-width of the square landscape
	Resolution int     // Quads per side
	Amplitude  float64
	TreeCount  int
	LoadDelay  time.Duration // Simulated asset load latency
}

// DefaultTerrain returns the default terrain configuration.
func DefaultTerrain() TerrainConfig {
	return TerrainConfig{
		Enabled:    true,
		Seed:       1,
		Extent:     10,
		Resolution: 40,
		Amplitude:  0.35,
		TreeCount:  40,
		LoadDelay:  500 * time.Millisecond,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int
	AllowedOrigins    []string
	BroadcastInterval time.Duration // WebSocket state push cadence
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:              3000,
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		BroadcastInterval: 50 * time.Millisecond,
	}
}

// ResourceLimits controls DoS protection limits on the HTTP surface.
type ResourceLimits struct {
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxWSConnections  int
	MaxWSPerIP        int
	MaxInputBodyBytes int64
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		RateLimitRPS:      30,
		RateLimitBurst:    60,
		MaxWSConnections:  100,
		MaxWSPerIP:        5,
		MaxInputBodyBytes: 4 << 10,
	}
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig controls the pprof/metrics debug listener.
type ObservabilityConfig struct {
	DebugEnabled bool
	DebugAddr    string
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		DebugEnabled: true,
		DebugAddr:    "localhost:6060",
	}
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Pretty bool
}

// DefaultLog returns the default log configuration.
func DefaultLog() LogConfig {
	return LogConfig{Level: "info"}
}

// EventLogConfig controls the NDJSON event journal. Empty Path disables it.
type EventLogConfig struct {
	Path          string
	FlushInterval time.Duration
	MaxPerSecond  float64
}

// DefaultEventLog returns the default event log configuration.
func DefaultEventLog() EventLogConfig {
	return EventLogConfig{
		FlushInterval: 100 * time.Millisecond,
		MaxPerSecond:  2000,
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim           SimConfig
	Targets       TargetConfig
	Projectiles   ProjectileConfig
	Terrain       TerrainConfig
	Server        ServerConfig
	Limits        ResourceLimits
	Observability ObservabilityConfig
	Log           LogConfig
	EventLog      EventLogConfig
}

// Default returns the complete configuration without any overrides.
func Default() AppConfig {
	return AppConfig{
		Sim:           DefaultSim(),
		Targets:       DefaultTargets(),
		Projectiles:   DefaultProjectiles(),
		Terrain:       DefaultTerrain(),
		Server:        DefaultServer(),
		Limits:        DefaultLimits(),
		Observability: DefaultObservability(),
		Log:           DefaultLog(),
		EventLog:      DefaultEventLog(),
	}
}

// Load returns the complete configuration with file and environment overrides.
// path may be empty, in which case JETFIGHTER_CONFIG is consulted; with neither
// set only defaults and environment variables apply.
func Load(path string) (AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d AppConfig) {
	v.SetDefault("sim.tickRate", d.Sim.TickRate)
	v.SetDefault("sim.strict", d.Sim.Strict)
	v.SetDefault("sim.bounds.minX", d.Sim.Bounds.MinX)
	v.SetDefault("sim.bounds.maxX", d.Sim.Bounds.MaxX)
	v.SetDefault("sim.bounds.minY", d.Sim.Bounds.MinY)
	v.SetDefault("sim.bounds.maxY", d.Sim.Bounds.MaxY)
	v.SetDefault("sim.bounds.minZ", d.Sim.Bounds.MinZ)
	v.SetDefault("sim.bounds.maxZ", d.Sim.Bounds.MaxZ)
	v.SetDefault("sim.baseSpeed", d.Sim.BaseSpeed)
	v.SetDefault("sim.boostSpeedBonus", d.Sim.BoostSpeedBonus)
	v.SetDefault("sim.boostRate", d.Sim.BoostRate)
	v.SetDefault("sim.boostDecay", d.Sim.BoostDecay)
	v.SetDefault("sim.angularDamping", d.Sim.AngularDamping)
	v.SetDefault("sim.maxAngularVelocity", d.Sim.MaxAngularVelocity)
	v.SetDefault("sim.turnRate", d.Sim.TurnRate)
	v.SetDefault("sim.collisionDistance", d.Sim.CollisionDistance)
	v.SetDefault("sim.boostRayThreshold", d.Sim.BoostRayThreshold)
	v.SetDefault("sim.boostRayAngle", d.Sim.BoostRayAngle)
	v.SetDefault("sim.collisionPenalty", d.Sim.CollisionPenalty)
	v.SetDefault("sim.spawnX", d.Sim.SpawnX)
	v.SetDefault("sim.spawnY", d.Sim.SpawnY)
	v.SetDefault("sim.spawnZ", d.Sim.SpawnZ)
	v.SetDefault("sim.fovBase", d.Sim.FOVBase)
	v.SetDefault("sim.fovScale", d.Sim.FOVScale)

	v.SetDefault("targets.preset", "default")
	v.SetDefault("targets.count", 0)
	v.SetDefault("targets.seed", d.Targets.Seed)
	v.SetDefault("targets.respawnAfter", d.Targets.RespawnAfter)

	v.SetDefault("projectiles.speed", d.Projectiles.Speed)
	v.SetDefault("projectiles.lifetime", d.Projectiles.Lifetime)
	v.SetDefault("projectiles.cooldown", d.Projectiles.Cooldown)
	v.SetDefault("projectiles.maxActive", d.Projectiles.MaxActive)

	v.SetDefault("terrain.enabled", d.Terrain.Enabled)
	v.SetDefault("terrain.seed", d.Terrain.Seed)
	v.SetDefault("terrain.extent", d.Terrain.Extent)
	v.SetDefault("terrain.resolution", d.Terrain.Resolution)
	v.SetDefault("terrain.amplitude", d.Terrain.Amplitude)
	v.SetDefault("terrain.treeCount", d.Terrain.TreeCount)
	v.SetDefault("terrain.loadDelay", d.Terrain.LoadDelay)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowedOrigins", d.Server.AllowedOrigins)
	v.SetDefault("server.broadcastInterval", d.Server.BroadcastInterval)

	v.SetDefault("limits.rateLimitRps", d.Limits.RateLimitRPS)
	v.SetDefault("limits.rateLimitBurst", d.Limits.RateLimitBurst)
	v.SetDefault("limits.maxWsConnections", d.Limits.MaxWSConnections)
	v.SetDefault("limits.maxWsPerIp", d.Limits.MaxWSPerIP)
	v.SetDefault("limits.maxInputBodyBytes", d.Limits.MaxInputBodyBytes)

	v.SetDefault("observability.debugEnabled", d.Observability.DebugEnabled)
	v.SetDefault("observability.debugAddr", d.Observability.DebugAddr)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)

	v.SetDefault("eventLog.path", d.EventLog.Path)
	v.SetDefault("eventLog.flushInterval", d.EventLog.FlushInterval)
	v.SetDefault("eventLog.maxPerSecond", d.EventLog.MaxPerSecond)
}

func fromViper(v *viper.Viper) (AppConfig, error) {
	targets, err := TargetPreset(v.GetString("targets.preset"))
	if err != nil {
		return AppConfig{}, err
	}
	if n := v.GetInt("targets.count"); n > 0 {
		targets.Count = n
	}
	targets.Seed = v.GetInt64("targets.seed")
	targets.RespawnAfter = v.GetDuration("targets.respawnAfter")

	return AppConfig{
		Sim: SimConfig{
			TickRate: v.GetInt("sim.tickRate"),
			Strict:   v.GetBool("sim.strict"),
			Bounds: Bounds{
				MinX: v.GetFloat64("sim.bounds.minX"),
				MaxX: v.GetFloat64("sim.bounds.maxX"),
				MinY: v.GetFloat64("sim.bounds.minY"),
				MaxY: v.GetFloat64("sim.bounds.maxY"),
				MinZ: v.GetFloat64("sim.bounds.minZ"),
				MaxZ: v.GetFloat64("sim.bounds.maxZ"),
			},
			BaseSpeed:          v.GetFloat64("sim.baseSpeed"),
			BoostSpeedBonus:    v.GetFloat64("sim.boostSpeedBonus"),
			BoostRate:          v.GetFloat64("sim.boostRate"),
			BoostDecay:         v.GetFloat64("sim.boostDecay"),
			AngularDamping:     v.GetFloat64("sim.angularDamping"),
			MaxAngularVelocity: v.GetFloat64("sim.maxAngularVelocity"),
			TurnRate:           v.GetFloat64("sim.turnRate"),
			CollisionDistance:  v.GetFloat64("sim.collisionDistance"),
			BoostRayThreshold:  v.GetFloat64("sim.boostRayThreshold"),
			BoostRayAngle:      v.GetFloat64("sim.boostRayAngle"),
			CollisionPenalty:   v.GetInt("sim.collisionPenalty"),
			SpawnX:             v.GetFloat64("sim.spawnX"),
			SpawnY:             v.GetFloat64("sim.spawnY"),
			SpawnZ:             v.GetFloat64("sim.spawnZ"),
			FOVBase:            v.GetFloat64("sim.fovBase"),
			FOVScale:           v.GetFloat64("sim.fovScale"),
		},
		Targets: targets,
		Projectiles: ProjectileConfig{
			Speed:     v.GetFloat64("projectiles.speed"),
			Lifetime:  v.GetDuration("projectiles.lifetime"),
			Cooldown:  v.GetDuration("projectiles.cooldown"),
			MaxActive: v.GetInt("projectiles.maxActive"),
		},
		Terrain: TerrainConfig{
			Enabled:    v.GetBool("terrain.enabled"),
			Seed:       v.GetInt64("terrain.seed"),
			Extent:     v.GetFloat64("terrain.extent"),
			Resolution: v.GetInt("terrain.resolution"),
			Amplitude:  v.GetFloat64("terrain.amplitude"),
			TreeCount:  v.GetInt("terrain.treeCount"),
			LoadDelay:  v.GetDuration("terrain.loadDelay"),
		},
		Server: ServerConfig{
			Port:              v.GetInt("server.port"),
			AllowedOrigins:    v.GetStringSlice("server.allowedOrigins"),
			BroadcastInterval: v.GetDuration("server.broadcastInterval"),
		},
		Limits: ResourceLimits{
			RateLimitRPS:      v.GetFloat64("limits.rateLimitRps"),
			RateLimitBurst:    v.GetInt("limits.rateLimitBurst"),
			MaxWSConnections:  v.GetInt("limits.maxWsConnections"),
			MaxWSPerIP:        v.GetInt("limits.maxWsPerIp"),
			MaxInputBodyBytes: v.GetInt64("limits.maxInputBodyBytes"),
		},
		Observability: ObservabilityConfig{
			DebugEnabled: v.GetBool("observability.debugEnabled"),
			DebugAddr:    v.GetString("observability.debugAddr"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
		EventLog: EventLogConfig{
			Path:          v.GetString("eventLog.path"),
			FlushInterval: v.GetDuration("eventLog.flushInterval"),
			MaxPerSecond:  v.GetFloat64("eventLog.maxPerSecond"),
		},
	}, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c AppConfig) Validate() error {
	b := c.Sim.Bounds
	switch {
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("%w: sim.tickRate must be positive, got %d", ErrInvalid, c.Sim.TickRate)
	case b.MinX >= b.MaxX || b.MinY >= b.MaxY || b.MinZ >= b.MaxZ:
		return fmt.Errorf("%w: sim.bounds min must be below max", ErrInvalid)
	case c.Sim.CollisionDistance <= 0:
		return fmt.Errorf("%w: sim.collisionDistance must be positive", ErrInvalid)
	case c.Sim.CollisionPenalty < 0:
		return fmt.Errorf("%w: sim.collisionPenalty must not be negative", ErrInvalid)
	case c.Targets.Count < 0:
		return fmt.Errorf("%w: targets.count must not be negative", ErrInvalid)
	case c.Targets.RadialSegments < 2 || c.Targets.TubularSegments < 3:
		return fmt.Errorf("%w: targets need at least 2 radial and 3 tubular segments", ErrInvalid)
	case c.Targets.SweepInterval <= 0:
		return fmt.Errorf("%w: targets.sweepInterval must be positive", ErrInvalid)
	case c.Projectiles.Cooldown < 0 || c.Projectiles.Lifetime <= 0:
		return fmt.Errorf("%w: projectiles cooldown/lifetime out of range", ErrInvalid)
	case c.Projectiles.MaxActive <= 0:
		return fmt.Errorf("%w: projectiles.maxActive must be positive", ErrInvalid)
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	case c.Server.BroadcastInterval <= 0:
		return fmt.Errorf("%w: server.broadcastInterval must be positive", ErrInvalid)
	case c.Terrain.Enabled && (c.Terrain.Resolution <= 0 || c.Terrain.Extent <= 0):
		return fmt.Errorf("%w: terrain resolution/extent must be positive", ErrInvalid)
	}
	return nil
}

// TickInterval returns the wall-clock duration of one simulation tick.
func (c SimConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
