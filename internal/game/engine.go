package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/input"
	"jet-fighter/internal/metrics"
)

// EngineConfig wires an Engine. Zero values fall back to defaults.
type EngineConfig struct {
	Sim         config.SimConfig
	Targets     config.TargetConfig
	Projectiles config.ProjectileConfig
	EventLog    config.EventLogConfig

	// Obstacles are the static collision meshes (terrain, foliage).
	Obstacles []Obstacle
	// Placements fixes target positions; nil scatters Targets.Count at random.
	Placements []Placement

	// Input is sampled once per tick. Nil creates an internal input.Controls.
	Input  input.Source
	Clock  Clock
	Rand   *rand.Rand
	Logger zerolog.Logger
}

// TickResult summarizes one Tick.
type TickResult struct {
	Reset    bool
	Collided bool
	Hits     int
	Fired    bool
	Score    int
}

// Engine owns the aircraft, targets, bullets and score and advances them
// serially, one tick at a time.
type Engine struct {
	mu sync.RWMutex

	cfg      EngineConfig
	clock    Clock
	input    input.Source
	controls *input.Controls // nil when an external Source is used

	probe       *Probe
	aircraft    *Aircraft
	targets     *Targets
	projectiles *Projectiles
	score       *Score

	fireQueued bool

	// Stats
	tickCount    uint64
	collisions   uint64
	targetsHit   uint64
	bulletsFired uint64

	running  bool
	stopChan chan struct{}
	done     chan struct{}

	// Snapshot system for lock-free render separation
	snapshotPool *SnapshotPool

	// Event sourcing for replay and debugging
	eventLog *EventLog

	log zerolog.Logger
}

// NewEngine creates an engine. No goroutines start until Start.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Sim.TickRate <= 0 {
		cfg.Sim = config.DefaultSim()
	}
	if cfg.Targets.TubularSegments == 0 {
		cfg.Targets = config.DefaultTargets()
	}
	if cfg.Projectiles.MaxActive == 0 {
		cfg.Projectiles = config.DefaultProjectiles()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Rand == nil {
		seed := cfg.Targets.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		cfg.Rand = rand.New(rand.NewSource(seed))
	}
	log := cfg.Logger.With().Str("component", "engine").Logger()

	e := &Engine{
		cfg:         cfg,
		clock:       cfg.Clock,
		input:       cfg.Input,
		projectiles: NewProjectiles(cfg.Projectiles),
		score:       NewScore(0),
		log:         log,
	}
	if e.input == nil {
		e.controls = input.NewControls()
		e.input = e.controls
	}

	e.probe = NewProbe(cfg.Sim, log, cfg.Obstacles...)
	e.aircraft = NewAircraft(cfg.Sim, e.probe, log)

	if cfg.Placements != nil {
		e.targets = NewTargetsFrom(cfg.Targets, cfg.Placements)
	} else {
		e.targets = NewTargets(cfg.Targets, cfg.Rand)
	}

	e.snapshotPool = NewSnapshotPool(cfg.Projectiles.MaxActive, e.targets.Len())
	e.eventLog = NewEventLog(cfg.EventLog, log)
	e.ProduceSnapshot(e.clock.Now())
	return e
}

// Start begins the tick and respawn-sweep loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stopChan, e.done
	e.mu.Unlock()

	ticker := time.NewTicker(e.cfg.Sim.TickInterval())
	sweeper := time.NewTicker(e.targets.SweepInterval())

	go func() {
		defer close(done)
		defer ticker.Stop()
		defer sweeper.Stop()
		for {
			select {
			case <-ticker.C:
				e.Tick(e.clock.Now())
			case <-sweeper.C:
				e.Sweep(e.clock.Now())
			case <-stop:
				return
			}
		}
	}()

	e.log.Info().
		Int("tickRate", e.cfg.Sim.TickRate).
		Dur("sweepInterval", e.targets.SweepInterval()).
		Int("targets", e.targets.Len()).
		Msg("flight engine started")
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopChan)
	done := e.done
	e.mu.Unlock()

	<-done
	e.log.Info().Uint64("ticks", e.TickCount()).Msg("flight engine stopped")
}

// Tick advances the simulation one step at now: aircraft, target hits,
// projectiles, then a snapshot is published.
func (e *Engine) Tick(now time.Time) TickResult {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++
	in := e.input.Snapshot()
	var res TickResult

	step := e.aircraft.Update(in)
	if step.Reset {
		res.Reset = true
		e.eventLog.EmitSimple(EventTypeReset, now, e.tickCount, SourceAircraft, nil)
	}
	if step.Collided {
		res.Collided = true
		e.collisions++
		total := e.score.Apply(-step.Penalty)
		metrics.IncCollisions()
		e.eventLog.EmitSimple(EventTypeCollision, now, e.tickCount, SourceAircraft,
			CollisionPayload{Position: step.Candidate.Array(), Penalty: step.Penalty, Score: total})
		e.log.Debug().Int("penalty", step.Penalty).Int("score", total).Msg("collision")
	}

	pose := e.aircraft.Pose()
	if hits := e.targets.Check(pose.Position, now); len(hits) > 0 {
		points := e.targets.Points(len(hits))
		total := e.score.Apply(points)
		res.Hits = len(hits)
		e.targetsHit += uint64(len(hits))
		metrics.AddTargetHits(len(hits))
		for _, id := range hits {
			e.eventLog.EmitSimple(EventTypeTargetHit, now, e.tickCount, SourceTargets,
				TargetHitPayload{TargetID: id, Points: e.targets.Points(1), Score: total})
		}
	}

	if in.Fire || e.fireQueued {
		e.fireQueued = false
		if e.projectiles.Fire(now, pose.Position, pose.Forward) {
			res.Fired = true
			e.bulletsFired++
			metrics.IncBulletsFired()
			e.eventLog.EmitSimple(EventTypeBulletFired, now, e.tickCount, SourceProjectiles,
				BulletFiredPayload{BulletID: e.projectiles.LastID(), Origin: pose.Position.Array()})
		}
	}
	e.projectiles.Update(now)

	res.Score = e.score.Total()
	e.eventLog.EmitSimple(EventTypeTick, now, e.tickCount, SourceEngine, TickPayload{
		Score:   res.Score,
		Bullets: e.projectiles.Len(),
		Active:  e.targets.ActiveCount(),
	})

	e.ProduceSnapshot(now)

	metrics.RecordTick(time.Since(start))
	metrics.UpdateWorld(res.Score, e.projectiles.Len(), e.targets.ActiveCount())
	return res
}

// Sweep respawns targets whose timer has expired and returns how many came
// back.
func (e *Engine) Sweep(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	respawned := e.targets.Sweep(now)
	if len(respawned) == 0 {
		return 0
	}
	for _, id := range respawned {
		e.eventLog.EmitSimple(EventTypeTargetRespawn, now, e.tickCount, SourceTargets,
			TargetRespawnPayload{TargetID: id})
	}
	metrics.AddTargetRespawns(len(respawned))
	stats := e.eventLog.Stats()
	metrics.UpdateEventLogStats(stats.Total, stats.Dropped)

	e.ProduceSnapshot(now)
	e.log.Debug().Int("count", len(respawned)).Msg("targets respawned")
	return len(respawned)
}

// Fire requests a single shot on the next tick, independent of held input.
func (e *Engine) Fire() {
	e.mu.Lock()
	e.fireQueued = true
	e.mu.Unlock()
}

// Reset returns the aircraft to the spawn frame without a penalty.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.aircraft.Reset()
	e.eventLog.EmitSimple(EventTypeReset, now, e.tickCount, SourceEngine, nil)
	e.ProduceSnapshot(now)
}

// ProduceSnapshot publishes the current state. Caller must hold e.mu
// (or be the constructor).
func (e *Engine) ProduceSnapshot(now time.Time) {
	snap := e.snapshotPool.AcquireWrite(now)
	snap.TickNumber = e.tickCount
	snap.Pose = e.aircraft.Pose()
	snap.Boost = e.aircraft.Boost()
	snap.FOVHint = e.aircraft.FOVHint()
	snap.Bullets = e.projectiles.AppendTo(snap.Bullets)

	for i := 0; i < e.targets.Len(); i++ {
		t := e.targets.Get(i)
		snap.Targets = append(snap.Targets, TargetSnapshot{
			ID:     t.ID,
			Center: t.Center.Array(),
			Axis:   t.Axis.Array(),
			Hit:    t.Hit,
		})
	}
	snap.MeshVersion = e.targets.MeshVersion()
	snap.Score = e.score.Total()
	snap.ActiveTargets = e.targets.ActiveCount()
	snap.Collisions = e.collisions
	snap.TargetsHit = e.targetsHit
	snap.BulletsFired = e.bulletsFired
	snap.GeometryReady = e.probe.GeometryReady()

	e.snapshotPool.PublishWrite()
}

// GetSnapshot returns a private copy of the latest published snapshot.
func (e *Engine) GetSnapshot() Snapshot {
	var s Snapshot
	e.snapshotPool.Read(&s)
	return s
}

// TargetMesh returns the merged geometry of the active targets.
func (e *Engine) TargetMesh() TorusMesh {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.targets.Mesh()
}

// Score returns the score aggregator (for OnChange listeners).
func (e *Engine) Score() *Score { return e.score }

// Controls returns the internal control state, or nil when the engine was
// built with an external input Source.
func (e *Engine) Controls() *input.Controls { return e.controls }

// TickCount returns the number of ticks run.
func (e *Engine) TickCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tickCount
}

// TickRate returns the configured ticks per second.
func (e *Engine) TickRate() int { return e.cfg.Sim.TickRate }

// Bounds returns the world box.
func (e *Engine) Bounds() config.Bounds { return e.cfg.Sim.Bounds }

// StartEventLog initializes the event logging system
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// EventLog exposes the journal (stats, custom sinks).
func (e *Engine) EventLog() *EventLog { return e.eventLog }
