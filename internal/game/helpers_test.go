package game

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"jet-fighter/internal/config"
	"jet-fighter/internal/input"
	"jet-fighter/internal/vecmath"
)

const orthoTol = 1e-9

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// wall is an infinite plane x = X. Rays hit it when heading toward it.
type wall struct {
	X      float64
	loaded bool
}

func (w *wall) Loaded() bool { return w.loaded }

func (w *wall) Raycast(origin, dir vecmath.Vec3, maxDist float64) (float64, bool) {
	if dir.X == 0 {
		return 0, false
	}
	t := (w.X - origin.X) / dir.X
	if t < 0 || t > maxDist {
		return 0, false
	}
	return t, true
}

// recorder hits any ray with a strong sideways component and records every
// direction it was asked about.
type recorder struct {
	dirs []vecmath.Vec3
}

func (r *recorder) Loaded() bool { return true }

func (r *recorder) Raycast(origin, dir vecmath.Vec3, maxDist float64) (float64, bool) {
	r.dirs = append(r.dirs, dir)
	if dir.X > 0.5 || dir.X < -0.5 {
		return maxDist / 2, true
	}
	return 0, false
}

// staticInput always returns the same control state.
type staticInput struct{ state input.State }

func (s staticInput) Snapshot() input.State { return s.state }

func newTestAircraft(obstacles ...Obstacle) *Aircraft {
	cfg := config.DefaultSim()
	return NewAircraft(cfg, NewProbe(cfg, zerolog.Nop(), obstacles...), zerolog.Nop())
}

// newTestEngine builds an engine with a manual clock, fixed target
// placements and no obstacles.
func newTestEngine(t *testing.T, placements []Placement) (*Engine, *ManualClock) {
	t.Helper()
	if placements == nil {
		placements = []Placement{}
	}
	clock := NewManualClock(t0)
	e := NewEngine(EngineConfig{
		Sim:         config.DefaultSim(),
		Targets:     config.DefaultTargets(),
		Projectiles: config.DefaultProjectiles(),
		Placements:  placements,
		Clock:       clock,
		Logger:      zerolog.Nop(),
	})
	return e, clock
}

func spawnPosition() vecmath.Vec3 {
	cfg := config.DefaultSim()
	return vecmath.V3(cfg.SpawnX, cfg.SpawnY, cfg.SpawnZ)
}

func nan() float64 { return math.NaN() }

func assertVecNear(t *testing.T, want, got vecmath.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}
