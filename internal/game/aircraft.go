package game

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/input"
	"jet-fighter/internal/vecmath"
)

// Pose is the aircraft frame: three orthonormal axes plus a position.
// The aircraft travels along -Forward.
type Pose struct {
	Right    vecmath.Vec3 `json:"right"`
	Up       vecmath.Vec3 `json:"up"`
	Forward  vecmath.Vec3 `json:"forward"`
	Position vecmath.Vec3 `json:"position"`
}

// DefaultFrame returns the world-aligned axes at position.
func DefaultFrame(position vecmath.Vec3) Pose {
	return Pose{
		Right:    vecmath.UnitX,
		Up:       vecmath.UnitY,
		Forward:  vecmath.UnitZ,
		Position: position,
	}
}

// Orthonormal reports whether the axes are unit length and mutually
// perpendicular within tol.
func (p Pose) Orthonormal(tol float64) bool {
	for _, v := range [3]vecmath.Vec3{p.Right, p.Up, p.Forward} {
		if math.Abs(v.Len()-1) > tol {
			return false
		}
	}
	return math.Abs(p.Right.Dot(p.Up)) <= tol &&
		math.Abs(p.Right.Dot(p.Forward)) <= tol &&
		math.Abs(p.Up.Dot(p.Forward)) <= tol
}

// StepResult describes what happened during one aircraft update.
type StepResult struct {
	Reset     bool         // reset action applied
	Collided  bool         // candidate position rejected by the probe
	Penalty   int          // score delta to subtract (non-negative)
	Candidate vecmath.Vec3 // position the aircraft tried to move to
}

// Aircraft integrates control input into the pose each tick.
type Aircraft struct {
	cfg   config.SimConfig
	spawn vecmath.Vec3
	probe *Probe
	log   zerolog.Logger

	pose     Pose
	yawVel   float64
	pitchVel float64
	boost    float64
}

// NewAircraft creates an aircraft at the configured spawn point.
func NewAircraft(cfg config.SimConfig, probe *Probe, log zerolog.Logger) *Aircraft {
	spawn := vecmath.V3(cfg.SpawnX, cfg.SpawnY, cfg.SpawnZ)
	return &Aircraft{
		cfg:   cfg,
		spawn: spawn,
		probe: probe,
		log:   log,
		pose:  DefaultFrame(spawn),
	}
}

// Update advances the aircraft by one fixed step.
func (a *Aircraft) Update(in input.State) StepResult {
	a.yawVel = clampAbs(a.yawVel*a.cfg.AngularDamping, a.cfg.MaxAngularVelocity)
	a.pitchVel = clampAbs(a.pitchVel*a.cfg.AngularDamping, a.cfg.MaxAngularVelocity)

	if in.YawLeft {
		a.yawVel += a.cfg.TurnRate
	}
	if in.YawRight {
		a.yawVel -= a.cfg.TurnRate
	}
	if in.PitchUp {
		a.pitchVel -= a.cfg.TurnRate
	}
	if in.PitchDown {
		a.pitchVel += a.cfg.TurnRate
	}

	// Reset overrides movement for this tick.
	if in.Reset {
		a.Reset()
		return StepResult{Reset: true}
	}

	p := a.pose
	p.Right = p.Right.ApplyAxisAngle(p.Forward, a.yawVel)
	p.Up = p.Up.ApplyAxisAngle(p.Forward, a.yawVel)
	p.Up = p.Up.ApplyAxisAngle(p.Right, a.pitchVel)
	p.Forward = p.Forward.ApplyAxisAngle(p.Right, a.pitchVel)
	a.pose = a.renormalize(p)

	if in.Boost {
		a.boost += a.cfg.BoostRate
	} else {
		a.boost *= a.cfg.BoostDecay
	}
	a.boost = math.Min(math.Max(a.boost, 0), 1)

	step := a.cfg.BaseSpeed + a.SpeedBonus()
	candidate := a.pose.Position.Add(a.pose.Forward.Scale(-step))

	if a.probe.Test(candidate, a.pose.Forward, a.boost) == Collided {
		a.Reset()
		return StepResult{Collided: true, Penalty: a.cfg.CollisionPenalty, Candidate: candidate}
	}
	a.pose.Position = candidate
	return StepResult{Candidate: candidate}
}

// renormalize normalizes all three axes. A degenerate axis panics in strict
// mode; otherwise the default frame is restored at the current position.
func (a *Aircraft) renormalize(p Pose) Pose {
	var err error
	if p.Right, err = p.Right.Normalize(); err == nil {
		if p.Up, err = p.Up.Normalize(); err == nil {
			p.Forward, err = p.Forward.Normalize()
		}
	}
	if err == nil {
		return p
	}

	err = fmt.Errorf("aircraft orientation: %w", err)
	if a.cfg.Strict {
		panic(err)
	}
	a.log.Error().Err(err).Msg("restoring default frame")
	a.yawVel, a.pitchVel = 0, 0

	pos := p.Position
	if !pos.IsFinite() {
		pos = a.spawn
	}
	return DefaultFrame(pos)
}

// Reset zeroes angular velocity and boost and returns to the spawn frame.
func (a *Aircraft) Reset() {
	a.yawVel, a.pitchVel, a.boost = 0, 0, 0
	a.pose = DefaultFrame(a.spawn)
}

// Pose returns a copy of the current pose.
func (a *Aircraft) Pose() Pose { return a.pose }

// Boost returns the boost level in [0, 1].
func (a *Aircraft) Boost() float64 { return a.boost }

// AngularVelocity returns the current yaw and pitch rates (radians per tick).
func (a *Aircraft) AngularVelocity() (yaw, pitch float64) { return a.yawVel, a.pitchVel }

// SpeedBonus is the extra per-tick speed from boost.
func (a *Aircraft) SpeedBonus() float64 {
	return easeOutQuad(a.boost) * a.cfg.BoostSpeedBonus
}

// FOVHint is the camera field of view the presentation layer should use.
// It has no effect on the simulation.
func (a *Aircraft) FOVHint() float64 {
	return a.cfg.FOVBase + a.SpeedBonus()*a.cfg.FOVScale
}

func easeOutQuad(x float64) float64 {
	return 1 - (1-x)*(1-x)
}

func clampAbs(v, limit float64) float64 {
	if math.Abs(v) > limit {
		return math.Copysign(limit, v)
	}
	return v
}
