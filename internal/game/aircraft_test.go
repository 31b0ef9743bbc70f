package game

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jet-fighter/internal/config"
	"jet-fighter/internal/input"
	"jet-fighter/internal/vecmath"
)

func TestNewAircraftSpawnsAtDefaultFrame(t *testing.T) {
	a := newTestAircraft()

	assert.Equal(t, DefaultFrame(spawnPosition()), a.Pose())
	assert.Zero(t, a.Boost())
	assert.InDelta(t, 45.0, a.FOVHint(), 1e-12)
}

func TestAircraftCruise(t *testing.T) {
	a := newTestAircraft()

	res := a.Update(input.State{})
	require.False(t, res.Collided)
	assertVecNear(t, vecmath.V3(0, 3, 7-0.006), a.Pose().Position)
	assertVecNear(t, res.Candidate, a.Pose().Position)
}

func TestAircraftTurnInput(t *testing.T) {
	tests := []struct {
		name      string
		in        input.State
		wantYaw   float64
		wantPitch float64
	}{
		{"yaw left", input.State{YawLeft: true}, 0.0025, 0},
		{"yaw right", input.State{YawRight: true}, -0.0025, 0},
		{"pitch up", input.State{PitchUp: true}, 0, -0.0025},
		{"pitch down", input.State{PitchDown: true}, 0, 0.0025},
		{"opposites cancel", input.State{YawLeft: true, YawRight: true}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAircraft()
			a.Update(tt.in)
			yaw, pitch := a.AngularVelocity()
			assert.InDelta(t, tt.wantYaw, yaw, 1e-12)
			assert.InDelta(t, tt.wantPitch, pitch, 1e-12)
		})
	}
}

func TestAircraftAngularVelocityDampsAndClamps(t *testing.T) {
	a := newTestAircraft()

	for i := 0; i < 200; i++ {
		a.Update(input.State{YawLeft: true})
	}
	yaw, _ := a.AngularVelocity()
	// clamp(0.95v) + turn rate settles at max + turn rate
	assert.InDelta(t, 0.0425, yaw, 1e-9)

	for i := 0; i < 200; i++ {
		a.Update(input.State{})
	}
	yaw, _ = a.AngularVelocity()
	assert.Less(t, yaw, 0.001)
	assert.GreaterOrEqual(t, yaw, 0.0)
}

func TestAircraftBoost(t *testing.T) {
	a := newTestAircraft()

	for i := 0; i < 100; i++ {
		a.Update(input.State{Boost: true})
		assert.LessOrEqual(t, a.Boost(), 1.0)
	}
	assert.Equal(t, 1.0, a.Boost())
	assert.InDelta(t, 0.02, a.SpeedBonus(), 1e-12)
	assert.InDelta(t, 63.0, a.FOVHint(), 1e-9)

	prev := a.Boost()
	for i := 0; i < 20; i++ {
		a.Update(input.State{})
		assert.Less(t, a.Boost(), prev)
		assert.GreaterOrEqual(t, a.Boost(), 0.0)
		prev = a.Boost()
	}
}

func TestAircraftResetAction(t *testing.T) {
	a := newTestAircraft()
	for i := 0; i < 30; i++ {
		a.Update(input.State{YawLeft: true, PitchUp: true, Boost: true})
	}
	require.NotEqual(t, DefaultFrame(spawnPosition()), a.Pose())

	res := a.Update(input.State{Reset: true, YawLeft: true})
	assert.True(t, res.Reset)
	assert.False(t, res.Collided)
	assert.Zero(t, res.Penalty)
	assert.Equal(t, DefaultFrame(spawnPosition()), a.Pose())
	assert.Zero(t, a.Boost())
	yaw, pitch := a.AngularVelocity()
	assert.Zero(t, yaw)
	assert.Zero(t, pitch)
}

func TestAircraftStaysOrthonormal(t *testing.T) {
	a := newTestAircraft()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 5000; i++ {
		in := input.State{
			YawLeft:   rng.Intn(2) == 0,
			YawRight:  rng.Intn(3) == 0,
			PitchUp:   rng.Intn(2) == 0,
			PitchDown: rng.Intn(3) == 0,
			Boost:     rng.Intn(2) == 0,
		}
		res := a.Update(in)
		pose := a.Pose()
		require.True(t, pose.Orthonormal(orthoTol), "tick %d: %+v", i, pose)
		require.True(t, a.probe.InBounds(pose.Position), "tick %d: %v", i, pose.Position)
		if !res.Collided {
			assert.Equal(t, res.Candidate, pose.Position)
		}
	}
}

func TestAircraftBoundaryCollision(t *testing.T) {
	a := newTestAircraft()
	// Travelling toward +X along -Forward, sitting on the max X face.
	a.pose = Pose{
		Right:    vecmath.UnitZ,
		Up:       vecmath.UnitY,
		Forward:  vecmath.UnitX.Neg(),
		Position: vecmath.V3(8, 3, 0),
	}
	require.True(t, a.pose.Orthonormal(orthoTol))

	res := a.Update(input.State{})
	assert.True(t, res.Collided)
	assert.Equal(t, 10, res.Penalty)
	assert.Greater(t, res.Candidate.X, 8.0)
	assert.Equal(t, DefaultFrame(spawnPosition()), a.Pose())
}

func TestAircraftObstacleCollision(t *testing.T) {
	// The probe looks along Forward; the wall sits 0.3 ahead of it.
	a := newTestAircraft(&wall{X: 0.3, loaded: true})
	a.pose = Pose{
		Right:    vecmath.UnitZ.Neg(),
		Up:       vecmath.UnitY,
		Forward:  vecmath.UnitX,
		Position: vecmath.V3(0, 3, 0),
	}
	require.True(t, a.pose.Orthonormal(orthoTol))

	res := a.Update(input.State{})
	assert.True(t, res.Collided)
	assert.Equal(t, spawnPosition(), a.Pose().Position)
}

func TestAircraftDegenerateFrame(t *testing.T) {
	t.Run("recovers by default", func(t *testing.T) {
		a := newTestAircraft()
		a.pose.Forward = vecmath.Vec3{}
		a.pose.Position = vecmath.V3(1, 2, 3)

		var res StepResult
		assert.NotPanics(t, func() { res = a.Update(input.State{}) })
		assert.False(t, res.Collided)
		pose := a.Pose()
		assert.True(t, pose.Orthonormal(orthoTol))
		assert.Equal(t, vecmath.UnitZ, pose.Forward)
		assertVecNear(t, vecmath.V3(1, 2, 3-0.006), pose.Position)
	})

	t.Run("panics in strict mode", func(t *testing.T) {
		cfg := config.DefaultSim()
		cfg.Strict = true
		a := NewAircraft(cfg, NewProbe(cfg, zerolog.Nop()), zerolog.Nop())
		a.pose.Up = vecmath.Vec3{}

		assert.Panics(t, func() { a.Update(input.State{}) })
	})
}

func TestPoseOrthonormal(t *testing.T) {
	assert.True(t, DefaultFrame(vecmath.Vec3{}).Orthonormal(orthoTol))

	skewed := DefaultFrame(vecmath.Vec3{})
	skewed.Up = vecmath.V3(0.1, 1, 0)
	assert.False(t, skewed.Orthonormal(orthoTol))

	long := DefaultFrame(vecmath.Vec3{})
	long.Right = vecmath.V3(2, 0, 0)
	assert.False(t, long.Orthonormal(orthoTol))
}
